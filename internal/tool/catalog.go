package tool

import "regexp"

// Filename and path constraints mirror what the backend enforces, so bad
// values are caught before a dispatch is wasted.
const (
	filenamePatternSrc = `^[^<>:"|?*]+$`
	dirPatternSrc      = `^[A-Za-z0-9_][A-Za-z0-9_\-./ ]*$`
)

var (
	filenamePattern = regexp.MustCompile(filenamePatternSrc)
	dirPattern      = regexp.MustCompile(dirPatternSrc)
)

// Catalog returns the static tool catalog. It is the single source of
// truth for tool identity and parameter contracts; everything else
// (router rules, extraction heuristics, schemas, the protocol surface)
// keys off these definitions.
func Catalog() []*Definition {
	return []*Definition{
		{
			Name:        CreateFile,
			Description: "Create a new file with an optional directory and initial content",
			Endpoint:    "/api/create-file",
			Category:    CategoryQuick,
			Contract: []Field{
				{
					Name: "title", Type: TypeString, Required: true,
					MinLen: 1, MaxLen: 255,
					Pattern: filenamePattern, PatternSrc: filenamePatternSrc,
					Description: "Name of the file to create",
				},
				{
					Name: "path", Type: TypeString,
					Pattern: dirPattern, PatternSrc: dirPatternSrc,
					Description: "Directory the file should be created in",
				},
				{
					Name: "content", Type: TypeString, Default: "",
					Description: "Initial file content",
				},
			},
			Examples: []map[string]any{
				{"title": "notes.txt"},
				{"title": "todo.md", "path": "Documents", "content": "- buy milk"},
			},
		},
		{
			Name:        OpenItem,
			Description: "Open a file, application, or folder",
			Endpoint:    "/api/open-item",
			Category:    CategoryQuick,
			Contract: []Field{
				{
					Name: "query", Type: TypeString, Required: true, MinLen: 1,
					Description: "What to open, by name or path",
				},
				{
					Name: "type", Type: TypeString, Default: "auto",
					Enum:        []string{"file", "application", "folder", "auto"},
					Description: "Kind of item to open",
				},
			},
			Examples: []map[string]any{
				{"query": "report.pdf", "type": "file"},
				{"query": "calculator", "type": "application"},
			},
		},
		{
			Name:        AnalyzeSheet,
			Description: "Run an aggregate operation over a spreadsheet column",
			Endpoint:    "/api/analyze-sheet",
			Category:    CategorySheet,
			Contract: []Field{
				{
					Name: "path", Type: TypeString, Required: true, MinLen: 1,
					Description: "Path to the spreadsheet file",
				},
				{
					Name: "op", Type: TypeString, Required: true,
					Enum:        []string{"sum", "avg", "count", "total"},
					Description: "Aggregate operation to perform",
				},
				{
					Name: "column", Type: TypeString, Required: true,
					MinLen: 1, MaxLen: 100,
					Description: "Column to analyze",
				},
			},
			Examples: []map[string]any{
				{"path": "sales.xlsx", "op": "sum", "column": "Revenue"},
				{"path": "payroll.csv", "op": "avg", "column": "Salary"},
			},
		},
		{
			Name:        UpdateSheet,
			Description: "Apply a bulk update to a spreadsheet",
			Endpoint:    "/api/update-sheet",
			Category:    CategorySheet,
			Contract: []Field{
				{
					Name: "path", Type: TypeString, Required: true, MinLen: 1,
					Description: "Path to the spreadsheet file",
				},
				{
					Name: "operation", Type: TypeString, Required: true,
					Enum:        []string{"salary_increase", "bonus_update", "add_column"},
					Description: "Update operation to perform",
				},
				{
					Name: "column", Type: TypeString,
					Description: "Column the operation targets",
				},
				{
					Name: "value", Type: TypeString,
					Description: "Value for add_column operations",
				},
				{
					Name: "percentage", Type: TypeNumber,
					Min: num(0), Max: num(500),
					Description: "Percentage for increase operations",
				},
			},
			Examples: []map[string]any{
				{"path": "payroll.csv", "operation": "salary_increase", "percentage": 10},
			},
		},
		{
			Name:        SummarizeDoc,
			Description: "Summarize a PDF or text document",
			Endpoint:    "/api/summarize-doc",
			Category:    CategoryDocument,
			Contract: []Field{
				{
					Name: "path", Type: TypeString, Required: true, MinLen: 1,
					Description: "Path to the document",
				},
				{
					Name: "length", Type: TypeString, Default: "short",
					Enum:        []string{"short", "bullets", "tweet"},
					Description: "Summary style",
				},
			},
			Examples: []map[string]any{
				{"path": "contract.pdf", "length": "bullets"},
			},
		},
		{
			Name:        ExtractData,
			Description: "Extract structured fields from a scanned or digital document",
			Endpoint:    "/api/extract-data",
			Category:    CategoryDocument,
			Contract: []Field{
				{
					Name: "file_path", Type: TypeString, Required: true, MinLen: 1,
					Description: "Path to the document",
				},
				{
					Name: "document_type", Type: TypeString, Default: "auto",
					Enum:        []string{"auto", "invoice", "contract", "form", "receipt"},
					Description: "Kind of document being processed",
				},
			},
			Examples: []map[string]any{
				{"file_path": "invoice-march.pdf", "document_type": "invoice"},
			},
		},
		{
			Name:        GenerateReport,
			Description: "Generate a report from one or more data sources",
			Endpoint:    "/api/generate-report",
			Category:    CategoryDocument,
			Contract: []Field{
				{
					Name: "report_type", Type: TypeString, Required: true,
					Enum:        []string{"sales", "financial", "performance", "custom"},
					Description: "Type of report to generate",
				},
				{
					Name: "data_sources", Type: TypeStringList, Required: true, MinLen: 1,
					Description: "Files or source names feeding the report",
				},
				{
					Name: "period", Type: TypeString, Default: "monthly",
					Enum:        []string{"daily", "weekly", "monthly", "quarterly"},
					Description: "Reporting period",
				},
			},
			Examples: []map[string]any{
				{"report_type": "sales", "data_sources": []string{"global-sales.csv"}, "period": "quarterly"},
			},
		},
	}
}
