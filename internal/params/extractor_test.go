package params

import (
	"reflect"
	"testing"

	"aura/internal/tool"
)

func lookup(t *testing.T, name tool.Name) *tool.Definition {
	t.Helper()
	def, err := tool.Default().Lookup(name)
	if err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	return def
}

func TestExtract_CreateFileTitle(t *testing.T) {
	def := lookup(t, tool.CreateFile)

	raw := Extract(def, "create file called notes.txt")
	if raw["title"] != "notes.txt" {
		t.Errorf("expected title notes.txt, got %v", raw["title"])
	}
}

func TestExtract_CreateFileQuotedTitleAndContent(t *testing.T) {
	def := lookup(t, tool.CreateFile)

	raw := Extract(def, `create a file named "meeting notes.md" containing agenda for Monday`)
	if raw["title"] != "meeting notes.md" {
		t.Errorf("expected quoted title, got %v", raw["title"])
	}
	if raw["content"] != "agenda for Monday" {
		t.Errorf("expected content, got %v", raw["content"])
	}
}

func TestExtract_CreateFileDirectory(t *testing.T) {
	def := lookup(t, tool.CreateFile)

	raw := Extract(def, "create file called todo.md in the Documents folder")
	if raw["path"] != "Documents" {
		t.Errorf("expected path Documents, got %v", raw["path"])
	}
}

func TestExtract_AnalyzeSheetScenario(t *testing.T) {
	def := lookup(t, tool.AnalyzeSheet)

	raw := Extract(def, "sum the Revenue column in sales.xlsx")
	want := map[string]any{"path": "sales.xlsx", "op": "sum", "column": "Revenue"}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("expected %v, got %v", want, raw)
	}
}

func TestExtract_AnalyzeSheetAverage(t *testing.T) {
	def := lookup(t, tool.AnalyzeSheet)

	raw := Extract(def, "what is the average of the Salary column in payroll.csv")
	if raw["op"] != "avg" {
		t.Errorf("expected op avg, got %v", raw["op"])
	}
	if raw["column"] != "Salary" {
		t.Errorf("expected column Salary, got %v", raw["column"])
	}
}

func TestExtract_AnalyzeSheetMissingFileStaysAbsent(t *testing.T) {
	def := lookup(t, tool.AnalyzeSheet)

	raw := Extract(def, "sum the Revenue column")
	if _, present := raw["path"]; present {
		t.Errorf("expected no path extracted, got %v", raw["path"])
	}
}

func TestExtract_UpdateSheetSalaryIncrease(t *testing.T) {
	def := lookup(t, tool.UpdateSheet)

	raw := Extract(def, "increase all salaries in payroll.csv by 10%")
	if raw["operation"] != "salary_increase" {
		t.Errorf("expected salary_increase, got %v", raw["operation"])
	}
	if raw["percentage"] != 10.0 {
		t.Errorf("expected percentage 10, got %v", raw["percentage"])
	}
	if raw["path"] != "payroll.csv" {
		t.Errorf("expected payroll.csv, got %v", raw["path"])
	}
}

func TestExtract_SummarizeDocBullets(t *testing.T) {
	def := lookup(t, tool.SummarizeDoc)

	raw := Extract(def, "summarize contract.pdf as bullet points")
	if raw["path"] != "contract.pdf" {
		t.Errorf("expected contract.pdf, got %v", raw["path"])
	}
	if raw["length"] != "bullets" {
		t.Errorf("expected bullets, got %v", raw["length"])
	}
}

func TestExtract_OpenItemQuery(t *testing.T) {
	def := lookup(t, tool.OpenItem)

	raw := Extract(def, "open the downloads folder")
	if raw["query"] != "downloads folder" {
		t.Errorf("expected query, got %v", raw["query"])
	}
	if raw["type"] != "folder" {
		t.Errorf("expected folder type, got %v", raw["type"])
	}
}

func TestExtract_ExtractDataInvoice(t *testing.T) {
	def := lookup(t, tool.ExtractData)

	raw := Extract(def, "extract the data from invoice-march.pdf, it is an invoice")
	if raw["file_path"] != "invoice-march.pdf" {
		t.Errorf("expected invoice-march.pdf, got %v", raw["file_path"])
	}
	if raw["document_type"] != "invoice" {
		t.Errorf("expected invoice, got %v", raw["document_type"])
	}
}

func TestExtract_GenerateReport(t *testing.T) {
	def := lookup(t, tool.GenerateReport)

	raw := Extract(def, "generate a quarterly sales report from global-sales.csv")
	if raw["report_type"] != "sales" {
		t.Errorf("expected sales, got %v", raw["report_type"])
	}
	if raw["period"] != "quarterly" {
		t.Errorf("expected quarterly, got %v", raw["period"])
	}
	sources, ok := raw["data_sources"].([]string)
	if !ok || len(sources) != 1 || sources[0] != "global-sales.csv" {
		t.Errorf("expected [global-sales.csv], got %v", raw["data_sources"])
	}
}

func TestExtract_NeverFails(t *testing.T) {
	for _, def := range tool.Default().All() {
		for _, text := range []string{"", "unrelated words entirely", "!!!"} {
			raw := Extract(def, text)
			if raw == nil {
				t.Errorf("Extract(%s, %q) returned nil", def.Name, text)
			}
		}
	}
}
