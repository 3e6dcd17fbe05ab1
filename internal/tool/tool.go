package tool

import "regexp"

// Name identifies one capability in the closed tool set. All dispatch is
// keyed by this type rather than free-form strings.
type Name string

const (
	CreateFile     Name = "create_file"
	OpenItem       Name = "open_item"
	AnalyzeSheet   Name = "analyze_sheet"
	UpdateSheet    Name = "update_sheet"
	SummarizeDoc   Name = "summarize_doc"
	ExtractData    Name = "extract_data"
	GenerateReport Name = "generate_report"
)

// Fallback is the tool the router nominates when nothing matches.
const Fallback = OpenItem

// Category groups tools by expected backend latency. The dispatcher picks
// its timeout ceiling from this.
type Category string

const (
	CategoryQuick    Category = "quick"    // file and open-item style operations
	CategorySheet    Category = "sheet"    // spreadsheet loads and math
	CategoryDocument Category = "document" // OCR, summarization, reports
)

// FieldType is the declared value type of a contract field.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeNumber     FieldType = "number"
	TypeStringList FieldType = "string_list"
)

// Field is one entry in a tool's parameter contract. Constraints are
// checked in order: type, length bounds, numeric bounds, pattern,
// enumeration. The first failing check for a field wins.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string

	// Default is applied when an optional field is absent after
	// extraction. Nil means the field simply stays absent.
	Default any

	MinLen int
	MaxLen int // 0 means unbounded

	Min *float64
	Max *float64

	Enum []string

	// Pattern is compiled once when the catalog is built, never per
	// request.
	Pattern    *regexp.Regexp
	PatternSrc string
}

// Definition describes one tool: its identity, backend endpoint, and
// parameter contract. Definitions are built at startup and never mutated.
type Definition struct {
	Name        Name
	Description string
	Endpoint    string
	Category    Category
	Contract    []Field

	// Examples are valid parameter sets used for documentation, for
	// remediation suggestions, and by Registry.SelfTest.
	Examples []map[string]any
}

// FieldByName returns the contract field with the given name.
func (d *Definition) FieldByName(name string) (Field, bool) {
	for _, f := range d.Contract {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func num(v float64) *float64 { return &v }
