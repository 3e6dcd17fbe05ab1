package params

import (
	"regexp"
	"strconv"
	"strings"

	"aura/internal/tool"
)

// Extraction is heuristic and never fails: fields that cannot be pulled
// out of the text are simply absent from the result, which the validator
// later reports as missing. All patterns are compiled here, once, at
// process start.
var (
	sheetFileRe = regexp.MustCompile(`\b([A-Za-z0-9][A-Za-z0-9_\-]*\.(?:csv|xlsx|xls|ods))\b`)
	docFileRe   = regexp.MustCompile(`\b([A-Za-z0-9][A-Za-z0-9_\-]*\.(?:pdf|docx?|txt|md))\b`)
	scanFileRe  = regexp.MustCompile(`\b([A-Za-z0-9][A-Za-z0-9_\-]*\.(?:pdf|png|jpe?g|tiff?|docx?))\b`)
	anyFileRe   = regexp.MustCompile(`\b([A-Za-z0-9][A-Za-z0-9_\-]*\.[A-Za-z0-9]{1,5})\b`)

	titleQuotedRe = regexp.MustCompile(`(?i)(?:called|named)\s+["']([^"']+)["']`)
	titleBareRe   = regexp.MustCompile(`(?i)(?:called|named)\s+([^\s"']+)`)

	dirNamedRe   = regexp.MustCompile(`(?i)\bin\s+(?:the\s+)?([A-Za-z0-9_\-]+)\s+(?:folder|directory)\b`)
	dirKeywordRe = regexp.MustCompile(`(?i)\bin\s+(?:folder|directory)\s+([^\s"']+)`)

	contentRe = regexp.MustCompile(`(?i)\b(?:with content|containing|that says|saying)\s+["']?(.+?)["']?\s*$`)

	openQueryRe = regexp.MustCompile(`(?i)\b(?:open|launch|show me)\s+(?:the\s+)?(.+?)\s*$`)
	appWordRe   = regexp.MustCompile(`(?i)\bapp(?:lication)?\b`)
	folderRe    = regexp.MustCompile(`(?i)\b(?:folder|directory)\b`)

	columnBeforeRe = regexp.MustCompile(`(?i)\b(?:the\s+)?([A-Za-z][A-Za-z0-9_]*)\s+column\b`)
	columnAfterRe  = regexp.MustCompile(`(?i)\bcolumn\s+["']?([A-Za-z][A-Za-z0-9_]*)["']?`)

	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent)`)
	byAmountRe  = regexp.MustCompile(`(?i)\bby\s+(\d+(?:\.\d+)?)\b`)
	valueAfterRe = regexp.MustCompile(`(?i)\bvalue\s+["']?([^\s"']+)["']?`)
)

// Extract applies the tool's extraction heuristics to raw text and
// returns candidate parameter values, pre-validation.
func Extract(def *tool.Definition, text string) map[string]any {
	raw := make(map[string]any)

	switch def.Name {
	case tool.CreateFile:
		extractCreateFile(text, raw)
	case tool.OpenItem:
		extractOpenItem(text, raw)
	case tool.AnalyzeSheet:
		extractAnalyzeSheet(text, raw)
	case tool.UpdateSheet:
		extractUpdateSheet(text, raw)
	case tool.SummarizeDoc:
		extractSummarizeDoc(text, raw)
	case tool.ExtractData:
		extractExtractData(text, raw)
	case tool.GenerateReport:
		extractGenerateReport(text, raw)
	}

	return raw
}

func extractCreateFile(text string, raw map[string]any) {
	if title, ok := firstGroup(text, titleQuotedRe, titleBareRe, anyFileRe); ok {
		raw["title"] = title
	}
	if dir, ok := firstGroup(text, dirNamedRe, dirKeywordRe); ok {
		raw["path"] = dir
	}
	if m := contentRe.FindStringSubmatch(text); m != nil {
		raw["content"] = m[1]
	}
}

func extractOpenItem(text string, raw map[string]any) {
	query := strings.TrimSpace(text)
	if m := openQueryRe.FindStringSubmatch(text); m != nil {
		query = strings.Trim(m[1], " .!?")
	}
	if query != "" {
		raw["query"] = query
	}

	switch {
	case anyFileRe.MatchString(text):
		raw["type"] = "file"
	case appWordRe.MatchString(text):
		raw["type"] = "application"
	case folderRe.MatchString(text):
		raw["type"] = "folder"
	}
}

func extractAnalyzeSheet(text string, raw map[string]any) {
	if path, ok := firstGroup(text, sheetFileRe); ok {
		raw["path"] = path
	}
	if op, ok := sheetOp(text); ok {
		raw["op"] = op
	}
	if column, ok := firstGroup(text, columnBeforeRe, columnAfterRe); ok {
		raw["column"] = column
	}
}

// sheetOp maps operation keywords the way the spreadsheet backend names
// them. Sum is checked before total so "sum the totals" stays a sum.
func sheetOp(text string) (string, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "average"), strings.Contains(lower, "avg"), strings.Contains(lower, "mean"):
		return "avg", true
	case strings.Contains(lower, "count"), strings.Contains(lower, "how many"):
		return "count", true
	case strings.Contains(lower, "sum"), strings.Contains(lower, "add up"):
		return "sum", true
	case strings.Contains(lower, "total"):
		return "total", true
	}
	return "", false
}

func extractUpdateSheet(text string, raw map[string]any) {
	if path, ok := firstGroup(text, sheetFileRe); ok {
		raw["path"] = path
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "salary"), strings.Contains(lower, "salaries"),
		strings.Contains(lower, "pay"), strings.Contains(lower, "wage"):
		raw["operation"] = "salary_increase"
	case strings.Contains(lower, "bonus"):
		raw["operation"] = "bonus_update"
	case strings.Contains(lower, "add") && strings.Contains(lower, "column"):
		raw["operation"] = "add_column"
	}

	if pct, ok := firstGroup(text, percentRe, byAmountRe); ok {
		if n, err := strconv.ParseFloat(pct, 64); err == nil {
			raw["percentage"] = n
		}
	}
	if column, ok := firstGroup(text, columnBeforeRe, columnAfterRe); ok {
		raw["column"] = column
	}
	if value, ok := firstGroup(text, valueAfterRe); ok {
		raw["value"] = value
	}
}

func extractSummarizeDoc(text string, raw map[string]any) {
	if path, ok := firstGroup(text, docFileRe); ok {
		raw["path"] = path
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "bullet"):
		raw["length"] = "bullets"
	case strings.Contains(lower, "tweet"):
		raw["length"] = "tweet"
	case strings.Contains(lower, "short"), strings.Contains(lower, "brief"):
		raw["length"] = "short"
	}
}

func extractExtractData(text string, raw map[string]any) {
	if path, ok := firstGroup(text, scanFileRe); ok {
		raw["file_path"] = path
	}

	lower := strings.ToLower(text)
	for _, kind := range []string{"invoice", "contract", "form", "receipt"} {
		if strings.Contains(lower, kind) {
			raw["document_type"] = kind
			break
		}
	}
}

func extractGenerateReport(text string, raw map[string]any) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "sales"):
		raw["report_type"] = "sales"
	case strings.Contains(lower, "financ"):
		raw["report_type"] = "financial"
	case strings.Contains(lower, "performance"):
		raw["report_type"] = "performance"
	}

	var sources []string
	for _, m := range anyFileRe.FindAllStringSubmatch(text, -1) {
		sources = append(sources, m[1])
	}
	if len(sources) > 0 {
		raw["data_sources"] = sources
	}

	for _, period := range []string{"daily", "weekly", "monthly", "quarterly"} {
		if strings.Contains(lower, period) {
			raw["period"] = period
			break
		}
	}
}

// firstGroup tries patterns in order and returns the first capture group
// of the first one that matches.
func firstGroup(text string, patterns ...*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}
