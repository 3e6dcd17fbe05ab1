package dispatch

import (
	"encoding/json"
	"fmt"

	"aura/internal/params"
	"aura/internal/tool"
)

// Suggest generates remediation hints for a failure class, tailored to
// the tool that failed. Every error code yields at least one suggestion
// so callers can always present actionable guidance.
func Suggest(code ErrorCode, def *tool.Definition) []Suggestion {
	example := exampleFor(def)

	switch code {
	case CodeNotFound:
		return []Suggestion{
			{Type: "check", Message: "The requested item was not found. Check the name or path and try again."},
			{Type: "example", Message: fmt.Sprintf("Example parameters for %s", def.Name), Example: example},
		}
	case CodeAlreadyExists:
		return []Suggestion{
			{Type: "rephrase", Message: "Something with that name already exists. Try a different name."},
		}
	case CodeRejected:
		return []Suggestion{
			{Type: "check", Message: "The backend rejected the parameters. Compare them against the tool's contract."},
			{Type: "example", Message: fmt.Sprintf("Example parameters for %s", def.Name), Example: example},
		}
	case CodeUnreachable:
		return []Suggestion{
			{Type: "check", Message: "The capability backend did not respond. Make sure it is running, then retry."},
		}
	case CodeLowConfidence:
		return []Suggestion{
			{Type: "rephrase", Message: "I wasn't sure what you wanted. Try naming the action and the target explicitly."},
			{Type: "example", Message: "For instance", Example: `create a file called notes.txt`},
		}
	default:
		return []Suggestion{
			{Type: "rephrase", Message: "The operation failed. Rephrase the request or try again later."},
		}
	}
}

// SuggestValidation builds per-field hints from a validation report:
// each missing field asks the user to supply it, each invalid field
// explains the violated constraint.
func SuggestValidation(def *tool.Definition, report *params.Report) []Suggestion {
	var out []Suggestion
	for _, e := range report.Missing {
		msg := fmt.Sprintf("Please specify %s", e.Field)
		if f, ok := def.FieldByName(e.Field); ok && f.Description != "" {
			msg = fmt.Sprintf("Please specify %s: %s", e.Field, f.Description)
		}
		out = append(out, Suggestion{Type: "clarify", Message: msg})
	}
	for _, e := range report.Invalid {
		out = append(out, Suggestion{
			Type:    "check",
			Message: fmt.Sprintf("%s %s", e.Field, e.Reason),
		})
	}
	if len(out) > 0 {
		out = append(out, Suggestion{
			Type:    "example",
			Message: fmt.Sprintf("Example parameters for %s", def.Name),
			Example: exampleFor(def),
		})
	}
	return out
}

func exampleFor(def *tool.Definition) string {
	if len(def.Examples) == 0 {
		return ""
	}
	raw, err := json.Marshal(def.Examples[0])
	if err != nil {
		return ""
	}
	return string(raw)
}
