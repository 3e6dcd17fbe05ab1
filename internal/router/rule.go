package router

import (
	"regexp"

	"aura/internal/config"
	"aura/internal/tool"

	"go.uber.org/zap"
)

// Rule associates one tool with trigger substrings, pattern matchers, and
// a priority. Rules are immutable after construction; priorities order
// candidate matches and ties are broken by registration order.
type Rule struct {
	Tool     tool.Name
	Triggers []string
	Patterns []*regexp.Regexp
	Priority int
}

// builtinRules is the static rule set. Trigger matching is
// case-insensitive substring containment, so triggers are stored
// lowercase.
func builtinRules() []Rule {
	return []Rule{
		{
			Tool:     tool.AnalyzeSheet,
			Priority: 85,
			Triggers: []string{"sum", "average", "avg", "count", "total", "column", "spreadsheet"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(sum|total|average|avg|count)\b.*\bcolumn\b`),
				regexp.MustCompile(`(?i)\.(csv|xlsx|xls|ods)\b`),
			},
		},
		{
			Tool:     tool.SummarizeDoc,
			Priority: 83,
			Triggers: []string{"summarize", "summary", "tldr", "tl;dr"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bsummar(y|ize|ise)\b`),
			},
		},
		{
			Tool:     tool.UpdateSheet,
			Priority: 82,
			Triggers: []string{"increase", "decrease", "raise", "salary", "bonus"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(increase|raise|update|bump)\b.*\b(salary|salaries|bonus|pay|column)\b`),
			},
		},
		{
			Tool:     tool.GenerateReport,
			Priority: 81,
			Triggers: []string{"report"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(generate|create|build|make)\b.*\breport\b`),
			},
		},
		{
			Tool:     tool.CreateFile,
			Priority: 80,
			Triggers: []string{"create file", "new file", "make a file", "create a note", "create a file"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bcreate\b.*\bfile\b`),
				regexp.MustCompile(`(?i)\b(make|write)\b.*\b(file|note|document)\b`),
			},
		},
		{
			Tool:     tool.ExtractData,
			Priority: 78,
			Triggers: []string{"extract", "invoice", "receipt", "ocr"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bextract\b.*\b(data|fields|table|text)\b`),
			},
		},
		{
			Tool:     tool.OpenItem,
			Priority: 60,
			Triggers: []string{"open", "launch", "show me"},
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(open|launch)\b`),
			},
		},
	}
}

// rulesFromConfig compiles user-supplied rules. A pattern that fails to
// compile is skipped with a warning; the rest of the rule stays usable.
// A rule left with no triggers and no patterns is dropped entirely.
func rulesFromConfig(extras []config.RuleConfig, log *zap.Logger) []Rule {
	var rules []Rule
	for _, rc := range extras {
		rule := Rule{
			Tool:     tool.Name(rc.Tool),
			Priority: rc.Priority,
		}
		for _, t := range rc.Triggers {
			if t != "" {
				rule.Triggers = append(rule.Triggers, t)
			}
		}
		for _, src := range rc.Patterns {
			re, err := regexp.Compile(src)
			if err != nil {
				log.Warn("skipping malformed routing pattern",
					zap.String("tool", rc.Tool),
					zap.String("pattern", src),
					zap.Error(err),
				)
				continue
			}
			rule.Patterns = append(rule.Patterns, re)
		}
		if len(rule.Triggers) == 0 && len(rule.Patterns) == 0 {
			log.Warn("dropping routing rule with no usable triggers or patterns",
				zap.String("tool", rc.Tool),
			)
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}
