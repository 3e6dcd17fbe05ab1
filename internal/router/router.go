package router

import (
	"fmt"
	"sort"
	"strings"

	"aura/internal/config"
	"aura/internal/tool"

	"go.uber.org/zap"
)

// Resolution is the router's answer for one input: the nominated tool,
// how strongly it matched, which rules fired, and which other tools also
// matched (for "did you mean" metadata).
type Resolution struct {
	Tool         tool.Name
	Confidence   float64
	Evidence     []string
	Alternatives []tool.Name
}

// Resolver maps free-form text to a tool using the prioritized rule set.
// It never fails: when nothing matches it nominates the fallback tool at
// a fixed low confidence so the caller can produce a structured
// low-confidence error instead of a hard failure.
type Resolver struct {
	registry *tool.Registry
	rules    []Rule
	cap      float64
	fallback float64
	log      *zap.Logger
}

// candidate is a transient per-request record of one rule that hit.
type candidate struct {
	rule     int // index into r.rules, doubles as registration order
	evidence []string
}

// New builds a resolver over the built-in rules plus any extras from
// config. Extras are appended after the built-ins so a priority tie goes
// to the built-in rule.
func New(registry *tool.Registry, cfg config.RoutingConfig, log *zap.Logger) (*Resolver, error) {
	rules := append(builtinRules(), rulesFromConfig(cfg.ExtraRules, log)...)
	for _, rule := range rules {
		if _, err := registry.Lookup(rule.Tool); err != nil {
			return nil, fmt.Errorf("routing rule references unknown tool %s", rule.Tool)
		}
	}
	return &Resolver{
		registry: registry,
		rules:    rules,
		cap:      cfg.ConfidenceCap,
		fallback: cfg.FallbackConfidence,
		log:      log,
	}, nil
}

// Resolve scores every rule against text and returns the best match.
// Empty or unmatched input resolves to the fallback tool.
func (r *Resolver) Resolve(text string) Resolution {
	lower := strings.ToLower(text)

	var hits []candidate
	for i, rule := range r.rules {
		var evidence []string
		for _, trigger := range rule.Triggers {
			if strings.Contains(lower, strings.ToLower(trigger)) {
				evidence = append(evidence, "trigger:"+trigger)
			}
		}
		for _, re := range rule.Patterns {
			if re.MatchString(text) {
				evidence = append(evidence, "pattern:"+re.String())
			}
		}
		if len(evidence) > 0 {
			hits = append(hits, candidate{rule: i, evidence: evidence})
		}
	}

	if len(hits) == 0 {
		r.log.Debug("no routing rule matched, using fallback",
			zap.String("tool", string(tool.Fallback)),
		)
		return Resolution{
			Tool:       tool.Fallback,
			Confidence: r.fallback,
			Evidence:   []string{"fallback"},
		}
	}

	// Stable sort keeps registration order among equal priorities, which
	// is the documented tie-break.
	sort.SliceStable(hits, func(a, b int) bool {
		return r.rules[hits[a].rule].Priority > r.rules[hits[b].rule].Priority
	})

	winner := hits[0]
	winnerRule := r.rules[winner.rule]
	confidence := float64(winnerRule.Priority)/100 + 0.1*float64(len(winner.evidence))
	if confidence > r.cap {
		confidence = r.cap
	}

	var alternatives []tool.Name
	seen := map[tool.Name]bool{winnerRule.Tool: true}
	for _, h := range hits[1:] {
		t := r.rules[h.rule].Tool
		if !seen[t] {
			seen[t] = true
			alternatives = append(alternatives, t)
		}
	}

	r.log.Debug("routed input",
		zap.String("tool", string(winnerRule.Tool)),
		zap.Float64("confidence", confidence),
		zap.Int("candidates", len(hits)),
	)

	return Resolution{
		Tool:         winnerRule.Tool,
		Confidence:   confidence,
		Evidence:     winner.evidence,
		Alternatives: alternatives,
	}
}
