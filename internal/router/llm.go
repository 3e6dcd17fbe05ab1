package router

import (
	"context"
	"fmt"
	"strings"

	"aura/internal/config"
	"aura/internal/tool"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// llmConfidence is assigned when the model, not the rules, picked the
// tool. High enough to clear the default threshold, below the rule cap.
const llmConfidence = 0.75

// LLMResolver wraps a rule resolver with an optional model-backed second
// opinion: when the rules land below the low-confidence threshold, it
// asks a chat model to pick a tool name from the catalog. The model's
// answer is only trusted when it names a known tool; anything else falls
// back to the rule resolution.
type LLMResolver struct {
	rules     *Resolver
	registry  *tool.Registry
	client    *openai.Client
	model     string
	threshold float64
	log       *zap.Logger
}

// NewLLM builds the wrapper. If baseURL is set it targets an
// OpenAI-compatible endpoint.
func NewLLM(rules *Resolver, registry *tool.Registry, cfg config.LLMConfig, threshold float64, log *zap.Logger) *LLMResolver {
	var client *openai.Client
	if cfg.BaseURL != "" {
		c := openai.DefaultConfig(cfg.APIKey)
		c.BaseURL = cfg.BaseURL
		client = openai.NewClientWithConfig(c)
	} else {
		client = openai.NewClient(cfg.APIKey)
	}
	return &LLMResolver{
		rules:     rules,
		registry:  registry,
		client:    client,
		model:     cfg.Model,
		threshold: threshold,
		log:       log,
	}
}

// Resolve runs the rule resolver first and consults the model only for
// below-threshold results. Model failures never surface; the rule
// resolution is always a valid answer.
func (r *LLMResolver) Resolve(ctx context.Context, text string) Resolution {
	res := r.rules.Resolve(text)
	if res.Confidence >= r.threshold {
		return res
	}

	name, err := r.askModel(ctx, text)
	if err != nil {
		r.log.Warn("llm fallback routing failed", zap.Error(err))
		return res
	}
	if name == "none" {
		return res
	}

	def, err := r.registry.Lookup(tool.Name(name))
	if err != nil {
		r.log.Warn("llm fallback named unknown tool", zap.String("answer", name))
		return res
	}

	return Resolution{
		Tool:         def.Name,
		Confidence:   llmConfidence,
		Evidence:     []string{"llm:" + name},
		Alternatives: res.Alternatives,
	}
}

func (r *LLMResolver) askModel(ctx context.Context, text string) (string, error) {
	var b strings.Builder
	b.WriteString("You route desktop assistant commands to tools. Reply with exactly one tool name from this list, or the word none:\n")
	for _, def := range r.registry.All() {
		fmt.Fprintf(&b, "- %s: %s\n", def.Name, def.Description)
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.String()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		MaxTokens:   16,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
