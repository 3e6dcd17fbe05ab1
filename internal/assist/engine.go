package assist

import (
	"context"
	"time"

	"aura/internal/config"
	"aura/internal/dispatch"
	"aura/internal/params"
	"aura/internal/router"
	"aura/internal/tool"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the single in-process entry point: raw text in, normalized
// result out. It owns the route → extract → validate → dispatch pipeline
// and is safe for concurrent use; requests share only the read-only
// catalogs.
type Engine struct {
	registry   *tool.Registry
	rules      *router.Resolver
	llm        *router.LLMResolver // nil unless configured
	dispatcher *dispatch.Dispatcher
	threshold  float64
	inflight   chan struct{} // bounds concurrent backend dispatches
	sessionID  string
	log        *zap.Logger
}

// RequestContext tags one request; created per call and discarded with
// it.
type RequestContext struct {
	RequestID string
	SessionID string
	Timestamp time.Time
	Text      string
}

// New wires the pipeline. The LLM fallback resolver is only attached
// when enabled in config.
func New(registry *tool.Registry, cfg *config.Config, log *zap.Logger) (*Engine, error) {
	rules, err := router.New(registry, cfg.Routing, log)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		registry:   registry,
		rules:      rules,
		dispatcher: dispatch.New(cfg.Backend, log),
		threshold:  cfg.Routing.LowConfidenceThreshold,
		inflight:   make(chan struct{}, cfg.Assist.MaxInflight),
		sessionID:  uuid.NewString(),
		log:        log,
	}
	if cfg.LLM.Enabled {
		e.llm = router.NewLLM(rules, registry, cfg.LLM, cfg.Routing.LowConfidenceThreshold, log)
	}
	return e, nil
}

// Registry exposes the catalog to protocol surfaces built on the engine.
func (e *Engine) Registry() *tool.Registry { return e.registry }

// Handle processes one utterance end to end. It never returns an error:
// every failure mode degrades to a structured result, and the engine
// stays ready for the next request.
func (e *Engine) Handle(ctx context.Context, text string, onProgress dispatch.ProgressFunc) *dispatch.Result {
	start := time.Now()
	reqCtx := RequestContext{
		RequestID: uuid.NewString(),
		SessionID: e.sessionID,
		Timestamp: start,
		Text:      text,
	}

	res := e.resolve(ctx, text)
	meta := dispatch.Metadata{
		Confidence:   res.Confidence,
		Evidence:     res.Evidence,
		Alternatives: res.Alternatives,
		RequestID:    reqCtx.RequestID,
		SessionID:    reqCtx.SessionID,
	}

	def, err := e.registry.Lookup(res.Tool)
	if err != nil {
		// The router only nominates registered tools; this is a wiring
		// bug, reported as a structured failure all the same.
		return e.finish(&dispatch.Result{
			Tool:      res.Tool,
			Error:     err.Error(),
			ErrorCode: dispatch.CodeBackendError,
		}, meta, start)
	}

	if res.Confidence < e.threshold {
		e.log.Info("request below confidence threshold",
			zap.String("request_id", reqCtx.RequestID),
			zap.Float64("confidence", res.Confidence),
		)
		return e.finish(&dispatch.Result{
			Tool:        def.Name,
			Error:       "I couldn't confidently match that request to a capability",
			ErrorCode:   dispatch.CodeLowConfidence,
			Suggestions: dispatch.Suggest(dispatch.CodeLowConfidence, def),
		}, meta, start)
	}

	raw := params.Extract(def, text)
	validated, report := params.Validate(def, raw)
	if !report.OK() {
		code := dispatch.CodeInvalidParameters
		if len(report.Missing) > 0 {
			code = dispatch.CodeMissingParameters
		}
		return e.finish(&dispatch.Result{
			Tool:        def.Name,
			Error:       report.Summary(),
			ErrorCode:   code,
			Data:        map[string]any{"validation": report},
			Suggestions: dispatch.SuggestValidation(def, report),
		}, meta, start)
	}

	select {
	case e.inflight <- struct{}{}:
	case <-ctx.Done():
		return e.finish(&dispatch.Result{
			Tool:      def.Name,
			Error:     "request cancelled while waiting for a dispatch slot",
			ErrorCode: dispatch.CodeUnreachable,
		}, meta, start)
	}
	result := e.dispatcher.Execute(ctx, def, validated, onProgress)
	<-e.inflight

	return e.finish(result, meta, start)
}

// Call runs validation and dispatch for an explicitly named tool,
// skipping intent routing. This is the path protocol callers use: they
// already know which tool they want. Unknown names are an error so the
// protocol layer can produce its own envelope for them.
func (e *Engine) Call(ctx context.Context, name tool.Name, arguments map[string]any, onProgress dispatch.ProgressFunc) (*dispatch.Result, error) {
	def, err := e.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	meta := dispatch.Metadata{
		Confidence: 1.0,
		Evidence:   []string{"direct"},
		RequestID:  uuid.NewString(),
		SessionID:  e.sessionID,
	}

	validated, report := params.Validate(def, arguments)
	if !report.OK() {
		code := dispatch.CodeInvalidParameters
		if len(report.Missing) > 0 {
			code = dispatch.CodeMissingParameters
		}
		return e.finish(&dispatch.Result{
			Tool:        def.Name,
			Error:       report.Summary(),
			ErrorCode:   code,
			Data:        map[string]any{"validation": report},
			Suggestions: dispatch.SuggestValidation(def, report),
		}, meta, start), nil
	}

	select {
	case e.inflight <- struct{}{}:
	case <-ctx.Done():
		return e.finish(&dispatch.Result{
			Tool:      def.Name,
			Error:     "request cancelled while waiting for a dispatch slot",
			ErrorCode: dispatch.CodeUnreachable,
		}, meta, start), nil
	}
	result := e.dispatcher.Execute(ctx, def, validated, onProgress)
	<-e.inflight

	return e.finish(result, meta, start), nil
}

func (e *Engine) resolve(ctx context.Context, text string) router.Resolution {
	if e.llm != nil {
		return e.llm.Resolve(ctx, text)
	}
	return e.rules.Resolve(text)
}

func (e *Engine) finish(r *dispatch.Result, meta dispatch.Metadata, start time.Time) *dispatch.Result {
	r.Metadata = meta
	if r.ExecutionTimeMs == 0 {
		r.ExecutionTimeMs = time.Since(start).Milliseconds()
	}
	return r
}
