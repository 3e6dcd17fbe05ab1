package assist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"aura/internal/config"
	"aura/internal/dispatch"
	"aura/internal/tool"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newEngine(t *testing.T) (*Engine, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	r := chi.NewRouter()
	r.Post("/api/{endpoint}", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "done",
			"data":    map[string]any{"path": "/home/demo/notes.txt"},
		})
	})
	backend := httptest.NewServer(r)
	t.Cleanup(backend.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = backend.URL

	engine, err := New(tool.Default(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	return engine, &hits
}

func TestHandle_EndToEndSuccess(t *testing.T) {
	engine, hits := newEngine(t)

	var events []dispatch.Event
	result := engine.Handle(context.Background(), "create file called notes.txt",
		func(ev dispatch.Event) { events = append(events, ev) })

	if !result.Success {
		t.Fatalf("expected success, got %s: %s", result.ErrorCode, result.Error)
	}
	if result.Tool != tool.CreateFile {
		t.Errorf("expected create_file, got %s", result.Tool)
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly one backend call, got %d", hits.Load())
	}
	if result.Metadata.Confidence < 0.7 {
		t.Errorf("expected confident metadata, got %v", result.Metadata.Confidence)
	}
	if result.Metadata.RequestID == "" || result.Metadata.SessionID == "" {
		t.Error("expected request and session ids on the result")
	}
	if len(events) == 0 || events[len(events)-1].Phase != dispatch.PhaseComplete {
		t.Errorf("expected terminal complete event, got %v", events)
	}
}

func TestHandle_LowConfidenceSkipsBackend(t *testing.T) {
	engine, hits := newEngine(t)

	result := engine.Handle(context.Background(), "what is the weather like today", nil)

	if result.Success {
		t.Fatal("expected failure for unrelated text")
	}
	if result.ErrorCode != dispatch.CodeLowConfidence {
		t.Errorf("expected LOW_CONFIDENCE, got %s", result.ErrorCode)
	}
	if hits.Load() != 0 {
		t.Errorf("low-confidence request must not reach the backend, got %d calls", hits.Load())
	}
	if len(result.Suggestions) == 0 {
		t.Error("expected rephrase suggestions")
	}
}

func TestHandle_MissingParametersSkipsBackend(t *testing.T) {
	engine, hits := newEngine(t)

	// Routes confidently to analyze_sheet but names no spreadsheet.
	result := engine.Handle(context.Background(), "sum the Revenue column of the spreadsheet", nil)

	if result.ErrorCode != dispatch.CodeMissingParameters {
		t.Fatalf("expected MISSING_PARAMETERS, got %s: %s", result.ErrorCode, result.Error)
	}
	if hits.Load() != 0 {
		t.Errorf("invalid request must not reach the backend, got %d calls", hits.Load())
	}
	if result.Data["validation"] == nil {
		t.Error("expected the validation report attached to the result")
	}
}

func TestHandle_NeverReturnsNil(t *testing.T) {
	engine, _ := newEngine(t)

	for _, text := range []string{"", "   ", "open something"} {
		if result := engine.Handle(context.Background(), text, nil); result == nil {
			t.Errorf("Handle(%q) returned nil", text)
		}
	}
}

func TestHandle_SessionIDStableAcrossRequests(t *testing.T) {
	engine, _ := newEngine(t)

	first := engine.Handle(context.Background(), "create file called a.txt", nil)
	second := engine.Handle(context.Background(), "create file called b.txt", nil)

	if first.Metadata.SessionID != second.Metadata.SessionID {
		t.Error("expected one session id for the engine's lifetime")
	}
	if first.Metadata.RequestID == second.Metadata.RequestID {
		t.Error("expected distinct request ids")
	}
}

func TestCall_DirectInvocationBypassesRouting(t *testing.T) {
	engine, hits := newEngine(t)

	result, err := engine.Call(context.Background(), tool.CreateFile,
		map[string]any{"title": "notes.txt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %s", result.ErrorCode)
	}
	if result.Metadata.Confidence != 1.0 {
		t.Errorf("direct calls carry full confidence, got %v", result.Metadata.Confidence)
	}
	if len(result.Metadata.Evidence) != 1 || result.Metadata.Evidence[0] != "direct" {
		t.Errorf("expected direct evidence, got %v", result.Metadata.Evidence)
	}
	if hits.Load() != 1 {
		t.Errorf("expected one backend call, got %d", hits.Load())
	}
}

func TestCall_UnknownToolIsAnError(t *testing.T) {
	engine, _ := newEngine(t)

	if _, err := engine.Call(context.Background(), tool.Name("teleport"), nil, nil); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestCall_ValidationFailureIsAResult(t *testing.T) {
	engine, hits := newEngine(t)

	result, err := engine.Call(context.Background(), tool.AnalyzeSheet,
		map[string]any{"path": "sales.xlsx", "op": "median", "column": "Revenue"}, nil)
	if err != nil {
		t.Fatalf("validation failures must be results, not errors: %v", err)
	}
	if result.ErrorCode != dispatch.CodeInvalidParameters {
		t.Errorf("expected INVALID_PARAMETERS, got %s", result.ErrorCode)
	}
	if hits.Load() != 0 {
		t.Errorf("invalid call must not reach the backend, got %d calls", hits.Load())
	}
}
