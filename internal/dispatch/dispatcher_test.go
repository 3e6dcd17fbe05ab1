package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aura/internal/config"
	"aura/internal/tool"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// fakeBackend simulates the capability backend's uniform response shape.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()

	r.Post("/api/create-file", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, `{"detail":"bad body"}`, http.StatusBadRequest)
			return
		}
		if body["title"] == "exists.txt" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{"detail": "File already exists"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "File created successfully",
			"data":    map[string]any{"path": "/home/demo/" + body["title"].(string)},
		})
	})

	r.Post("/api/analyze-sheet", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"detail": "Spreadsheet not found"})
	})

	r.Post("/api/update-sheet", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"detail": "Unsupported operation"})
	})

	r.Post("/api/summarize-doc", func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(1500 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "too late"})
	})

	r.Post("/api/extract-data", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"detail": "OCR engine crashed"})
	})

	r.Post("/api/generate-report", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("this is not json"))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newDispatcher(t *testing.T, baseURL string) *Dispatcher {
	t.Helper()
	cfg := config.Default().Backend
	cfg.BaseURL = baseURL
	// Short ceiling so the timeout test stays fast; documents share it.
	cfg.DocumentTimeoutSec = 1
	return New(cfg, zap.NewNop())
}

func def(t *testing.T, name tool.Name) *tool.Definition {
	t.Helper()
	d, err := tool.Default().Lookup(name)
	if err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	return d
}

func TestExecute_Success(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	var events []Event
	result := d.Execute(context.Background(), def(t, tool.CreateFile),
		map[string]any{"title": "notes.txt"},
		func(ev Event) { events = append(events, ev) })

	if !result.Success {
		t.Fatalf("expected success, got %s: %s", result.ErrorCode, result.Error)
	}
	if result.Message != "File created successfully" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if result.Data["path"] != "/home/demo/notes.txt" {
		t.Errorf("unexpected data %v", result.Data)
	}
	if result.Tool != tool.CreateFile {
		t.Errorf("expected tool echoed, got %s", result.Tool)
	}

	assertMonotonic(t, events, PhaseComplete)
}

func TestExecute_NotFound(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	result := d.Execute(context.Background(), def(t, tool.AnalyzeSheet),
		map[string]any{"path": "ghost.xlsx", "op": "sum", "column": "A"}, nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ErrorCode != CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", result.ErrorCode)
	}
	if result.Error != "Spreadsheet not found" {
		t.Errorf("expected backend detail, got %q", result.Error)
	}
	if len(result.Suggestions) == 0 {
		t.Error("expected remediation suggestions")
	}
}

func TestExecute_Conflict(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	result := d.Execute(context.Background(), def(t, tool.CreateFile),
		map[string]any{"title": "exists.txt"}, nil)

	if result.ErrorCode != CodeAlreadyExists {
		t.Errorf("expected ALREADY_EXISTS, got %s", result.ErrorCode)
	}
}

func TestExecute_Rejected(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	result := d.Execute(context.Background(), def(t, tool.UpdateSheet),
		map[string]any{"path": "p.csv", "operation": "salary_increase"}, nil)

	if result.ErrorCode != CodeRejected {
		t.Errorf("expected REJECTED, got %s", result.ErrorCode)
	}
}

func TestExecute_Timeout(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	var events []Event
	result := d.Execute(context.Background(), def(t, tool.SummarizeDoc),
		map[string]any{"path": "big.pdf", "length": "short"},
		func(ev Event) { events = append(events, ev) })

	if result.ErrorCode != CodeUnreachable {
		t.Errorf("expected UNREACHABLE for timeout, got %s", result.ErrorCode)
	}
	assertMonotonic(t, events, PhaseError)
}

func TestExecute_UnclassifiedBackendFailure(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	result := d.Execute(context.Background(), def(t, tool.ExtractData),
		map[string]any{"file_path": "a.pdf"}, nil)

	if result.ErrorCode != CodeBackendError {
		t.Errorf("expected BACKEND_ERROR for 500, got %s", result.ErrorCode)
	}
	if result.Error != "OCR engine crashed" {
		t.Errorf("expected backend detail, got %q", result.Error)
	}
}

func TestExecute_MalformedBackendBody(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	result := d.Execute(context.Background(), def(t, tool.GenerateReport),
		map[string]any{"report_type": "sales", "data_sources": []string{"a.csv"}}, nil)

	if result.ErrorCode != CodeBackendError {
		t.Errorf("expected BACKEND_ERROR for malformed body, got %s", result.ErrorCode)
	}
}

func TestExecute_BackendDown(t *testing.T) {
	d := newDispatcher(t, "http://127.0.0.1:1") // nothing listens here

	result := d.Execute(context.Background(), def(t, tool.CreateFile),
		map[string]any{"title": "notes.txt"}, nil)

	if result.ErrorCode != CodeUnreachable {
		t.Errorf("expected UNREACHABLE, got %s", result.ErrorCode)
	}
}

func TestExecute_SeparateProgressStreams(t *testing.T) {
	srv := fakeBackend(t)
	d := newDispatcher(t, srv.URL)

	var first, second []Event
	d.Execute(context.Background(), def(t, tool.CreateFile),
		map[string]any{"title": "a.txt"}, func(ev Event) { first = append(first, ev) })
	d.Execute(context.Background(), def(t, tool.CreateFile),
		map[string]any{"title": "b.txt"}, func(ev Event) { second = append(second, ev) })

	if len(first) == 0 || len(second) == 0 {
		t.Fatal("expected events on both streams")
	}
	if len(first) != len(second) {
		t.Errorf("streams diverged: %d vs %d events", len(first), len(second))
	}
}

// assertMonotonic checks the progress contract: percent never decreases
// until the terminal phase, which is complete(100) or error(0).
func assertMonotonic(t *testing.T, events []Event, terminal Phase) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}

	last := events[len(events)-1]
	if last.Phase != terminal {
		t.Fatalf("expected terminal phase %s, got %s", terminal, last.Phase)
	}
	switch terminal {
	case PhaseComplete:
		if last.Percent != 100 {
			t.Errorf("complete event must report 100, got %d", last.Percent)
		}
	case PhaseError:
		if last.Percent != 0 {
			t.Errorf("error event must reset to 0, got %d", last.Percent)
		}
	}

	prev := -1
	for _, ev := range events {
		if ev.Phase == PhaseError {
			break
		}
		if ev.Percent < prev {
			t.Errorf("progress went backwards: %d after %d", ev.Percent, prev)
		}
		prev = ev.Percent
	}
	for i, ev := range events {
		if ev.Phase == PhaseComplete && i != len(events)-1 {
			t.Error("complete must be the terminal event")
		}
	}
}
