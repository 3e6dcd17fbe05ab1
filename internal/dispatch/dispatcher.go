package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"aura/internal/config"
	"aura/internal/tool"

	"go.uber.org/zap"
)

// Dispatcher invokes the backend capability for a resolved tool, emits
// phased progress events, and maps every backend outcome onto the
// normalized Result. It holds no per-request state; a single instance
// serves concurrent requests.
type Dispatcher struct {
	client  *http.Client
	baseURL string
	cfg     config.BackendConfig
	log     *zap.Logger
}

// backendResponse is the uniform shape every capability endpoint
// returns.
type backendResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// backendError is the shape of a non-2xx body; the backend reports
// either detail or error.
type backendError struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func New(cfg config.BackendConfig, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		// Per-call deadlines come from the category ceiling, not the
		// client, so one dispatcher serves all categories.
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		cfg:     cfg,
		log:     log,
	}
}

// Timeout returns the ceiling for a tool category.
func (d *Dispatcher) Timeout(cat tool.Category) time.Duration {
	switch cat {
	case tool.CategorySheet:
		return d.cfg.SheetTimeout()
	case tool.CategoryDocument:
		return d.cfg.DocumentTimeout()
	default:
		return d.cfg.QuickTimeout()
	}
}

// Execute posts the validated parameters to the tool's endpoint and
// normalizes the outcome. It never returns an error: every failure is a
// classified Result. onProgress may be nil.
func (d *Dispatcher) Execute(ctx context.Context, def *tool.Definition, parameters map[string]any, onProgress ProgressFunc) *Result {
	start := time.Now()
	emit(onProgress, PhaseStarting, 0, fmt.Sprintf("Starting %s", def.Name))

	result := d.call(ctx, def, parameters, onProgress)
	result.Tool = def.Name
	result.ExecutionTimeMs = time.Since(start).Milliseconds()

	if result.Success {
		emit(onProgress, PhaseComplete, 100, result.Message)
		d.log.Debug("dispatch complete",
			zap.String("tool", string(def.Name)),
			zap.Int64("elapsed_ms", result.ExecutionTimeMs),
		)
	} else {
		// Progress resets to zero on failure to signal abandonment.
		emit(onProgress, PhaseError, 0, result.Error)
		d.log.Debug("dispatch failed",
			zap.String("tool", string(def.Name)),
			zap.String("code", string(result.ErrorCode)),
			zap.String("error", result.Error),
		)
	}
	return result
}

func (d *Dispatcher) call(ctx context.Context, def *tool.Definition, parameters map[string]any, onProgress ProgressFunc) *Result {
	body, err := json.Marshal(parameters)
	if err != nil {
		return d.failure(def, CodeBackendError, fmt.Sprintf("failed to encode parameters: %v", err))
	}

	ceiling := d.Timeout(def.Category)
	ctx, cancel := context.WithTimeout(ctx, ceiling)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+def.Endpoint, bytes.NewReader(body))
	if err != nil {
		return d.failure(def, CodeBackendError, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	emit(onProgress, PhaseProcessing, 40, fmt.Sprintf("Contacting backend for %s", def.Name))

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return d.failure(def, CodeUnreachable,
				fmt.Sprintf("%s timed out after %s", def.Name, ceiling))
		}
		return d.failure(def, CodeUnreachable,
			fmt.Sprintf("cannot reach backend at %s: %v", d.baseURL, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return d.failure(def, CodeUnreachable, fmt.Sprintf("failed reading backend response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return d.failure(def, classifyStatus(resp.StatusCode), errorDetail(raw, resp.StatusCode))
	}

	var decoded backendResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return d.failure(def, CodeBackendError, fmt.Sprintf("backend returned malformed JSON: %v", err))
	}
	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = decoded.Message
		}
		return d.failure(def, CodeBackendError, msg)
	}

	return &Result{
		Success: true,
		Message: decoded.Message,
		Data:    decoded.Data,
	}
}

func (d *Dispatcher) failure(def *tool.Definition, code ErrorCode, message string) *Result {
	return &Result{
		Success:     false,
		Error:       message,
		ErrorCode:   code,
		Suggestions: Suggest(code, def),
	}
}

// classifyStatus maps a backend HTTP status onto the error taxonomy.
// 404, 409, and 400 carry specific meaning; everything else is a generic
// backend failure.
func classifyStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeAlreadyExists
	case http.StatusBadRequest:
		return CodeRejected
	default:
		return CodeBackendError
	}
}

func errorDetail(raw []byte, status int) string {
	var be backendError
	if err := json.Unmarshal(raw, &be); err == nil {
		if be.Detail != "" {
			return be.Detail
		}
		if be.Error != "" {
			return be.Error
		}
	}
	return fmt.Sprintf("backend returned HTTP %d", status)
}
