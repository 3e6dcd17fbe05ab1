package proto

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"aura/internal/assist"
	"aura/internal/dispatch"
	"aura/internal/tool"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single inbound record.
const maxLineBytes = 1 << 20

// Server speaks the newline-delimited JSON protocol over a reader/writer
// pair (stdio in practice). Requests are handled concurrently and each
// accepted id gets exactly one response; a malformed line yields a parse
// error record and the read loop keeps going.
type Server struct {
	engine *assist.Engine
	log    *zap.Logger

	writeMu sync.Mutex
	out     *bufio.Writer

	progress *progressRegistry
}

// NewServer creates a protocol server over the engine.
func NewServer(engine *assist.Engine, w io.Writer, log *zap.Logger) *Server {
	return &Server{
		engine:   engine,
		log:      log,
		out:      bufio.NewWriter(w),
		progress: newProgressRegistry(),
	}
}

// Run reads records from r until EOF or context cancellation. It returns
// only after every in-flight request has produced its response.
func (s *Server) Run(ctx context.Context, r io.Reader) error {
	in := bufio.NewReaderSize(r, 64*1024)

	var wg sync.WaitGroup
	var readErr error
	for readErr == nil {
		if ctx.Err() != nil {
			break
		}

		var raw []byte
		var tooLong bool
		raw, tooLong, readErr = readLine(in)
		if tooLong {
			// The loop must survive bad input of any size: answer and
			// keep listening.
			s.write(Response{
				ID:    json.RawMessage("null"),
				Error: &Error{Code: CodeParseError, Message: fmt.Sprintf("parse error: line exceeds %d bytes", maxLineBytes)},
			})
			continue
		}
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.write(Response{
				ID:    json.RawMessage("null"),
				Error: &Error{Code: CodeParseError, Message: fmt.Sprintf("parse error: %v", err)},
			})
			continue
		}
		if len(req.ID) == 0 {
			s.write(Response{
				ID:    json.RawMessage("null"),
				Error: &Error{Code: CodeInvalidRequest, Message: "request is missing an id"},
			})
			continue
		}

		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			s.write(s.handle(ctx, req))
		}(req)
	}

	wg.Wait()
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return fmt.Errorf("protocol read loop: %w", readErr)
	}
	return nil
}

// readLine accumulates one line. A line over maxLineBytes is consumed to
// its end and reported via tooLong instead of being returned, so one
// oversize record never takes down the loop. A final unterminated line
// comes back alongside io.EOF.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	var tooLong bool
	for {
		part, isPrefix, err := r.ReadLine()
		if len(part) > 0 {
			if len(line)+len(part) > maxLineBytes {
				tooLong = true
				line = nil
			}
			if !tooLong {
				line = append(line, part...)
			}
		}
		if err != nil {
			return line, tooLong, err
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

// handle produces exactly one response for one accepted request.
func (s *Server) handle(ctx context.Context, req Request) Response {
	switch req.Method {
	case "initialize":
		return Response{ID: req.ID, Result: s.initializeResult()}
	case "ping":
		return Response{ID: req.ID, Result: map[string]any{"status": "ok"}}
	case "tools/list":
		return Response{ID: req.ID, Result: s.listResult()}
	case "tools/call":
		return s.handleCall(ctx, req)
	default:
		return Response{
			ID:    req.ID,
			Error: &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)},
		}
	}
}

func (s *Server) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{"listChanged": false}},
		"serverInfo": map[string]any{
			"name":    "aura-command-core",
			"version": "1.0.0",
		},
		"toolCount": len(s.engine.Registry().All()),
	}
}

func (s *Server) listResult() map[string]any {
	defs := s.engine.Registry().All()
	tools := make([]toolInfo, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, toolInfo{
			Name:        string(def.Name),
			Description: def.Description,
			InputSchema: tool.Schema(def),
		})
	}
	return map[string]any{"tools": tools}
}

func (s *Server) handleCall(ctx context.Context, req Request) Response {
	id := string(req.ID)

	// The callback entry must be gone on every exit path, including the
	// ones below that never reach the dispatcher.
	s.progress.put(id, func(ev dispatch.Event) {
		s.writeNotification(req.ID, ev)
	})
	defer s.progress.remove(id)

	var p callParams
	if len(req.Params) == 0 {
		return Response{
			ID:    req.ID,
			Error: &Error{Code: CodeInvalidParams, Message: "tools/call requires params"},
		}
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return Response{
			ID:    req.ID,
			Error: &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid tools/call params: %v", err)},
		}
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	result, err := s.engine.Call(ctx, tool.Name(p.Name), p.Arguments, s.progress.fn(id))
	if err != nil {
		return Response{
			ID:    req.ID,
			Error: &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", p.Name)},
		}
	}

	return Response{ID: req.ID, Result: renderCall(result)}
}

// renderCall reformats the normalized result as a text content block
// plus the structured payload and an isError flag.
func renderCall(r *dispatch.Result) callResult {
	text := "✅ " + r.Message
	if !r.Success {
		text = "❌ " + r.Error
		if len(r.Suggestions) > 0 {
			text += "\n" + r.Suggestions[0].Message
		}
	}
	return callResult{
		Content:           []contentBlock{{Type: "text", Text: text}},
		StructuredContent: r,
		IsError:           !r.Success,
	}
}

func (s *Server) write(resp Response) {
	raw, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.out.Write(raw)
	s.out.WriteByte('\n')
	if err := s.out.Flush(); err != nil {
		s.log.Warn("failed to flush response", zap.Error(err))
	}
}

// writeNotification emits a progress record. Notifications carry no id
// of their own; they reference the originating request.
func (s *Server) writeNotification(requestID json.RawMessage, ev dispatch.Event) {
	record := map[string]any{
		"method": "notifications/progress",
		"params": map[string]any{
			"requestId":       requestID,
			"phase":           ev.Phase,
			"progressPercent": ev.Percent,
			"message":         ev.Message,
		},
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.out.Write(raw)
	s.out.WriteByte('\n')
	s.out.Flush()
}
