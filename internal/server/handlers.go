package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/generation"
	"github.com/moasq/toolfactory/internal/install"
	"github.com/moasq/toolfactory/internal/parser"
	"github.com/moasq/toolfactory/internal/storage"
	"github.com/moasq/toolfactory/internal/tool"
	"github.com/moasq/toolfactory/internal/verify"
)

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return data, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// handleGenerate relays model output as it arrives. Failures before the
// first byte become a JSON error; later ones abort the response so the
// client sees a truncated stream.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generation.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rc := http.NewResponseController(w)
	started := false
	start := func() {
		h := w.Header()
		h.Set("Content-Type", "text/plain; charset=utf-8")
		h.Set("Cache-Control", "no-cache")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	err := s.gen.Stream(r.Context(), req, func(chunk string) {
		if !started {
			start()
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return
		}
		_ = rc.Flush()
	})
	switch {
	case err == nil:
		if !started {
			start()
		}
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		s.logger.Debug("client went away during generation", zap.String("kind", string(req.ToolType)))
	case !started:
		status := http.StatusBadGateway
		if errors.Is(err, generation.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("generation failed", zap.String("kind", string(req.ToolType)), zap.Error(err))
		writeError(w, status, generationMessage(err))
	default:
		s.logger.Warn("generation interrupted", zap.String("kind", string(req.ToolType)), zap.Error(err))
		panic(http.ErrAbortHandler)
	}
}

func generationMessage(err error) string {
	var ge *generation.Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return err.Error()
}

type saveResponse struct {
	ToolID string `json:"toolId"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := tool.Unmarshal(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q := verify.QuickValidate(t); !q.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "tool failed format validation", Issues: q.Issues})
		return
	}

	id, err := s.store.Save(r.Context(), t)
	switch {
	case errors.Is(err, storage.ErrDuplicateSlug):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.logger.Error("save failed", zap.String("slug", t.Common().Slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save tool")
	default:
		writeJSON(w, http.StatusOK, saveResponse{ToolID: id})
	}
}

// documentRequest carries a raw generated document. ToolType is detected
// from the frontmatter when empty.
type documentRequest struct {
	ToolType tool.Kind `json:"toolType,omitempty"`
	Content  string    `json:"content"`
	Quick    bool      `json:"quick,omitempty"`
}

type verifyResponse struct {
	ToolType tool.Kind `json:"toolType"`
	verify.Result
	Fixes []verify.Fix `json:"fixes"`
}

func (s *Server) parseDocument(w http.ResponseWriter, r *http.Request) (tool.Tool, documentRequest, bool) {
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, req, false
	}
	if req.ToolType != "" {
		if _, err := tool.ParseKind(string(req.ToolType)); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, req, false
		}
	}
	t, err := parser.ParseDetect(req.ToolType, req.Content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, req, false
	}
	return t, req, true
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	t, _, ok := s.parseDocument(w, r)
	if !ok {
		return
	}
	res := s.verifier.Verify(r.Context(), t)
	fixes := verify.AutoFix(t)
	if fixes == nil {
		fixes = []verify.Fix{}
	}
	writeJSON(w, http.StatusOK, verifyResponse{ToolType: t.Kind(), Result: res, Fixes: fixes})
}

type installResponse struct {
	Instructions string `json:"instructions"`
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	t, req, ok := s.parseDocument(w, r)
	if !ok {
		return
	}
	render := install.Instructions
	if req.Quick {
		render = install.QuickInstall
	}
	text, err := render(t)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, installResponse{Instructions: text})
}

type storedTool struct {
	storage.Record
	Tool json.RawMessage `json:"tool"`
}

func recordJSON(rec *storage.Record) (storedTool, error) {
	data, err := tool.Marshal(rec.Tool)
	if err != nil {
		return storedTool{}, err
	}
	return storedTool{Record: *rec, Tool: data}, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tool not found")
		return
	}
	if err != nil {
		s.logger.Error("get failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load tool")
		return
	}
	out, err := recordJSON(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list tools")
		return
	}
	out := make([]storage.Record, 0, len(recs))
	out = append(out, recs...)
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}
