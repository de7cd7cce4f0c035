package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"medtech_outlook_agent/dashboard"
	"medtech_outlook_agent/document"
	"medtech_outlook_agent/generator"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
	maxViewport    = 10000
)

type sessionCreateReq struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

type sessionResp struct {
	SessionID    string             `json:"session_id"`
	Document     string             `json:"document"`
	WordCount    int                `json:"word_count"`
	Keywords     []document.Keyword `json:"keywords"`
	Conversation []generator.Turn   `json:"conversation"`
	Model        generator.Model    `json:"model"`
	Busy         bool               `json:"busy"`
}

type documentReq struct {
	Content string `json:"content"`
}

type modelReq struct {
	Model string `json:"model"`
}

type chatReq struct {
	Message string `json:"message"`
}

type improveReq struct {
	Instruction string `json:"instruction"`
}

type magicInfo struct {
	ID          generator.Magic `json:"id"`
	Instruction string          `json:"instruction,omitempty"`
}

func viewOf(sess *generator.Session) sessionResp {
	text := sess.Doc.Text()
	return sessionResp{
		SessionID:    sess.ID,
		Document:     text,
		WordCount:    document.WordCount(text),
		Keywords:     sess.Keywords(),
		Conversation: sess.Conversation.View(),
		Model:        sess.Model(),
		Busy:         sess.Busy(),
	}
}

// decodeBody decodes an optional JSON body into v. An empty body is fine.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) aiContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
}

// --- Handlers ---

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, generator.Models())
}

func (s *Server) handleMagics(w http.ResponseWriter, _ *http.Request) {
	var out []magicInfo
	for _, m := range generator.Magics() {
		instr, _ := m.Instruction()
		out = append(out, magicInfo{ID: m, Instruction: instr})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionCreateReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var model generator.Model
	if req.Model != "" {
		m, err := generator.ParseModel(req.Model)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		model = m
	}
	sess := s.NewSession(req.Content, model)
	s.log.Info().Str("session", sess.ID).Str("model", string(sess.Model())).Msg("session created")
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, _ *http.Request, sess *generator.Session) {
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDocumentPut(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req documentReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.Doc.Set(req.Content)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDocumentUpload(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file: %v", err))
		return
	}
	defer f.Close()
	if err := sess.Doc.Import(f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDocumentDownload(w http.ResponseWriter, _ *http.Request, sess *generator.Session) {
	w.Header().Set("Content-Type", document.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.ExportFilename))
	if err := sess.Doc.Export(w); err != nil {
		s.log.Error().Err(err).Str("session", sess.ID).Msg("export failed")
	}
}

func (s *Server) handleDocumentPreview(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	text := sess.Doc.Text()
	var (
		html string
		err  error
	)
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "markdown":
		html, err = document.Preview(text)
	case "highlight":
		html = document.HighlightHTML(text, sess.Keywords())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown preview mode %q", mode))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleKeywordsGet(w http.ResponseWriter, _ *http.Request, sess *generator.Session) {
	writeJSON(w, http.StatusOK, sess.Keywords())
}

func (s *Server) handleKeywordsPut(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kws, err := decodeKeywords(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.SetKeywords(kws)
	writeJSON(w, http.StatusOK, sess.Keywords())
}

func (s *Server) handleModelPut(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req modelReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := generator.ParseModel(req.Model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.SetModel(m)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleMagic(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	ctx, cancel := s.aiContext(r)
	defer cancel()
	out, err := sess.RunMagic(ctx, r.PathValue("magic"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req improveReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.aiContext(r)
	defer cancel()
	out, err := sess.Improve(ctx, req.Instruction)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	width, err := floatParam(r, "width", dashboard.DefaultNetworkWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := floatParam(r, "height", dashboard.DefaultNetworkHeight)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Build(sess.Doc.Text(), width, height))
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v > maxViewport {
		return 0, fmt.Errorf("%s must be a number in (0, %d]", name, maxViewport)
	}
	return v, nil
}
