package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"medtech_outlook_agent/generator"
)

type chunkEvent struct {
	Text string `json:"text"`
}

type doneEvent struct {
	Turn         generator.Turn   `json:"turn"`
	Conversation []generator.Turn `json:"conversation"`
}

type errorEvent struct {
	Error string         `json:"error"`
	Turn  generator.Turn `json:"turn"`
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	encoded, _ := json.Marshal(v)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, encoded)
	flusher.Flush()
}

// handleChat streams the reply as SSE: a chunk event per fragment carrying the
// accumulated text, then done or error. Rejections that happen before any
// streaming (blank input, busy session) are plain JSON errors.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req chatReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, generator.ErrEmptyInput.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	ctx, cancel := s.aiContext(r)
	defer cancel()
	turn, err := sess.Chat(ctx, req.Message, func(text string) {
		start()
		sendSSE(w, flusher, "chunk", chunkEvent{Text: text})
	})
	if err != nil && !started && turn.ID == "" {
		writeError(w, statusFor(err), err.Error())
		return
	}
	start()
	if err != nil {
		sendSSE(w, flusher, "error", errorEvent{Error: err.Error(), Turn: turn})
		return
	}
	sendSSE(w, flusher, "done", doneEvent{Turn: turn, Conversation: sess.Conversation.Turns()})
}
