package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtech_outlook_agent/document"
	"medtech_outlook_agent/generator"
)

func newTestServer(t *testing.T, llm generator.LLMClient) *Server {
	t.Helper()
	agent, err := generator.NewAgent(llm, "", zerolog.Nop())
	require.NoError(t, err)
	srv, err := New(agent, Options{RequestTimeout: 5 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler, body string) sessionResp {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestCreateAndGetSession(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()

	view := createSession(t, h, "")
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, document.Default().Text(), view.Document)
	assert.Equal(t, generator.DefaultModel, view.Model)
	assert.Empty(t, view.Conversation)
	assert.NotNil(t, view.Keywords)

	custom := createSession(t, h, `{"content":"two words","model":"gpt-4o"}`)
	assert.Equal(t, "two words", custom.Document)
	assert.Equal(t, 2, custom.WordCount)
	assert.Equal(t, generator.ModelGPT4o, custom.Model)

	rec := do(t, h, http.MethodGet, "/api/sessions/"+custom.SessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, custom.SessionID, got.SessionID)
}

func TestCreateSessionRejectsUnknownModel(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	rec := do(t, h, http.MethodPost, "/api/sessions", `{"model":"gpt-2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	rec := do(t, h, http.MethodGet, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentEditAndDownload(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, "").SessionID

	rec := do(t, h, http.MethodPut, "/api/sessions/"+id+"/document", `{"content":"# Draft\n\nEU MDR"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/document/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, document.ExportContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), document.ExportFilename)
	assert.Equal(t, "# Draft\n\nEU MDR", rec.Body.String())
}

func TestDocumentUpload(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, "").SessionID

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("uploaded outlook"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/document/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "uploaded outlook", view.Document)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/document/upload", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentPreview(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, `{"content":"# Outlook\n\nThe AI Act"}`).SessionID

	rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/document/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Outlook</h1>")

	// no keywords yet: highlight view is escaped paragraphs without spans
	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/document/preview?mode=highlight", "")
	assert.Equal(t, `<div class="whitespace-pre-wrap"><p class="mb-2"># Outlook</p><p class="mb-2"></p><p class="mb-2">The AI Act</p></div>`, rec.Body.String())

	do(t, h, http.MethodPut, "/api/sessions/"+id+"/keywords", `[{"word":"AI Act","color":"#2563eb"}]`)
	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/document/preview?mode=highlight", "")
	assert.Contains(t, rec.Body.String(), "background-color:#2563eb")

	rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/document/preview?mode=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHighlightPreviewEscapesDocumentMarkup(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, `{"content":"<img src=x onerror=alert(1)>"}`).SessionID
	path := "/api/sessions/" + id + "/document/preview?mode=highlight"

	rec := do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<img")
	assert.Contains(t, rec.Body.String(), "&lt;img src=x onerror=alert(1)&gt;")

	do(t, h, http.MethodPut, "/api/sessions/"+id+"/keywords", `[{"word":"img","color":"#2563eb"}]`)
	rec = do(t, h, http.MethodGet, path, "")
	assert.NotContains(t, rec.Body.String(), "<img")
	assert.Contains(t, rec.Body.String(), "onerror=alert(1)&gt;")
}

func TestKeywordsPutValidation(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, "").SessionID
	path := "/api/sessions/" + id + "/keywords"

	tests := []struct {
		name string
		body string
		code int
	}{
		{"valid", `[{"word":"MDR","color":"#2563eb"},{"word":"PFAS","color":"#0f0"}]`, http.StatusOK},
		{"empty set", `[]`, http.StatusOK},
		{"missing color", `[{"word":"MDR"}]`, http.StatusBadRequest},
		{"empty word", `[{"word":"","color":"#fff"}]`, http.StatusBadRequest},
		{"bad color", `[{"word":"MDR","color":"red"}]`, http.StatusBadRequest},
		{"not an array", `{"word":"MDR","color":"#fff"}`, http.StatusBadRequest},
		{"not json", `MDR`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, path, tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestModelSelection(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, "").SessionID

	rec := do(t, h, http.MethodPut, "/api/sessions/"+id+"/model", `{"model":"gemini-3-pro-preview"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, generator.ModelGemini3Pro, view.Model)

	rec = do(t, h, http.MethodPut, "/api/sessions/"+id+"/model", `{"model":"gemini-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListings(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()

	rec := do(t, h, http.MethodGet, "/api/models", "")
	var models []generator.ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Len(t, models, len(generator.Models()))

	rec = do(t, h, http.MethodGet, "/api/magics", "")
	var magics []magicInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &magics))
	require.Len(t, magics, len(generator.Magics()))
	assert.Equal(t, generator.MagicKeywords, magics[0].ID)
	assert.Empty(t, magics[0].Instruction)
}

func TestMagicEndpoints(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, "").SessionID

	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/magics/keywords", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out generator.MagicOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Keywords)
	assert.Empty(t, out.Turns)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/magics/summarize", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Turns []generator.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.Turns, 2)
	assert.Equal(t, "Magic: summarize", summary.Turns[0].Text)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/magics/poem", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+id, "")
	var view sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Conversation, 2)
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(body string) []sseEvent {
	var out []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			if v, ok := strings.CutPrefix(line, "event: "); ok {
				ev.name = v
			}
			if v, ok := strings.CutPrefix(line, "data: "); ok {
				ev.data = v
			}
		}
		out = append(out, ev)
	}
	return out
}

func TestChatStreamsAccumulatedText(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{Fragments: []string{"The ", "QMSR ", "applies."}}).Routes()
	id := createSession(t, h, "").SessionID

	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"What changes in 2026?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(rec.Body.String())
	require.Len(t, events, 4)
	var texts []string
	for _, ev := range events[:3] {
		require.Equal(t, "chunk", ev.name)
		var c chunkEvent
		require.NoError(t, json.Unmarshal([]byte(ev.data), &c))
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"The ", "The QMSR ", "The QMSR applies."}, texts)

	require.Equal(t, "done", events[3].name)
	var done doneEvent
	require.NoError(t, json.Unmarshal([]byte(events[3].data), &done))
	assert.Equal(t, "The QMSR applies.", done.Turn.Text)
	require.Len(t, done.Conversation, 2)
	assert.Equal(t, generator.RoleUser, done.Conversation[0].Role)
}

func TestChatFailureEmitsErrorTurn(t *testing.T) {
	llm := &generator.MockLLM{Fragments: []string{"partial", "never"}, StreamErr: errors.New("503"), FailAfter: 1}
	srv := newTestServer(t, llm)
	h := srv.Routes()
	id := createSession(t, h, "").SessionID

	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	events := parseSSE(rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "chunk", events[0].name)
	require.Equal(t, "error", events[1].name)

	var ev errorEvent
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &ev))
	assert.Equal(t, "Error connecting to AI Agent.", ev.Turn.Text)

	sess, _ := srv.store.get(id)
	assert.Equal(t, 2, sess.Conversation.Len())
}

func TestChatRejectsBlankInput(t *testing.T) {
	srv := newTestServer(t, &generator.MockLLM{})
	h := srv.Routes()
	id := createSession(t, h, "").SessionID

	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"  \n"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	sess, _ := srv.store.get(id)
	assert.Zero(t, sess.Conversation.Len())
}

type gateLLM struct {
	release chan struct{}
}

func (g *gateLLM) Complete(ctx context.Context, _ generator.Prompt) (string, error) {
	<-g.release
	return "ok", nil
}

func (g *gateLLM) Stream(ctx context.Context, _ generator.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		<-g.release
		yield("ok", nil)
	}
}

func TestBusySessionReturnsConflict(t *testing.T) {
	gate := &gateLLM{release: make(chan struct{})}
	srv := newTestServer(t, gate)
	h := srv.Routes()
	id := createSession(t, h, "").SessionID
	sess, _ := srv.store.get(id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sess.Chat(context.Background(), "first", nil)
	}()
	require.Eventually(t, sess.Busy, time.Second, 5*time.Millisecond)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/sessions/"+id+"/magics/summarize", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"second"}`).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/sessions/"+id+"/improve", "").Code)

	close(gate.release)
	<-done
	assert.Equal(t, 2, sess.Conversation.Len())
}

func TestImproveEndpoint(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{Reply: "Polished outlook."}).Routes()
	id := createSession(t, h, `{"content":"rough outlook"}`).SessionID

	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/improve", `{"instruction":"Tighten"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Result struct {
			OK bool `json:"ok"`
		} `json:"result"`
		Document string           `json:"document"`
		Turns    []generator.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Result.OK)
	assert.Equal(t, "Polished outlook.", resp.Document)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, "Improve Article: Tighten", resp.Turns[0].Text)

	// a later chat does not change what the improve call reported
	do(t, h, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"thanks"}`)
	rec = do(t, h, http.MethodGet, "/api/sessions/"+id, "")
	var view sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Conversation, 4)
	assert.Equal(t, view.Conversation[0].ID, resp.Turns[0].ID)
	assert.Equal(t, view.Conversation[1].ID, resp.Turns[1].ID)
}

func TestDashboardEndpoint(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	id := createSession(t, h, "").SessionID

	rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/dashboard?width=640&height=480", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var d struct {
		Stats struct {
			Parts []string `json:"parts"`
		} `json:"stats"`
		Network struct {
			Width float64 `json:"width"`
			Nodes []any   `json:"nodes"`
		} `json:"network"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Len(t, d.Stats.Parts, 5)
	assert.Equal(t, 640.0, d.Network.Width)
	assert.Len(t, d.Network.Nodes, 7)

	for _, q := range []string{"width=wide", "width=NaN", "width=Inf", "height=-Inf", "width=0", "height=1e9"} {
		rec = do(t, h, http.MethodGet, "/api/sessions/"+id+"/dashboard?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestIndexPage(t *testing.T) {
	h := newTestServer(t, &generator.MockLLM{}).Routes()
	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Regulatory Outlook")
}
