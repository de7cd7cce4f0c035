package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"medtech_outlook_agent/document"
)

var (
	// ErrBusy is returned when a dispatch is attempted while another one is
	// still running on the same session. The session state is left untouched.
	ErrBusy       = errors.New("session is busy with another request")
	ErrEmptyInput = errors.New("empty input")
)

const (
	chatErrorText   = "Error connecting to AI Agent."
	improveAckText  = "I have updated the article in the editor based on your request."
	improveFallback = "General improvement"
)

// Session 持有一篇文档的编辑上下文：正文、关键词、对话和所选模型。
type Session struct {
	ID           string
	Doc          *document.Document
	Conversation *Conversation

	agent *Agent
	log   zerolog.Logger
	busy  atomic.Bool

	mu       sync.RWMutex
	keywords []document.Keyword
	model    Model
}

// NewSession 创建 session，对话为空。
func NewSession(id string, doc *document.Document, agent *Agent, logger zerolog.Logger) *Session {
	return &Session{
		ID:           id,
		Doc:          doc,
		Conversation: NewConversation(),
		agent:        agent,
		log:          logger.With().Str("component", "session").Str("session", id).Logger(),
		keywords:     []document.Keyword{},
		model:        DefaultModel,
	}
}

func (s *Session) Model() Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *Session) SetModel(m Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

// Keywords returns the current keyword set.
func (s *Session) Keywords() []document.Keyword {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]document.Keyword, len(s.keywords))
	copy(out, s.keywords)
	return out
}

// SetKeywords replaces the keyword set wholesale.
func (s *Session) SetKeywords(kws []document.Keyword) {
	if kws == nil {
		kws = []document.Keyword{}
	}
	s.mu.Lock()
	s.keywords = kws
	s.mu.Unlock()
}

// Busy reports whether a dispatch is running.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Session) release() {
	s.busy.Store(false)
}

// Chat sends input as a new user turn and streams the model reply into the
// conversation. onUpdate, if set, receives the full accumulated reply after
// every fragment.
//
// Blank input is a no-op. On a stream failure the pending reply is replaced by
// an error turn and the returned error describes the cause; the log still
// grows by exactly two turns.
func (s *Session) Chat(ctx context.Context, input string, onUpdate func(text string)) (Turn, error) {
	if strings.TrimSpace(input) == "" {
		return Turn{}, ErrEmptyInput
	}
	if err := s.acquire(); err != nil {
		return Turn{}, err
	}
	defer s.release()

	msg := input
	history := s.Conversation.Turns()
	if _, err := s.Conversation.Append(RoleUser, msg); err != nil {
		return Turn{}, err
	}
	if err := s.Conversation.BeginPending(); err != nil {
		return Turn{}, err
	}

	model := s.Model()
	var acc strings.Builder
	for frag, err := range s.agent.StreamChat(ctx, history, msg, model) {
		if err != nil {
			s.log.Warn().Err(err).Str("model", string(model)).Msg("chat stream failed")
			return s.Conversation.FailPending(chatErrorText), fmt.Errorf("chat stream: %w", err)
		}
		acc.WriteString(frag)
		text := acc.String()
		s.Conversation.UpdatePending(text)
		if onUpdate != nil {
			onUpdate(text)
		}
	}
	turn, _ := s.Conversation.CommitPending()
	s.log.Debug().Int("chars", len(turn.Text)).Msg("chat reply committed")
	return turn, nil
}

// MagicOutcome reports what a magic dispatch produced.
type MagicOutcome struct {
	Magic    Magic              `json:"magic"`
	Keywords []document.Keyword `json:"keywords,omitempty"`
	Result   *Result            `json:"result,omitempty"`
	Turns    []Turn             `json:"turns,omitempty"`
}

// RunMagic applies a registered magic to the current document. The keywords
// magic replaces the keyword set and leaves the conversation alone; every
// other magic appends the instruction turn and the reply turn.
func (s *Session) RunMagic(ctx context.Context, name string) (MagicOutcome, error) {
	magic, ok := ParseMagic(name)
	if !ok {
		return MagicOutcome{}, fmt.Errorf("%w: %q", ErrUnknownMagic, name)
	}
	if err := s.acquire(); err != nil {
		return MagicOutcome{}, err
	}
	defer s.release()

	if magic == MagicKeywords {
		kws := s.agent.ExtractKeywords(ctx, s.Doc.Text())
		s.SetKeywords(kws)
		s.log.Info().Int("keywords", len(kws)).Msg("keywords replaced")
		return MagicOutcome{Magic: magic, Keywords: kws}, nil
	}

	instruction, _ := magic.Instruction()
	res := s.agent.GenerateText(ctx, BuildMagicPrompt(instruction, s.Doc.Text()), s.Model(), "")
	turns, err := s.appendExchange("Magic: "+string(magic), res.Display())
	if err != nil {
		return MagicOutcome{}, err
	}
	return MagicOutcome{Magic: magic, Result: &res, Turns: turns}, nil
}

// ImproveOutcome reports an improve request: the model result, the document
// text right after it was applied, and the two turns it appended.
type ImproveOutcome struct {
	Result   Result `json:"result"`
	Document string `json:"document"`
	Turns    []Turn `json:"turns"`
}

// Improve rewrites the document following instruction (a default instruction
// is used when empty). The document is only replaced when the model answered.
func (s *Session) Improve(ctx context.Context, instruction string) (ImproveOutcome, error) {
	if err := s.acquire(); err != nil {
		return ImproveOutcome{}, err
	}
	defer s.release()

	res := s.agent.ImproveArticle(ctx, s.Doc.Text(), instruction, s.Model())
	reply := res.Display()
	if res.OK() {
		s.Doc.Set(res.Text)
		reply = improveAckText
	}
	label := instruction
	if label == "" {
		label = improveFallback
	}
	turns, err := s.appendExchange("Improve Article: "+label, reply)
	if err != nil {
		return ImproveOutcome{}, err
	}
	return ImproveOutcome{Result: res, Document: s.Doc.Text(), Turns: turns}, nil
}

func (s *Session) appendExchange(userText, modelText string) ([]Turn, error) {
	u, err := s.Conversation.Append(RoleUser, userText)
	if err != nil {
		return nil, err
	}
	m, err := s.Conversation.Append(RoleModel, modelText)
	if err != nil {
		return nil, err
	}
	return []Turn{u, m}, nil
}
