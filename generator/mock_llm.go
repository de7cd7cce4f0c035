package generator

import (
	"context"
	"iter"
	"strings"
	"sync"
)

// MockLLM 一个简单的占位实现，便于本地调试和测试，不调用外部模型。
//
// With no scripted Reply it echoes the prompt as Markdown. Stream yields
// Fragments when set, otherwise the reply split on spaces.
type MockLLM struct {
	Reply     string
	Fragments []string
	Err       error
	// StreamErr ends the stream after FailAfter fragments.
	StreamErr error
	FailAfter int

	mu      sync.Mutex
	prompts []Prompt
}

// Prompts returns every prompt received so far.
func (m *MockLLM) Prompts() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Prompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}

func (m *MockLLM) record(p Prompt) {
	m.mu.Lock()
	m.prompts = append(m.prompts, p)
	m.mu.Unlock()
}

func (m *MockLLM) reply(prompt Prompt) string {
	if m.Reply != "" {
		return m.Reply
	}
	if prompt.JSON {
		return `[{"word":"AI Act","color":"#2563eb"},{"word":"QMSR","color":"#dc2626"}]`
	}
	var sb strings.Builder
	sb.WriteString("## Mock reply\n\n")
	sb.WriteString("Prompt received:\n\n")
	sb.WriteString("```\n")
	sb.WriteString(truncate(prompt.User, 200))
	sb.WriteString("\n```\n")
	return sb.String()
}

func (m *MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	m.record(prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.reply(prompt), nil
}

func (m *MockLLM) Stream(ctx context.Context, prompt Prompt) iter.Seq2[string, error] {
	m.record(prompt)
	frags := m.Fragments
	if frags == nil {
		frags = strings.SplitAfter(m.reply(prompt), " ")
	}
	return func(yield func(string, error) bool) {
		for i, f := range frags {
			if m.StreamErr != nil && i == m.FailAfter {
				yield("", m.StreamErr)
				return
			}
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
		if m.StreamErr != nil && m.FailAfter >= len(frags) {
			yield("", m.StreamErr)
		}
	}
}
