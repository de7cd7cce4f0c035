package generator

import (
	"context"
	"errors"
	"iter"

	"google.golang.org/genai"
)

// GeminiLLM implements LLMClient on the Gemini API via google.golang.org/genai.
type GeminiLLM struct {
	client *genai.Client
}

func NewGeminiLLM(ctx context.Context, cfg LLMSettings) (*GeminiLLM, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide gemini.api_key or gemini.api_key_env")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiLLM{client: client}, nil
}

func geminiConfig(prompt Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	if prompt.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func geminiHistory(msgs []Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(m.Content, role))
	}
	return history
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	contents := append(geminiHistory(prompt.History), genai.NewContentFromText(prompt.User, genai.RoleUser))
	resp, err := g.client.Models.GenerateContent(ctx, string(prompt.Model), contents, geminiConfig(prompt))
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Stream opens a chat seeded with the prompt history and streams the reply to
// prompt.User.
func (g *GeminiLLM) Stream(ctx context.Context, prompt Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		chat, err := g.client.Chats.Create(ctx, string(prompt.Model), geminiConfig(prompt), geminiHistory(prompt.History))
		if err != nil {
			yield("", err)
			return
		}
		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: prompt.User}) {
			if err != nil {
				yield("", err)
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
