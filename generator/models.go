package generator

import (
	"errors"
	"fmt"
)

// Provider identifies the generation backend a model is served by.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Model is one of the closed set of selectable model identifiers.
type Model string

const (
	ModelGemini25Flash Model = "gemini-2.5-flash-latest"
	ModelGemini3Flash  Model = "gemini-3-flash-preview"
	ModelGemini3Pro    Model = "gemini-3-pro-preview"
	ModelGPT4o         Model = "gpt-4o"
	ModelGPT4oMini     Model = "gpt-4o-mini"
)

// DefaultModel is used for chat and magics until a session picks another one.
const DefaultModel = ModelGemini3Flash

var ErrUnknownModel = errors.New("unknown model")

// ModelInfo describes a selectable model for pickers.
type ModelInfo struct {
	ID       Model    `json:"id"`
	Label    string   `json:"label"`
	Provider Provider `json:"provider"`
}

var modelTable = []ModelInfo{
	{ID: ModelGemini3Flash, Label: "Gemini 3 Flash", Provider: ProviderGemini},
	{ID: ModelGemini3Pro, Label: "Gemini 3 Pro", Provider: ProviderGemini},
	{ID: ModelGemini25Flash, Label: "Gemini 2.5 Flash", Provider: ProviderGemini},
	{ID: ModelGPT4o, Label: "GPT-4o", Provider: ProviderOpenAI},
	{ID: ModelGPT4oMini, Label: "GPT-4o mini", Provider: ProviderOpenAI},
}

// Models lists every selectable model in picker order.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(modelTable))
	copy(out, modelTable)
	return out
}

// ParseModel checks enum membership only.
func ParseModel(s string) (Model, error) {
	for _, m := range modelTable {
		if string(m.ID) == s {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Provider returns the backend serving m, or "" when m is not in the table.
func (m Model) Provider() Provider {
	for _, info := range modelTable {
		if info.ID == m {
			return info.Provider
		}
	}
	return ""
}
