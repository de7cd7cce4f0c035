package generator

import (
	"context"
	"encoding/json"

	"medtech_outlook_agent/document"
)

// ParseKeywords decodes a JSON keyword array. Elements are not validated; a
// missing colour stays empty.
func ParseKeywords(raw string) ([]document.Keyword, error) {
	var kws []document.Keyword
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &kws); err != nil {
		return nil, err
	}
	if kws == nil {
		kws = []document.Keyword{}
	}
	return kws, nil
}

// ExtractKeywords asks the model for a coloured keyword list. Request and parse
// failures yield an empty list.
func (a *Agent) ExtractKeywords(ctx context.Context, article string) []document.Keyword {
	raw, err := a.llm.Complete(ctx, Prompt{
		Model: a.keywordModel,
		User:  BuildKeywordsPrompt(article),
		JSON:  true,
	})
	if err != nil {
		a.log.Warn().Err(err).Str("model", string(a.keywordModel)).Msg("keyword extraction failed")
		return []document.Keyword{}
	}
	if raw == "" {
		raw = "[]"
	}
	kws, err := ParseKeywords(raw)
	if err != nil {
		a.log.Warn().Err(err).Msg("keyword response is not a JSON array")
		return []document.Keyword{}
	}
	return kws
}
