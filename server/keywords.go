package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"medtech_outlook_agent/document"
)

// keywordSchema constrains client-supplied keyword sets. Model-extracted sets
// bypass it.
const keywordSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["word", "color"],
    "properties": {
      "word":  {"type": "string", "minLength": 1},
      "color": {"type": "string", "pattern": "^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$"}
    }
  }
}`

var keywordSchemaLoader = gojsonschema.NewStringLoader(keywordSchema)

func decodeKeywords(body []byte) ([]document.Keyword, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("keywords: body is not valid JSON")
	}
	result, err := gojsonschema.Validate(keywordSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("keywords: %s", strings.Join(msgs, "; "))
	}
	var kws []document.Keyword
	if err := json.Unmarshal(body, &kws); err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	return kws, nil
}
