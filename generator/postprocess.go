package generator

import "strings"

const noResponseText = "No response generated."

// normalizeReply 处理模型空输出。
func normalizeReply(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return noResponseText
	}
	return raw
}

// stripCodeFence removes a Markdown code fence wrapped around a JSON reply.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
