package generator

import (
	"fmt"
	"unicode/utf8"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	Model   Model
	System  string
	User    string
	History []Message
	// JSON asks the provider for a JSON-only response.
	JSON bool
}

// Message 是一条历史消息，按时间先后排列。
type Message struct {
	Role    Role
	Content string
}

// articleLimit caps how much of the document is sent with magics and keyword
// extraction.
const articleLimit = 5000

const defaultImproveInstruction = "Fix grammar and improve flow."

// truncate returns the first n characters of s without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// BuildMagicPrompt appends the truncated article to a magic instruction.
func BuildMagicPrompt(instruction, article string) string {
	return fmt.Sprintf("%s\n\nArticle: %s...", instruction, truncate(article, articleLimit))
}

// BuildImprovePrompt 生成改稿提示词。
func BuildImprovePrompt(article, instruction string) string {
	return fmt.Sprintf(`You are a professional medical device regulatory editor.
Current Article:
%s

User Instruction: %s

Please rewrite the article or the specific section to address the instruction. Keep Markdown formatting.`, article, instruction)
}

// BuildKeywordsPrompt asks for a JSON array of {word, color} objects.
func BuildKeywordsPrompt(article string) string {
	return fmt.Sprintf(`Extract 10 key distinct regulatory or technological keywords from the text below.
Assign a hex color code to each keyword based on its sentiment or category (e.g., Red for Critical/Deadline, Blue for Tech, Green for Sustainability).
Return purely a JSON array of objects with 'word' and 'color' keys.

Text: %s...`, truncate(article, articleLimit))
}

// historyMessages maps committed turns to provider history, oldest first.
func historyMessages(turns []Turn) []Message {
	msgs := make([]Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, Message{Role: t.Role, Content: t.Text})
	}
	return msgs
}
