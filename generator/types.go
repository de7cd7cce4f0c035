package generator

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role 标记一条消息的作者。
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in the conversation log.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func newTurn(role Role, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Result 是一次性补全的结果：成功文本或失败原因，二者互斥。
type Result struct {
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
	ok     bool
}

func Success(text string) Result {
	return Result{Text: text, ok: true}
}

func Failure(reason string) Result {
	if reason == "" {
		reason = "Unknown error occurred"
	}
	return Result{Reason: reason}
}

// OK reports whether the call produced model text.
func (r Result) OK() bool { return r.ok }

// Display returns the text shown in the conversation log. Failures keep the
// "Error: " prefix the editor has always shown.
func (r Result) Display() string {
	if r.ok {
		return r.Text
	}
	return "Error: " + r.Reason
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OK     bool   `json:"ok"`
		Text   string `json:"text,omitempty"`
		Reason string `json:"reason,omitempty"`
	}{r.ok, r.Text, r.Reason})
}
