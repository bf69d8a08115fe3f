package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is one chat completion call as seen by callers of the client
type Request struct {
	Messages       []Message
	Temperature    float64
	ResponseFormat *ResponseFormat // nil for plain text
}

// ChatCompletionRequest represents an OpenAI-compatible chat completion request
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"` // always sent: 0 is meaningful
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat specifies the format of the model's output
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// JSONObjectFormat asks the provider for a single JSON object
var JSONObjectFormat = &ResponseFormat{Type: "json_object"}

// Message represents a single message in the chat
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// SystemMessage builds a system-role message
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: MessageContent(content)}
}

// UserMessage builds a user-role message
func UserMessage(content string) Message {
	return Message{Role: "user", Content: MessageContent(content)}
}

// MessageContent is message text. Providers may return content either as a
// plain string or as an array of parts; both decode to the concatenated,
// trimmed text.
type MessageContent string

// UnmarshalJSON accepts a string, null, or an array of parts where each part
// is a bare string or an object with a "text" field.
func (m *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*m = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MessageContent(strings.TrimSpace(s))
		return nil
	}

	if trimmed[0] != '[' {
		return fmt.Errorf("unsupported message content: %s", trimmed)
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}

	var sb strings.Builder
	for _, raw := range parts {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			sb.WriteString(s)
			continue
		}
		var part struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &part); err == nil {
			sb.WriteString(part.Text)
		}
	}
	*m = MessageContent(strings.TrimSpace(sb.String()))
	return nil
}

// String returns the content as plain text
func (m MessageContent) String() string {
	return string(m)
}

// ChatCompletionResponse represents an OpenAI-compatible chat completion response
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`

	Raw []byte `json:"-"` // Exact response body
}

// Text returns the first choice's content, or "" when there are no choices
func (r *ChatCompletionResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content.String()
}

// RawJSON returns the raw response body indented for display.
// Bodies that are not valid JSON are returned unchanged.
func (r *ChatCompletionResponse) RawJSON() string {
	if r == nil || len(r.Raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return string(r.Raw)
	}
	return buf.String()
}

// Choice represents a single completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"` // string or number depending on provider
	} `json:"error"`
}
