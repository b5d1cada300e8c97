package ai

import "encoding/json"

// The chat-completions wire shapes shared by OpenRouter and
// OpenAI-compatible local servers.

type chatPayload struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// message content is json.RawMessage so a turn can serialize as either
// a plain string (text-only) or a []ContentPart array (multimodal).
type message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

func textMessage(role, text string) message {
	raw, _ := json.Marshal(text)
	return message{Role: role, Content: raw}
}

func multimodalMessage(role, text string, attachments []ContentPart) message {
	parts := make([]ContentPart, 0, 1+len(attachments))
	parts = append(parts, ContentPart{Type: "text", Text: text})
	parts = append(parts, attachments...)
	raw, _ := json.Marshal(parts)
	return message{Role: role, Content: raw}
}

// Text extracts plain text content. Model responses are always plain
// strings; anything else comes back raw.
func (m message) Text() string {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return string(m.Content)
	}
	return s
}

// ContentPart is one entry in a multimodal content array. Images use
// type "image_url" with a data URI; files (PDFs) use type "file" with
// filename plus data URI.
type ContentPart struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL *ContentPartImage `json:"image_url,omitempty"`
	File     *ContentPartFile  `json:"file,omitempty"`
}

// ContentPartImage holds an image as a "data:{mime};base64,{data}" URI.
type ContentPartImage struct {
	URL string `json:"url"`
}

// ContentPartFile holds a file attachment as a data URI.
type ContentPartFile struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type chatCompletion struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage is the token accounting a completion reports.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
