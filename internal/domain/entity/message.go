package entity

import (
	"encoding/json"
	"fmt"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole
	Content []ContentItem
}

// ContentItem is one of TextContent, InputFileContent, InputImageContent,
// OutputFileContent or UnknownContent.
type ContentItem interface {
	contentType() string
}

type TextContent struct {
	Text string
}

type InputFileContent struct {
	FileID string
}

type InputImageContent struct {
	URL string
}

type OutputFileContent struct {
	FileName string
	URL      string
}

// UnknownContent keeps item types this client does not understand.
type UnknownContent struct {
	Type string
}

func (TextContent) contentType() string       { return "input_text" }
func (InputFileContent) contentType() string  { return "input_file" }
func (InputImageContent) contentType() string { return "input_image" }
func (OutputFileContent) contentType() string { return "output_file" }
func (c UnknownContent) contentType() string  { return c.Type }

type wireContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
}

type wireMessage struct {
	Role    MessageRole   `json:"role"`
	Content []wireContent `json:"content"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	out := wireMessage{Role: m.Role, Content: make([]wireContent, 0, len(m.Content))}
	for _, item := range m.Content {
		wc, err := encodeContent(item)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, wc)
	}
	return json.Marshal(out)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var in wireMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("message: %w", err)
	}
	m.Role = in.Role
	m.Content = make([]ContentItem, 0, len(in.Content))
	for _, wc := range in.Content {
		m.Content = append(m.Content, decodeContent(wc))
	}
	return nil
}

func encodeContent(item ContentItem) (wireContent, error) {
	switch c := item.(type) {
	case TextContent:
		return wireContent{Type: "input_text", Text: c.Text}, nil
	case InputFileContent:
		return wireContent{Type: "input_file", FileID: c.FileID}, nil
	case InputImageContent:
		return wireContent{Type: "input_image", ImageURL: c.URL}, nil
	case OutputFileContent:
		return wireContent{Type: "output_file", FileName: c.FileName, FileURL: c.URL}, nil
	case UnknownContent:
		return wireContent{Type: c.Type}, nil
	}
	return wireContent{}, fmt.Errorf("unsupported content item %T", item)
}

func decodeContent(wc wireContent) ContentItem {
	switch wc.Type {
	case "input_text", "output_text", "text":
		return TextContent{Text: wc.Text}
	case "input_file":
		return InputFileContent{FileID: wc.FileID}
	case "input_image":
		return InputImageContent{URL: wc.ImageURL}
	case "output_file":
		return OutputFileContent{FileName: wc.FileName, URL: wc.FileURL}
	}
	return UnknownContent{Type: wc.Type}
}
