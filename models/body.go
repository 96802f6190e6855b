package models

import (
	"encoding/json"
	"fmt"
)

// BodyKind tags the message body variant.
type BodyKind string

const (
	BodyText  BodyKind = "text"
	BodyMedia BodyKind = "media"
)

// Body is the closed set of message payload shapes. Serialization sites
// switch on the concrete type so a new variant cannot be silently dropped.
type Body interface {
	Kind() BodyKind
}

// TextBody is a plain text payload.
type TextBody struct {
	Content string `json:"content"`
}

func (TextBody) Kind() BodyKind { return BodyText }

// MediaBody references an attachment held by the external attachment store.
type MediaBody struct {
	Ref        string `json:"ref"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

func (MediaBody) Kind() BodyKind { return BodyMedia }

// MessageContent wraps a Body for JSON transport as
// {"type": "text", "content": "..."} or {"type": "media", "attachment": {...}}.
type MessageContent struct {
	Body Body
}

type contentJSON struct {
	Type       BodyKind   `json:"type"`
	Content    string     `json:"content,omitempty"`
	Attachment *MediaBody `json:"attachment,omitempty"`
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	switch b := c.Body.(type) {
	case TextBody:
		return json.Marshal(contentJSON{Type: BodyText, Content: b.Content})
	case MediaBody:
		return json.Marshal(contentJSON{Type: BodyMedia, Attachment: &b})
	default:
		return nil, fmt.Errorf("unknown message body type %T", c.Body)
	}
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var raw contentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case BodyText:
		c.Body = TextBody{Content: raw.Content}
	case BodyMedia:
		if raw.Attachment == nil {
			return fmt.Errorf("media body without attachment")
		}
		c.Body = *raw.Attachment
	default:
		return fmt.Errorf("unknown message body kind %q", raw.Type)
	}
	return nil
}
