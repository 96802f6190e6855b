package database

import (
	"fmt"

	"parley/models"
)

// bodyColumns flattens the message body variant into the ledger columns.
type bodyColumns struct {
	Kind       models.BodyKind
	Content    string
	Ref        string
	MimeType   string
	Size       int64
	DurationMS int64
}

func flattenBody(body models.MessageContent) (bodyColumns, error) {
	switch b := body.Body.(type) {
	case models.TextBody:
		return bodyColumns{Kind: models.BodyText, Content: b.Content}, nil
	case models.MediaBody:
		return bodyColumns{
			Kind:       models.BodyMedia,
			Ref:        b.Ref,
			MimeType:   b.MimeType,
			Size:       b.Size,
			DurationMS: b.DurationMS,
		}, nil
	default:
		return bodyColumns{}, fmt.Errorf("unknown message body type %T", body.Body)
	}
}

func (c bodyColumns) toContent() (models.MessageContent, error) {
	switch c.Kind {
	case models.BodyText:
		return models.MessageContent{Body: models.TextBody{Content: c.Content}}, nil
	case models.BodyMedia:
		return models.MessageContent{Body: models.MediaBody{
			Ref:        c.Ref,
			MimeType:   c.MimeType,
			Size:       c.Size,
			DurationMS: c.DurationMS,
		}}, nil
	default:
		return models.MessageContent{}, fmt.Errorf("unknown stored body kind %q", c.Kind)
	}
}
