package messaging

import (
	"strings"
	"unicode/utf8"

	"vault/apperr"
	"vault/models"
)

// MaxTextLength bounds a text message, counted in characters.
const MaxTextLength = 500

// ValidateContent rejects content that must never reach the store: blank or
// over-long text, and media without a stored reference.
func ValidateContent(content models.Content) error {
	switch c := content.(type) {
	case models.Text:
		if strings.TrimSpace(c.Body) == "" || utf8.RuneCountInString(c.Body) > MaxTextLength {
			return apperr.ErrEmptyOrOversizeContent
		}
	case models.Media:
		if strings.TrimSpace(c.URL) == "" {
			return apperr.InvalidArg("media reference is required")
		}
	default:
		return apperr.InvalidArg("unsupported message type")
	}
	return nil
}

// ParseContent builds message content from its wire fields.
func ParseContent(kind models.MessageKind, text, mediaURL string) (models.Content, error) {
	switch kind {
	case models.KindText:
		return models.Text{Body: text}, nil
	case models.KindImage:
		return models.Media{URL: mediaURL}, nil
	default:
		return nil, apperr.InvalidArg("unsupported message type")
	}
}
