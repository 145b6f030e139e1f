package models

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
)

// Content is either Text or Media.
type Content interface {
	Kind() MessageKind
}

type Text struct {
	Body string
}

func (Text) Kind() MessageKind { return KindText }

// Media references a blob already stored by the object store.
type Media struct {
	URL string
}

func (Media) Kind() MessageKind { return KindImage }

type Message struct {
	ID        string
	ChannelID ChannelID
	SenderID  string
	Seq       int64
	Timestamp time.Time
	Content   Content
}

// Document is the stored/wire shape of a message.
type Document struct {
	ID        string      `json:"id" validate:"required"`
	ChannelID ChannelID   `json:"channel_id" validate:"required"`
	SenderID  string      `json:"sender_id" validate:"required"`
	Seq       int64       `json:"-"`
	Timestamp time.Time   `json:"timestamp" validate:"required"`
	Type      MessageKind `json:"type" validate:"required,oneof=text image"`
	Text      string      `json:"text,omitempty" validate:"required_if=Type text"`
	MediaURL  string      `json:"media_url,omitempty" validate:"required_if=Type image"`
}

var validate = validator.New()

func (m *Message) Document() Document {
	d := Document{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		SenderID:  m.SenderID,
		Seq:       m.Seq,
		Timestamp: m.Timestamp,
	}
	switch c := m.Content.(type) {
	case Text:
		d.Type = KindText
		d.Text = c.Body
	case Media:
		d.Type = KindImage
		d.MediaURL = c.URL
	}
	return d
}

// Decode validates a stored document and turns it into a Message.
// Malformed documents are rejected rather than half-filled.
func (d Document) Decode() (*Message, error) {
	if err := validate.Struct(d); err != nil {
		return nil, errors.Wrapf(err, "malformed message document %q", d.ID)
	}
	m := &Message{
		ID:        d.ID,
		ChannelID: d.ChannelID,
		SenderID:  d.SenderID,
		Seq:       d.Seq,
		Timestamp: d.Timestamp,
	}
	if d.Type == KindText {
		m.Content = Text{Body: d.Text}
	} else {
		m.Content = Media{URL: d.MediaURL}
	}
	return m, nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Document())
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	decoded, err := d.Decode()
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
