// Package messaging appends to and streams the message log of a channel.
package messaging

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"vault/apperr"
	"vault/broker"
	"vault/feed"
	"vault/models"
	"vault/relationship"
	"vault/store"
)

type Store interface {
	GetChannel(ctx context.Context, id models.ChannelID) (*models.Channel, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, channelID models.ChannelID) ([]models.Document, error)
	LastMessage(ctx context.Context, channelID models.ChannelID) (*models.Document, error)
}

type Service struct {
	store    Store
	broker   broker.Broker
	subjects broker.Subjects
}

func NewService(s Store, b broker.Broker, subjects broker.Subjects) *Service {
	return &Service{store: s, broker: b, subjects: subjects}
}

// ChannelFor returns the channel userID shares with peerID. Only friends
// share a channel.
func (s *Service) ChannelFor(ctx context.Context, userID, peerID string) (*models.Channel, error) {
	if err := relationship.ValidatePair(userID, peerID); err != nil {
		return nil, err
	}
	ch, err := s.store.GetChannel(ctx, relationship.DeriveChannelID(userID, peerID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Forbidden("can only chat with friends")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load channel")
	}
	return ch, nil
}

// Send appends one message to the channel. Failures are returned to the
// caller as-is and never retried here.
func (s *Service) Send(ctx context.Context, channelID models.ChannelID, senderID string, content models.Content) (*models.Message, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}

	ch, err := s.store.GetChannel(ctx, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("chat not found")
	}
	if err != nil {
		jww.ERROR.Printf("[send] load %s: %+v", channelID, err)
		return nil, apperr.ErrSendFailed.WithCause(err)
	}
	if !ch.HasParticipant(senderID) {
		return nil, apperr.ErrNotParticipant
	}

	msg := &models.Message{
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		jww.ERROR.Printf("[send] append to %s: %+v", channelID, err)
		return nil, apperr.ErrSendFailed.WithCause(err)
	}

	if err := s.broker.Publish(ctx, s.subjects.Chat(string(channelID)), []byte(msg.ID)); err != nil {
		// The message is stored; open feeds pick it up on their next reload.
		jww.WARN.Printf("[send] notify %s: %v", channelID, err)
	}
	return msg, nil
}

// History returns the channel's messages in server order. Malformed stored
// documents are skipped.
func (s *Service) History(ctx context.Context, channelID models.ChannelID) ([]models.Message, error) {
	docs, err := s.store.ListMessages(ctx, channelID)
	if err != nil {
		return nil, errors.Wrapf(err, "list messages of %s", channelID)
	}
	out := make([]models.Message, 0, len(docs))
	for _, d := range docs {
		m, err := d.Decode()
		if err != nil {
			jww.WARN.Printf("[messages] skipping document in %s: %v", channelID, err)
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

// Open streams the full ordered message set of the channel, re-emitted
// after every send.
func (s *Service) Open(ctx context.Context, channelID models.ChannelID) (*feed.Feed[[]models.Message], error) {
	return feed.Start(ctx, s.broker, s.subjects.Chat(string(channelID)), 0, func(ctx context.Context) ([]models.Message, error) {
		return s.History(ctx, channelID)
	})
}

// Last returns the newest message, or nil when the channel is empty.
func (s *Service) Last(ctx context.Context, channelID models.ChannelID) (*models.Message, error) {
	doc, err := s.store.LastMessage(ctx, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "last message of %s", channelID)
	}
	m, err := doc.Decode()
	if err != nil {
		jww.WARN.Printf("[messages] last of %s: %v", channelID, err)
		return nil, nil
	}
	return m, nil
}
