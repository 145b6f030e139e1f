// Package broker carries change notifications between writers and the
// subscriptions that re-read state when something changed.
package broker

import (
	"context"
	"fmt"
)

type Handler func(payload []byte)

type Subscription interface {
	Unsubscribe() error
}

// Broker delivers every payload published on a subject to each of its
// subscribers. Within one subscription payloads arrive in publish order.
type Broker interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Subscribe(subject string, handler Handler) (Subscription, error)
	Close() error
}

// Subjects builds the subject names used across the service.
type Subjects struct {
	Prefix string
}

func (s Subjects) Session(userID string) string {
	return fmt.Sprintf("%s.session.%s", s.Prefix, userID)
}

func (s Subjects) Presence(userID string) string {
	return fmt.Sprintf("%s.presence.%s", s.Prefix, userID)
}

func (s Subjects) Chat(channelID string) string {
	return fmt.Sprintf("%s.chat.%s", s.Prefix, channelID)
}
