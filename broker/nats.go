package broker

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// NATS fans notifications out through a NATS server so several service
// instances share subscriptions.
type NATS struct {
	nc *nats.Conn
}

func NewNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("vault"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				jww.WARN.Printf("[broker] disconnected from NATS: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			jww.INFO.Printf("[broker] reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to NATS at %s", url)
	}
	jww.INFO.Printf("[broker] connected to %s", nc.ConnectedUrl())
	return &NATS{nc: nc}, nil
}

func (n *NATS) Publish(_ context.Context, subject string, payload []byte) error {
	if err := n.nc.Publish(subject, payload); err != nil {
		return errors.Wrapf(err, "failed to publish to subject '%s'", subject)
	}
	return nil
}

func (n *NATS) Subscribe(subject string, handler Handler) (Subscription, error) {
	sub, err := n.nc.Subscribe(subject, func(m *nats.Msg) {
		handler(m.Data)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to subscribe to subject '%s'", subject)
	}
	return sub, nil
}

func (n *NATS) Close() error {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			n.nc.Close()
			return errors.Wrap(err, "drain NATS connection")
		}
	}
	return nil
}
