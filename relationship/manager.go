// Package relationship owns the friend graph: search, and the creation of a
// symmetric friendship together with its chat channel.
package relationship

import (
	"context"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"vault/apperr"
	"vault/models"
	"vault/presence"
	"vault/store"
)

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	ListRelationships(ctx context.Context, ownerID string) ([]models.Relationship, error)
	HasRelationship(ctx context.Context, ownerID, peerID string) (bool, error)
	CreateFriendship(ctx context.Context, f models.Friendship) (bool, error)
}

type PresenceReader interface {
	Status(ctx context.Context, userID string) (presence.Status, error)
}

type MessagePreviewer interface {
	Last(ctx context.Context, channelID models.ChannelID) (*models.Message, error)
}

// State is a step of the add-friend workflow.
type State string

const (
	StateIdle           State = "idle"
	StateGuarded        State = "guarded"
	StateVerifying      State = "verifying"
	StateAlreadyFriends State = "already_friends"
	StateCreating       State = "creating"
	StateCommitted      State = "committed"
	StateFailed         State = "failed"
)

type Manager struct {
	store    Store
	presence PresenceReader
	previews MessagePreviewer
	guard    *actorGuard
	now      func() time.Time

	// observe, when set, sees every state transition of AddFriend.
	observe func(actor string, s State)
}

func NewManager(s Store, p PresenceReader, previews MessagePreviewer) *Manager {
	return &Manager{
		store:    s,
		presence: p,
		previews: previews,
		guard:    newActorGuard(),
		now:      time.Now,
	}
}

func (m *Manager) enter(actor string, s State) {
	jww.TRACE.Printf("[addFriend] %s -> %s", actor, s)
	if m.observe != nil {
		m.observe(actor, s)
	}
}

// AddFriend befriends candidateID on behalf of current. It returns nil once
// both edges and the channel are committed, apperr.ErrAlreadyFriends when
// they already existed (including when a concurrent call won the race), and
// otherwise one of ErrOperationInProgress, ErrPeerNotFound, ErrTransient or
// ErrRelationshipUnknown.
func (m *Manager) AddFriend(ctx context.Context, current *models.Session, candidateID string) error {
	if err := ValidatePair(current.UserID, candidateID); err != nil {
		return err
	}

	release, ok := m.guard.acquire(current.UserID)
	if !ok {
		return apperr.ErrOperationInProgress
	}
	defer func() {
		release()
		m.enter(current.UserID, StateIdle)
	}()
	m.enter(current.UserID, StateGuarded)

	m.enter(current.UserID, StateVerifying)
	self, err := m.store.GetUser(ctx, current.UserID)
	if err != nil {
		m.enter(current.UserID, StateFailed)
		return apperr.ErrRelationshipUnknown.WithCause(errors.Wrap(err, "load current user"))
	}
	peer, err := m.store.GetUser(ctx, candidateID)
	if errors.Is(err, store.ErrNotFound) {
		m.enter(current.UserID, StateFailed)
		return apperr.ErrPeerNotFound
	}
	if err != nil {
		m.enter(current.UserID, StateFailed)
		return apperr.ErrRelationshipUnknown.WithCause(errors.Wrap(err, "load candidate"))
	}

	exists, err := m.store.HasRelationship(ctx, self.ID, peer.ID)
	if err != nil {
		m.enter(current.UserID, StateFailed)
		return apperr.ErrRelationshipUnknown.WithCause(errors.Wrap(err, "check relationship"))
	}
	if exists {
		m.enter(current.UserID, StateAlreadyFriends)
		return apperr.ErrAlreadyFriends
	}

	m.enter(current.UserID, StateCreating)
	now := m.now().UTC()
	created, err := m.store.CreateFriendship(ctx, newFriendship(self, peer, now))
	if err != nil {
		m.enter(current.UserID, StateFailed)
		jww.WARN.Printf("[addFriend] %s -> %s: %+v", self.ID, peer.ID, err)
		return apperr.ErrTransient.WithCause(err)
	}
	if !created {
		m.enter(current.UserID, StateAlreadyFriends)
		return apperr.ErrAlreadyFriends
	}

	m.enter(current.UserID, StateCommitted)
	jww.INFO.Printf("[addFriend] %s and %s are now friends", self.ID, peer.ID)
	return nil
}

func newFriendship(self, peer *models.User, now time.Time) models.Friendship {
	channelID := DeriveChannelID(self.ID, peer.ID)
	a, b := self.ID, peer.ID
	if b < a {
		a, b = b, a
	}
	return models.Friendship{
		Forward: models.Relationship{
			OwnerID:         self.ID,
			PeerID:          peer.ID,
			PeerDisplayName: peer.DisplayName,
			CreatedAt:       now,
		},
		Reverse: models.Relationship{
			OwnerID:         peer.ID,
			PeerID:          self.ID,
			PeerDisplayName: self.DisplayName,
			CreatedAt:       now,
		},
		Channel: models.Channel{
			ID:           channelID,
			Participants: [2]string{a, b},
			CreatedAt:    now,
		},
	}
}

// Friends lists userID's friends with their presence and the last message
// of the shared channel.
func (m *Manager) Friends(ctx context.Context, userID string) ([]models.FriendSummary, error) {
	rels, err := m.store.ListRelationships(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list relationships")
	}

	out := make([]models.FriendSummary, 0, len(rels))
	for _, r := range rels {
		summary := models.FriendSummary{
			Relationship: r,
			ChannelID:    DeriveChannelID(userID, r.PeerID),
			Status:       "Offline",
		}
		if st, err := m.presence.Status(ctx, r.PeerID); err != nil {
			jww.WARN.Printf("[friends] presence of %s: %v", r.PeerID, err)
		} else {
			summary.Online = st.Online
			summary.LastSeen = st.LastSeen
			summary.Status = st.Label
		}
		last, err := m.previews.Last(ctx, summary.ChannelID)
		if err != nil {
			jww.WARN.Printf("[friends] last message of %s: %v", summary.ChannelID, err)
		}
		summary.LastMessage = last
		out = append(out, summary)
	}
	return out, nil
}
