// Package memstore is an in-process store.Store used by tests and by
// `vault serve --store memory`.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"vault/models"
	"vault/store"
	"vault/utils"
)

type edgeKey struct {
	owner string
	peer  string
}

type Store struct {
	mu sync.RWMutex

	now func() time.Time
	seq int64

	users         map[string]*models.User
	emails        map[string]string
	relationships map[edgeKey]models.Relationship
	channels      map[models.ChannelID]models.Channel
	messages      map[models.ChannelID][]models.Document
	history       map[string]map[string]models.LocationEntry
	sessions      map[string]models.Session
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:           now,
		users:         make(map[string]*models.User),
		emails:        make(map[string]string),
		relationships: make(map[edgeKey]models.Relationship),
		channels:      make(map[models.ChannelID]models.Channel),
		messages:      make(map[models.ChannelID][]models.Document),
		history:       make(map[string]map[string]models.LocationEntry),
		sessions:      make(map[string]models.Session),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := s.emails[email]; ok {
		return store.ErrConflict
	}
	if _, ok := s.users[user.ID]; ok {
		return store.ErrConflict
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	cp := *user
	s.users[user.ID] = &cp
	s.emails[email] = user.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) SearchUsers(_ context.Context, query string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var out []models.User
	for _, u := range s.users {
		if u.DisplayName != "" && strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertProfile(_ context.Context, id string, update models.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if update.Email != nil && !strings.EqualFold(*update.Email, u.Email) {
		email := strings.ToLower(*update.Email)
		if _, taken := s.emails[email]; taken {
			return store.ErrConflict
		}
		delete(s.emails, strings.ToLower(u.Email))
		s.emails[email] = id
	}
	update.Apply(u)
	return nil
}

func (s *Store) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	return s.UpsertProfile(ctx, id, models.ProfileUpdate{LastSeen: &at})
}

func (s *Store) ListRelationships(_ context.Context, ownerID string) ([]models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Relationship
	for k, r := range s.relationships {
		if k.owner == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerDisplayName < out[j].PeerDisplayName })
	return out, nil
}

func (s *Store) HasRelationship(_ context.Context, ownerID, peerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.relationships[edgeKey{owner: ownerID, peer: peerID}]
	return ok, nil
}

func (s *Store) CreateFriendship(_ context.Context, f models.Friendship) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[f.Channel.ID]; ok {
		return false, nil
	}
	s.channels[f.Channel.ID] = f.Channel
	s.relationships[edgeKey{owner: f.Forward.OwnerID, peer: f.Forward.PeerID}] = f.Forward
	s.relationships[edgeKey{owner: f.Reverse.OwnerID, peer: f.Reverse.PeerID}] = f.Reverse
	return true, nil
}

func (s *Store) GetChannel(_ context.Context, id models.ChannelID) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ch, nil
}

func (s *Store) AppendMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[msg.ChannelID]; !ok {
		return store.ErrNotFound
	}
	if msg.ID == "" {
		msg.ID = utils.GenerateUUID()
	}
	s.seq++
	msg.Seq = s.seq
	msg.Timestamp = s.now().UTC()

	s.messages[msg.ChannelID] = append(s.messages[msg.ChannelID], msg.Document())
	return nil
}

func (s *Store) ListMessages(_ context.Context, channelID models.ChannelID) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Document, len(s.messages[channelID]))
	copy(out, s.messages[channelID])
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *Store) LastMessage(ctx context.Context, channelID models.ChannelID) (*models.Document, error) {
	docs, err := s.ListMessages(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	last := docs[len(docs)-1]
	return &last, nil
}

// InsertDocument stores a raw document as-is, bypassing validation. It lets
// tests plant malformed rows.
func (s *Store) InsertDocument(doc models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	doc.Seq = s.seq
	s.messages[doc.ChannelID] = append(s.messages[doc.ChannelID], doc)
}

func (s *Store) AppendLocationHistory(_ context.Context, userID string, entry models.LocationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history[userID] == nil {
		s.history[userID] = make(map[string]models.LocationEntry)
	}
	if _, ok := s.history[userID][entry.Key]; ok {
		return store.ErrConflict
	}
	s.history[userID][entry.Key] = entry
	return nil
}

func (s *Store) ListLocationHistory(_ context.Context, userID string, limit int) ([]models.LocationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LocationEntry, 0, len(s.history[userID]))
	for _, e := range s.history[userID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Location.Timestamp, out[j].Location.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].Key > out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; ok {
		return store.ErrConflict
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sess, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
