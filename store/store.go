// Package store declares the backend collaborator the components talk to.
// database.Store implements it on MySQL, memstore.Store in memory.
package store

import (
	"context"
	"errors"
	"time"

	"vault/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type Users interface {
	// CreateUser fails with ErrConflict when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// SearchUsers matches query as a case-insensitive substring of the
	// display name.
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	UpsertProfile(ctx context.Context, id string, update models.ProfileUpdate) error
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}

type Relationships interface {
	ListRelationships(ctx context.Context, ownerID string) ([]models.Relationship, error)
	HasRelationship(ctx context.Context, ownerID, peerID string) (bool, error)
	// CreateFriendship commits both edges and the channel as one unit. When
	// the channel already exists nothing is written and created is false.
	CreateFriendship(ctx context.Context, f models.Friendship) (created bool, err error)
	GetChannel(ctx context.Context, id models.ChannelID) (*models.Channel, error)
}

type Messages interface {
	// AppendMessage assigns ID (when empty), Timestamp and Seq.
	AppendMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns documents ordered by timestamp then Seq.
	ListMessages(ctx context.Context, channelID models.ChannelID) ([]models.Document, error)
	LastMessage(ctx context.Context, channelID models.ChannelID) (*models.Document, error)
}

type Locations interface {
	AppendLocationHistory(ctx context.Context, userID string, entry models.LocationEntry) error
	ListLocationHistory(ctx context.Context, userID string, limit int) ([]models.LocationEntry, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type Store interface {
	Users
	Relationships
	Messages
	Locations
	Sessions
	Close() error
}
