package database

import (
	"context"

	"github.com/pkg/errors"
	"vault/models"
	"vault/store"
)

func (s *Store) ListRelationships(ctx context.Context, ownerID string) ([]models.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, peer_id, peer_display_name, created_at
		FROM relationships
		WHERE owner_id = ?
		ORDER BY peer_display_name
	`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "database.ListRelationships")
	}
	defer rows.Close()

	var out []models.Relationship
	for rows.Next() {
		var r models.Relationship
		if err := rows.Scan(&r.OwnerID, &r.PeerID, &r.PeerDisplayName, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "database.ListRelationships.Scan")
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "database.ListRelationships.Rows")
}

func (s *Store) HasRelationship(ctx context.Context, ownerID, peerID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM relationships WHERE owner_id = ? AND peer_id = ?)",
		ownerID, peerID,
	).Scan(&exists)
	return exists, errors.Wrap(err, "database.HasRelationship")
}

// CreateFriendship inserts the chat row first. Its primary key is the
// canonical pair, so of two racing transactions the second blocks on the
// first and then fails with a duplicate key: it rolls back and reports
// created=false.
func (s *Store) CreateFriendship(ctx context.Context, f models.Friendship) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "database.CreateFriendship.Begin")
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO chats (id, user_a, user_b, created_at) VALUES (?, ?, ?, ?)",
		string(f.Channel.ID), f.Channel.Participants[0], f.Channel.Participants[1], f.Channel.CreatedAt.UTC(),
	)
	if isDuplicate(err) {
		tx.Rollback()
		return false, nil
	}
	if err != nil {
		tx.Rollback()
		return false, errors.Wrap(err, "database.CreateFriendship.Chat")
	}

	for _, edge := range []models.Relationship{f.Forward, f.Reverse} {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO relationships (owner_id, peer_id, peer_display_name, created_at) VALUES (?, ?, ?, ?)",
			edge.OwnerID, edge.PeerID, edge.PeerDisplayName, edge.CreatedAt.UTC(),
		)
		if err != nil {
			tx.Rollback()
			return false, errors.Wrap(err, "database.CreateFriendship.Edge")
		}
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "database.CreateFriendship.Commit")
	}
	return true, nil
}

func (s *Store) GetChannel(ctx context.Context, id models.ChannelID) (*models.Channel, error) {
	var ch models.Channel
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_a, user_b, created_at FROM chats WHERE id = ?", string(id),
	).Scan(&raw, &ch.Participants[0], &ch.Participants[1], &ch.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(notFound(err), "database.GetChannel")
	}
	ch.ID = models.ChannelID(raw)
	return &ch, nil
}

var _ store.Relationships = (*Store)(nil)
