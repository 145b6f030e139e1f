package database

import (
	"context"

	"github.com/pkg/errors"
	"vault/models"
	"vault/store"
)

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		sess.ID, sess.UserID, sess.CreatedAt.UTC(), sess.ExpiresAt.UTC(),
	)
	if isDuplicate(err) {
		return store.ErrConflict
	}
	return errors.Wrap(err, "database.CreateSession")
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, u.display_name, u.email, s.created_at, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?
	`, id).Scan(&sess.ID, &sess.UserID, &sess.DisplayName, &sess.Email, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		return nil, errors.Wrap(notFound(err), "database.GetSession")
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return errors.Wrap(err, "database.DeleteSession")
}
