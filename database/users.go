package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"vault/models"
	"vault/store"
)

const userColumns = `id, display_name, email, password, created_at, last_login, last_seen,
	location, registration_location, device_info`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var lastLogin, lastSeen sql.NullTime
	var location, regLocation, device []byte
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Password, &u.CreatedAt,
		&lastLogin, &lastSeen, &location, &regLocation, &device); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	if lastSeen.Valid {
		u.LastSeen = &lastSeen.Time
	}
	if err := decodeJSON(location, &u.Location); err != nil {
		return nil, err
	}
	if err := decodeJSON(regLocation, &u.RegistrationLocation); err != nil {
		return nil, err
	}
	if err := decodeJSON(device, &u.Device); err != nil {
		return nil, err
	}
	return &u, nil
}

func decodeJSON[T any](raw []byte, dst **T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "decode json column")
	}
	*dst = v
	return nil
}

func encodeJSON(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode json column")
	}
	return string(raw), nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, display_name, email, password, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.DisplayName, user.Email, user.Password, user.CreatedAt,
	)
	if isDuplicate(err) {
		return store.ErrConflict
	}
	return errors.Wrap(err, "database.CreateUser")
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, errors.Wrap(notFound(err), "database.GetUser")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		return nil, errors.Wrap(notFound(err), "database.GetUserByEmail")
	}
	return u, nil
}

// escapeLikePattern escapes the LIKE wildcards in user input.
func escapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "\\", "\\\\")
	pattern = strings.ReplaceAll(pattern, "%", "\\%")
	pattern = strings.ReplaceAll(pattern, "_", "\\_")
	return pattern
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE display_name <> '' AND LOWER(display_name) LIKE ? ESCAPE '\\'
		ORDER BY display_name, id
		LIMIT ?
	`, "%"+escapeLikePattern(strings.ToLower(query))+"%", limit)
	if err != nil {
		return nil, errors.Wrap(err, "database.SearchUsers")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "database.SearchUsers.Scan")
		}
		users = append(users, *u)
	}
	return users, errors.Wrap(rows.Err(), "database.SearchUsers.Rows")
}

func (s *Store) UpsertProfile(ctx context.Context, id string, update models.ProfileUpdate) error {
	var sets []string
	var args []interface{}
	add := func(column string, v interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}
	addJSON := func(column string, v interface{}) error {
		enc, err := encodeJSON(v)
		if err != nil {
			return err
		}
		add(column, enc)
		return nil
	}

	if update.DisplayName != nil {
		add("display_name", *update.DisplayName)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.LastLogin != nil {
		add("last_login", update.LastLogin.UTC())
	}
	if update.LastSeen != nil {
		add("last_seen", update.LastSeen.UTC())
	}
	if update.Location != nil {
		if err := addJSON("location", update.Location); err != nil {
			return err
		}
	}
	if update.RegistrationLocation != nil {
		if err := addJSON("registration_location", update.RegistrationLocation); err != nil {
			return err
		}
	}
	if update.Device != nil {
		if err := addJSON("device_info", update.Device); err != nil {
			return err
		}
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if isDuplicate(err) {
		return store.ErrConflict
	}
	if err != nil {
		return errors.Wrap(err, "database.UpsertProfile")
	}
	return s.requireUserRow(ctx, res, id)
}

// requireUserRow distinguishes "no such user" from "nothing changed", which
// MySQL both report as zero affected rows.
func (s *Store) requireUserRow(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id).Scan(&exists); err != nil {
		return errors.Wrap(err, "database.requireUserRow")
	}
	if !exists {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	return s.UpsertProfile(ctx, id, models.ProfileUpdate{LastSeen: &at})
}
