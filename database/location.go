package database

import (
	"context"

	"github.com/pkg/errors"
	"vault/models"
	"vault/store"
)

func (s *Store) AppendLocationHistory(ctx context.Context, userID string, e models.LocationEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO location_history (user_id, sample_key, type, latitude, longitude, accuracy, sampled_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, e.Key, string(e.Type), e.Location.Latitude, e.Location.Longitude, e.Location.Accuracy,
		e.Location.Timestamp.UTC(), e.RecordedAt.UTC())
	if isDuplicate(err) {
		return store.ErrConflict
	}
	return errors.Wrap(err, "database.AppendLocationHistory")
}

func (s *Store) ListLocationHistory(ctx context.Context, userID string, limit int) ([]models.LocationEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sample_key, type, latitude, longitude, accuracy, sampled_at, recorded_at
		FROM location_history
		WHERE user_id = ?
		ORDER BY sampled_at DESC, sample_key DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "database.ListLocationHistory")
	}
	defer rows.Close()

	var out []models.LocationEntry
	for rows.Next() {
		var e models.LocationEntry
		var kind string
		if err := rows.Scan(&e.Key, &kind, &e.Location.Latitude, &e.Location.Longitude,
			&e.Location.Accuracy, &e.Location.Timestamp, &e.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "database.ListLocationHistory.Scan")
		}
		e.Type = models.SampleType(kind)
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "database.ListLocationHistory.Rows")
}
