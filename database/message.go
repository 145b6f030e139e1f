package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"vault/models"
	"vault/store"
	"vault/utils"
)

func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = utils.GenerateUUID()
	}
	msg.Timestamp = s.now().UTC()
	doc := msg.Document()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, type, text, media_url, created_at)
		SELECT ?, id, ?, ?, ?, ?, ? FROM chats WHERE id = ?
	`, doc.ID, doc.SenderID, string(doc.Type),
		sql.NullString{String: doc.Text, Valid: doc.Type == models.KindText},
		sql.NullString{String: doc.MediaURL, Valid: doc.Type == models.KindImage},
		doc.Timestamp, string(doc.ChannelID))
	if err != nil {
		return errors.Wrap(err, "database.AppendMessage")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "database.AppendMessage.RowsAffected")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "database.AppendMessage.LastInsertId")
	}
	msg.Seq = seq
	return nil
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	var chatID, kind string
	var text, mediaURL sql.NullString
	if err := row.Scan(&d.Seq, &d.ID, &chatID, &d.SenderID, &kind, &text, &mediaURL, &d.Timestamp); err != nil {
		return nil, err
	}
	d.ChannelID = models.ChannelID(chatID)
	d.Type = models.MessageKind(kind)
	d.Text = text.String
	d.MediaURL = mediaURL.String
	return &d, nil
}

func (s *Store) ListMessages(ctx context.Context, channelID models.ChannelID) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, chat_id, sender_id, type, text, media_url, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, seq ASC
	`, string(channelID))
	if err != nil {
		return nil, errors.Wrap(err, "database.ListMessages")
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, errors.Wrap(err, "database.ListMessages.Scan")
		}
		docs = append(docs, *d)
	}
	return docs, errors.Wrap(rows.Err(), "database.ListMessages.Rows")
}

func (s *Store) LastMessage(ctx context.Context, channelID models.ChannelID) (*models.Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, `
		SELECT seq, id, chat_id, sender_id, type, text, media_url, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, string(channelID)))
	if err != nil {
		return nil, errors.Wrap(notFound(err), "database.LastMessage")
	}
	return d, nil
}
