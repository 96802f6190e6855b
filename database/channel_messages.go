package database

import (
	"context"

	"parley/models"
)

// Channel message ledger: append-only, newest-first reads, hard delete.

// InsertChannelMessage appends a broadcast message to the ledger.
func (db *DB) InsertChannelMessage(ctx context.Context, msg *models.ChannelMessage) error {
	cols, err := flattenBody(msg.Body)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO channel_messages
		(id, sender_id, sender_name, body_kind, content, attachment_ref, mime_type, size, duration_ms, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID, msg.SenderName,
		cols.Kind, cols.Content, cols.Ref, cols.MimeType, cols.Size, cols.DurationMS,
		msg.SentAt,
	)
	return err
}

// GetChannelMessage retrieves a broadcast message by id.
func (db *DB) GetChannelMessage(ctx context.Context, id string) (*models.ChannelMessage, error) {
	msg := &models.ChannelMessage{}
	var cols bodyColumns
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, sender_id, sender_name, body_kind, content, attachment_ref, mime_type, size, duration_ms, sent_at
		FROM channel_messages WHERE id = ?`, id,
	).Scan(&msg.ID, &msg.SenderID, &msg.SenderName,
		&cols.Kind, &cols.Content, &cols.Ref, &cols.MimeType, &cols.Size, &cols.DurationMS,
		&msg.SentAt)
	if err != nil {
		return nil, err
	}
	if msg.Body, err = cols.toContent(); err != nil {
		return nil, err
	}
	return msg, nil
}

// RecentChannelMessages returns the latest limit messages, newest first.
// rowid breaks timestamp ties so the order always matches append order.
func (db *DB) RecentChannelMessages(ctx context.Context, limit int) ([]models.ChannelMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, sender_id, sender_name, body_kind, content, attachment_ref, mime_type, size, duration_ms, sent_at
		FROM channel_messages
		ORDER BY sent_at DESC, rowid DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ChannelMessage
	for rows.Next() {
		var msg models.ChannelMessage
		var cols bodyColumns
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.SenderName,
			&cols.Kind, &cols.Content, &cols.Ref, &cols.MimeType, &cols.Size, &cols.DurationMS,
			&msg.SentAt); err != nil {
			return nil, err
		}
		if msg.Body, err = cols.toContent(); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeleteChannelMessage removes a message entirely. Returns false when the
// record was already gone.
func (db *DB) DeleteChannelMessage(ctx context.Context, id string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM channel_messages WHERE id = ?", id,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
