package database

import (
	"context"
	"time"

	"parley/models"
)

// Private message ledger: append-only; the read receipt is the only mutation.

// InsertPrivateMessage appends a message to its conversation.
func (db *DB) InsertPrivateMessage(ctx context.Context, msg *models.PrivateMessage) error {
	cols, err := flattenBody(msg.Body)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO private_messages
		(id, conversation_id, sender_id, body_kind, content, attachment_ref, mime_type, size, duration_ms, read, read_at, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.SenderID,
		cols.Kind, cols.Content, cols.Ref, cols.MimeType, cols.Size, cols.DurationMS,
		msg.Read, msg.ReadAt, msg.SentAt,
	)
	return err
}

// ConversationHistory returns the latest limit messages of a conversation,
// newest first, in ledger append order.
func (db *DB) ConversationHistory(ctx context.Context, conversationID string, limit int) ([]models.PrivateMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, body_kind, content, attachment_ref, mime_type, size, duration_ms, read, read_at, sent_at
		FROM private_messages
		WHERE conversation_id = ?
		ORDER BY sent_at DESC, rowid DESC
		LIMIT ?`, conversationID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.PrivateMessage
	for rows.Next() {
		var msg models.PrivateMessage
		var cols bodyColumns
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID,
			&cols.Kind, &cols.Content, &cols.Ref, &cols.MimeType, &cols.Size, &cols.DurationMS,
			&msg.Read, &msg.ReadAt, &msg.SentAt); err != nil {
			return nil, err
		}
		if msg.Body, err = cols.toContent(); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkConversationRead stamps every unread message addressed to readerID in
// the conversation. Returns the number of receipts applied.
func (db *DB) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE private_messages SET read = 1, read_at = ?
		WHERE conversation_id = ? AND sender_id != ? AND read = 0`,
		time.Now().UTC(), conversationID, readerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
