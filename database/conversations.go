package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"parley/models"
)

// Conversation directory. The UNIQUE (user_a, user_b) constraint over the
// canonically ordered pair is the authority on "one conversation per pair";
// FindOrCreateConversation resolves races as find-after-conflict.

// FindOrCreateConversation returns the single conversation for a pair,
// creating it when the pair has never talked. Safe under concurrent first
// contact: the losing insert re-reads the winner's row.
func (db *DB) FindOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	a, b := models.CanonicalPair(userA, userB)

	conv, err := db.findConversation(ctx, a, b)
	if err == nil {
		return conv, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	conv = &models.Conversation{
		ID:        uuid.NewString(),
		UserA:     a,
		UserB:     b,
		CreatedAt: time.Now().UTC(),
	}
	_, err = db.conn.ExecContext(ctx,
		"INSERT INTO conversations (id, user_a, user_b, created_at) VALUES (?, ?, ?, ?)",
		conv.ID, conv.UserA, conv.UserB, conv.CreatedAt,
	)
	if err == nil {
		return conv, nil
	}
	if IsUniqueViolation(err) {
		// Lost the race to a concurrent first message for the same pair.
		return db.findConversation(ctx, a, b)
	}
	return nil, err
}

// FindConversationBetween returns the conversation for a pair without
// creating one. Returns sql.ErrNoRows when the pair has never talked.
func (db *DB) FindConversationBetween(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	a, b := models.CanonicalPair(userA, userB)
	return db.findConversation(ctx, a, b)
}

func (db *DB) findConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	return scanConversation(db.conn.QueryRowContext(ctx,
		`SELECT id, user_a, user_b, last_message_id, last_message_at, created_at
		FROM conversations WHERE user_a = ? AND user_b = ?`, a, b))
}

// GetConversation retrieves a conversation by id.
func (db *DB) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return scanConversation(db.conn.QueryRowContext(ctx,
		`SELECT id, user_a, user_b, last_message_id, last_message_at, created_at
		FROM conversations WHERE id = ?`, id))
}

func scanConversation(row *sql.Row) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := row.Scan(&conv.ID, &conv.UserA, &conv.UserB,
		&conv.LastMessageID, &conv.LastMessageAt, &conv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns every conversation userID participates in,
// joined with the counterpart and the caller's unread count, most recently
// active first.
func (db *DB) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.user_a, c.user_b, c.last_message_id, c.last_message_at, c.created_at,
		        u.id, u.display_name,
		        (SELECT COUNT(*) FROM private_messages m
		         WHERE m.conversation_id = c.id AND m.sender_id != ? AND m.read = 0)
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user_a = ? THEN c.user_b ELSE c.user_a END
		WHERE c.user_a = ? OR c.user_b = ?
		ORDER BY c.last_message_at IS NULL, c.last_message_at DESC`,
		userID, userID, userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var s models.ConversationSummary
		if err := rows.Scan(
			&s.ID, &s.UserA, &s.UserB, &s.LastMessageID, &s.LastMessageAt, &s.CreatedAt,
			&s.Other.ID, &s.Other.DisplayName, &s.UnreadCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SetLastMessage advances the conversation's last-message pointer.
func (db *DB) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE conversations SET last_message_id = ?, last_message_at = ? WHERE id = ?",
		messageID, at, conversationID,
	)
	return err
}
