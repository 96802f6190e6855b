package database

import (
	"context"
	"database/sql"
	"time"

	"parley/models"
)

// Friend request queries. The idx_friend_pair unique index is the authority
// on "one record per unordered pair"; callers translate its violation into a
// conflict answer.

// CreateRequest inserts a pending request. A stale terminal (declined or
// cancelled) record for the same pair is replaced in the same transaction so
// re-proposal is possible without ever holding two records for a pair.
func (db *DB) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM friend_requests
		WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		  AND status IN ('declined', 'cancelled')`,
		req.SenderID, req.ReceiverID, req.ReceiverID, req.SenderID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID, req.SenderID, req.ReceiverID, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetRequest retrieves a friend request by id.
func (db *DB) GetRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	return db.scanRequest(db.conn.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, status, created_at, updated_at
		FROM friend_requests WHERE id = ?`, id))
}

// FindRequestBetween looks up the relationship record for a pair in both
// directions. Returns sql.ErrNoRows when the pair has no record.
func (db *DB) FindRequestBetween(ctx context.Context, userA, userB string) (*models.FriendRequest, error) {
	return db.scanRequest(db.conn.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, status, created_at, updated_at
		FROM friend_requests
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`,
		userA, userB, userB, userA))
}

func (db *DB) scanRequest(row *sql.Row) (*models.FriendRequest, error) {
	req := &models.FriendRequest{}
	err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// TransitionRequest moves a request from one status to another. The WHERE
// clause makes the precondition check and the write a single atomic unit;
// a false result means the record was not in the expected status anymore.
func (db *DB) TransitionRequest(ctx context.Context, id string, from, to models.FriendRequestStatus) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE friend_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from,
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

// ListPendingFor returns pending requests addressed to userID, joined with
// the sender for display.
func (db *DB) ListPendingFor(ctx context.Context, userID string) ([]models.PendingRequest, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.id, r.sender_id, r.receiver_id, r.status, r.created_at, r.updated_at,
		        u.id, u.display_name
		FROM friend_requests r
		JOIN users u ON u.id = r.sender_id
		WHERE r.receiver_id = ? AND r.status = 'pending'
		ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.PendingRequest
	for rows.Next() {
		var req models.PendingRequest
		if err := rows.Scan(
			&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
			&req.Sender.ID, &req.Sender.DisplayName,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ListFriends returns the accepted relationships involving userID, projected
// to the other participant.
func (db *DB) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.display_name, r.updated_at
		FROM friend_requests r
		JOIN users u ON u.id = CASE WHEN r.sender_id = ? THEN r.receiver_id ELSE r.sender_id END
		WHERE (r.sender_id = ? OR r.receiver_id = ?) AND r.status = 'accepted'
		ORDER BY u.display_name`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.User.ID, &f.User.DisplayName, &f.Since); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// DeleteAcceptedBetween removes the accepted record for a pair. Returns
// false when no such record exists.
func (db *DB) DeleteAcceptedBetween(ctx context.Context, userA, userB string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM friend_requests
		WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		  AND status = 'accepted'`,
		userA, userB, userB, userA,
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

// AreFriends derives friendship: exactly one accepted record for the pair.
func (db *DB) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friend_requests
		WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		  AND status = 'accepted'`,
		userA, userB, userB, userA,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 1, nil
}
