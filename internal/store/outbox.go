package store

import (
	"context"
	"time"
)

// QueueOutbox records a staged send.
func (db *DB) QueueOutbox(ctx context.Context, clientMsgID, conversation, body string) error {
	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO outbox (client_msg_id, conversation, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		clientMsgID, conversation, body, OutboxQueued, now, now)
	return err
}

// MarkOutboxSent marks an entry accepted by the server and counts the attempt.
func (db *DB) MarkOutboxSent(ctx context.Context, clientMsgID string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE outbox SET status = ?, error_message = '', attempts = attempts + 1, updated_at = ?
		WHERE client_msg_id = ?`,
		OutboxSent, time.Now().UnixMilli(), clientMsgID)
	return err
}

// MarkOutboxFailed marks an entry failed with an error message and counts the attempt.
func (db *DB) MarkOutboxFailed(ctx context.Context, clientMsgID, errMsg string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE outbox SET status = ?, error_message = ?, attempts = attempts + 1, updated_at = ?
		WHERE client_msg_id = ?`,
		OutboxFailed, errMsg, time.Now().UnixMilli(), clientMsgID)
	return err
}

// DeleteOutbox forgets an entry, used when the user discards a failed send.
func (db *DB) DeleteOutbox(ctx context.Context, clientMsgID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM outbox WHERE client_msg_id = ?`, clientMsgID)
	return err
}

// ListOutbox returns the most recent entries, newest first. Status filters when non-empty.
func (db *DB) ListOutbox(ctx context.Context, status string, limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, client_msg_id, conversation, body, status, error_message, attempts, created_at, updated_at
		FROM outbox`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.ClientMsgID, &e.Conversation, &e.Body, &e.Status,
			&e.ErrorMessage, &e.Attempts, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
