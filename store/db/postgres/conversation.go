package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/docent/store"
)

func (d *DB) CreateConversationTurn(ctx context.Context, create *store.CreateConversationTurn) (*store.ConversationTurn, error) {
	now := time.Now()
	stmt := `INSERT INTO conversation_turn (room_id, question, answer, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	turn := &store.ConversationTurn{
		RoomID:    create.RoomID,
		Question:  create.Question,
		Answer:    create.Answer,
		Timestamp: now,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.RoomID,
		create.Question,
		create.Answer,
		now.Format(time.RFC3339Nano),
	).Scan(&turn.ID); err != nil {
		return nil, errors.Wrap(err, "failed to insert conversation turn")
	}
	return turn, nil
}

func (d *DB) ListConversationTurns(ctx context.Context, find *store.FindConversationTurns) ([]*store.ConversationTurn, error) {
	query := `SELECT id, room_id, question, answer, created_at
		FROM conversation_turn
		WHERE room_id = $1
		ORDER BY id ASC`
	args := []any{find.RoomID}
	if find.LastN > 0 {
		query = `SELECT id, room_id, question, answer, created_at FROM (
			SELECT id, room_id, question, answer, created_at
			FROM conversation_turn
			WHERE room_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent ORDER BY id ASC`
		args = append(args, find.LastN)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query conversation turns")
	}
	defer rows.Close()

	turns := []*store.ConversationTurn{}
	for rows.Next() {
		turn := &store.ConversationTurn{}
		var createdAt string
		if err := rows.Scan(&turn.ID, &turn.RoomID, &turn.Question, &turn.Answer, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation turn")
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			ts = time.Time{}
		}
		turn.Timestamp = ts
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (d *DB) UpsertConversationSummary(ctx context.Context, roomID string, summary string) error {
	stmt := `INSERT INTO conversation_summary (room_id, summary, updated_ts)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			updated_ts = EXCLUDED.updated_ts`
	_, err := d.db.ExecContext(ctx, stmt, roomID, summary, time.Now().Unix())
	return errors.Wrap(err, "failed to upsert conversation summary")
}

func (d *DB) GetConversationSummary(ctx context.Context, roomID string) (string, bool, error) {
	var summary string
	err := d.db.QueryRowContext(ctx,
		`SELECT summary FROM conversation_summary WHERE room_id = $1`, roomID,
	).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get conversation summary")
	}
	return summary, true, nil
}

func (d *DB) DeleteConversation(ctx context.Context, roomID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_turn WHERE room_id = $1`, roomID); err != nil {
		return errors.Wrap(err, "failed to delete conversation turns")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_summary WHERE room_id = $1`, roomID); err != nil {
		return errors.Wrap(err, "failed to delete conversation summary")
	}
	return errors.Wrap(tx.Commit(), "failed to commit conversation deletion")
}
