package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/saparbayev-azizbek-12/chat-app/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresReactionRepo struct {
	pool *pgxpool.Pool
}

func NewReactionRepo(pool *pgxpool.Pool) *PostgresReactionRepo {
	return &PostgresReactionRepo{pool: pool}
}

// Toggle runs the whole read-modify-write inside one transaction with the
// pair row locked, so concurrent reactions from different users never tread
// on each other and the one-row-per-pair invariant holds.
func (r *PostgresReactionRepo) Toggle(ctx context.Context, messageID, userID uuid.UUID, kind string) (models.ReactionOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin reaction toggle: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing string
	err = tx.QueryRow(ctx,
		`SELECT kind FROM reactions WHERE message_id = $1 AND user_id = $2 FOR UPDATE`,
		messageID, userID,
	).Scan(&existing)

	var outcome models.ReactionOutcome
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx,
			`INSERT INTO reactions (message_id, user_id, kind) VALUES ($1, $2, $3)`,
			messageID, userID, kind,
		)
		outcome = models.ReactionAdded
	case err != nil:
		log.Printf("[REPO ERROR] Reaction lookup failed for message %s: %v", messageID, err)
		return "", fmt.Errorf("reaction lookup: %w", err)
	case existing == kind:
		_, err = tx.Exec(ctx,
			`DELETE FROM reactions WHERE message_id = $1 AND user_id = $2`,
			messageID, userID,
		)
		outcome = models.ReactionRemoved
	default:
		_, err = tx.Exec(ctx,
			`UPDATE reactions SET kind = $3 WHERE message_id = $1 AND user_id = $2`,
			messageID, userID, kind,
		)
		outcome = models.ReactionUpdated
	}
	if err != nil {
		log.Printf("[REPO ERROR] Reaction toggle failed for message %s: %v", messageID, err)
		return "", fmt.Errorf("reaction toggle: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit reaction toggle: %w", err)
	}
	return outcome, nil
}

func (r *PostgresReactionRepo) ListForMessage(ctx context.Context, messageID uuid.UUID) ([]*models.Reaction, error) {
	query := `SELECT message_id, user_id, kind, created_at FROM reactions WHERE message_id = $1`

	rows, err := r.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*models.Reaction
	for rows.Next() {
		rx := &models.Reaction{}
		if err := rows.Scan(&rx.MessageID, &rx.UserID, &rx.Kind, &rx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reactions = append(reactions, rx)
	}
	return reactions, rows.Err()
}

func (r *PostgresReactionRepo) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	query := `
        INSERT INTO read_receipts (message_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (message_id, user_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, messageID, userID); err != nil {
		log.Printf("[REPO ERROR] Mark read failed for message %s: %v", messageID, err)
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
