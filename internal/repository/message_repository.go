package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *PostgresMessageRepo {
	return &PostgresMessageRepo{pool: pool}
}

const messageColumns = `id, room_id, sender_id, msg_type, content, file_url, file_size, duration,
       reply_to, forwarded_from, created_at, edited_at, deleted_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	m := &models.Message{}
	err := row.Scan(
		&m.ID,
		&m.RoomID,
		&m.SenderID,
		&m.Type,
		&m.Content,
		&m.FileURL,
		&m.FileSize,
		&m.Duration,
		&m.ReplyTo,
		&m.ForwardedFrom,
		&m.CreatedAt,
		&m.EditedAt,
		&m.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresMessageRepo) Save(ctx context.Context, m *models.Message) error {
	query := `
        INSERT INTO messages (id, room_id, sender_id, msg_type, content, file_url, file_size, duration,
                              reply_to, forwarded_from, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (id) DO NOTHING
    `

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.RoomID,
		m.SenderID,
		m.Type,
		m.Content,
		m.FileURL,
		m.FileSize,
		m.Duration,
		m.ReplyTo,
		m.ForwardedFrom,
		m.CreatedAt,
	)
	if err != nil {
		log.Printf("[REPO ERROR] Failed to save message %s from %s: %v", m.ID, m.SenderID, err)
		return fmt.Errorf("save message: %w", err)
	}

	return nil
}

func (r *PostgresMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	m, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Printf("[REPO ERROR] Lookup failed for message %s: %v", id, err)
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *PostgresMessageRepo) ListAfter(ctx context.Context, roomID uuid.UUID, after time.Time, limit int) ([]*models.Message, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE room_id = $1 AND created_at > $2
        ORDER BY created_at ASC, id ASC
        LIMIT $3
    `

	rows, err := r.pool.Query(ctx, query, roomID, after, limit)
	if err != nil {
		log.Printf("[REPO ERROR] ListAfter failed for room %s: %v", roomID, err)
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *PostgresMessageRepo) ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Message, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE room_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `

	rows, err := r.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		log.Printf("[REPO ERROR] ListRecent failed for room %s: %v", roomID, err)
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	// Storage hands back newest-first; consumers render chronologically.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *PostgresMessageRepo) SoftDelete(ctx context.Context, id, senderID uuid.UUID, at time.Time) (*models.Message, error) {
	query := `
        UPDATE messages
        SET deleted_at = $3, content = ''
        WHERE id = $1 AND sender_id = $2 AND deleted_at IS NULL
        RETURNING ` + messageColumns

	m, err := scanMessage(r.pool.QueryRow(ctx, query, id, senderID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Printf("[REPO ERROR] Soft delete failed for message %s: %v", id, err)
		return nil, fmt.Errorf("delete message: %w", err)
	}
	return m, nil
}

func (r *PostgresMessageRepo) Edit(ctx context.Context, id, senderID uuid.UUID, content string, at time.Time) (*models.Message, error) {
	query := `
        UPDATE messages
        SET content = $3, edited_at = $4
        WHERE id = $1 AND sender_id = $2 AND deleted_at IS NULL
        RETURNING ` + messageColumns

	m, err := scanMessage(r.pool.QueryRow(ctx, query, id, senderID, content, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Printf("[REPO ERROR] Edit failed for message %s: %v", id, err)
		return nil, fmt.Errorf("edit message: %w", err)
	}
	return m, nil
}

func collectMessages(rows pgx.Rows) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			log.Printf("[REPO ERROR] Scan failed: %v", err)
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
