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

type PostgresRoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *PostgresRoomRepo {
	return &PostgresRoomRepo{pool: pool}
}

func (r *PostgresRoomRepo) Create(ctx context.Context, room *models.Room, memberIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create room: %w", err)
	}
	defer tx.Rollback(ctx)

	const roomQuery = `
        INSERT INTO rooms (id, name, kind, created_by)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	err = tx.QueryRow(ctx, roomQuery, room.ID, room.Name, room.Kind, room.CreatedBy).Scan(&room.CreatedAt)
	if err != nil {
		log.Printf("[REPO ERROR] Failed to create room %s: %v", room.ID, err)
		return fmt.Errorf("create room: %w", err)
	}

	const memberQuery = `
        INSERT INTO room_members (room_id, user_id, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (room_id, user_id) DO NOTHING`

	for _, userID := range memberIDs {
		role := models.RoleMember
		if userID == room.CreatedBy {
			role = models.RoleCreator
		}
		if _, err := tx.Exec(ctx, memberQuery, room.ID, userID, role); err != nil {
			log.Printf("[REPO ERROR] Failed to add member %s to room %s: %v", userID, room.ID, err)
			return fmt.Errorf("add room member: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRoomRepo) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	query := `SELECT id, name, kind, created_by, created_at FROM rooms WHERE id = $1`

	room := &models.Room{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Kind,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}

	return room, nil
}

func (r *PostgresRoomRepo) FindPrivateRoom(ctx context.Context, a, b uuid.UUID) (*models.Room, error) {
	query := `
        SELECT r.id, r.name, r.kind, r.created_by, r.created_at
        FROM rooms r
        JOIN room_members ma ON ma.room_id = r.id AND ma.user_id = $1
        JOIN room_members mb ON mb.room_id = r.id AND mb.user_id = $2
        WHERE r.kind = 'private'
        LIMIT 1`

	room := &models.Room{}
	err := r.pool.QueryRow(ctx, query, a, b).Scan(
		&room.ID,
		&room.Name,
		&room.Kind,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find private room: %w", err)
	}

	return room, nil
}

func (r *PostgresRoomRepo) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`

	var member bool
	if err := r.pool.QueryRow(ctx, query, roomID, userID).Scan(&member); err != nil {
		log.Printf("[REPO ERROR] Membership check failed for %s in %s: %v", userID, roomID, err)
		return false, fmt.Errorf("membership check: %w", err)
	}

	return member, nil
}

func (r *PostgresRoomRepo) ListMembers(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM room_members WHERE room_id = $1`

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (r *PostgresRoomRepo) AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error {
	query := `
        INSERT INTO room_members (room_id, user_id, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (room_id, user_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, roomID, userID, role); err != nil {
		log.Printf("[REPO ERROR] Failed to add member %s to room %s: %v", userID, roomID, err)
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *PostgresRoomRepo) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	query := `DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, roomID, userID)
	if err != nil {
		log.Printf("[REPO ERROR] Failed to remove member %s from room %s: %v", userID, roomID, err)
		return fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
