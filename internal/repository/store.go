package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Postgres bundles the per-entity repos into the single Gateway the hub
// consumes.
type Postgres struct {
	*PostgresMessageRepo
	*PostgresRoomRepo
	*PostgresReactionRepo
	*PostgresUserRepo
}

var _ Gateway = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		PostgresMessageRepo:  NewMessageRepo(pool),
		PostgresRoomRepo:     NewRoomRepo(pool),
		PostgresReactionRepo: NewReactionRepo(pool),
		PostgresUserRepo:     NewUserRepo(pool),
	}
}
