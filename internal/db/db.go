package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect builds a pgx pool sized by configuration and verifies it with a
// ping before handing it out. Pool bounds come from the caller because the
// websocket fan-in makes connection pressure deployment-dependent.
func Connect(databaseURL string, maxConns, minConns int) (*pgxpool.Pool, error) {

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	defer cancel()

	cfg, err := pgxpool.ParseConfig(databaseURL)

	if err != nil {
		return nil, err
	}

	if maxConns < minConns {
		return nil, fmt.Errorf("pool bounds inverted: max %d < min %d", maxConns, minConns)
	}

	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = int32(minConns)
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Printf("[DB] Database connected successfully (pool %d-%d)", minConns, maxConns)

	return pool, nil
}
