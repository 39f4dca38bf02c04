package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saparbayev-azizbek-12/chat-app/internal/api"
	"github.com/saparbayev-azizbek-12/chat-app/internal/auth"
	"github.com/saparbayev-azizbek-12/chat-app/internal/chat"
	"github.com/saparbayev-azizbek-12/chat-app/internal/config"
	"github.com/saparbayev-azizbek-12/chat-app/internal/db"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"
	"github.com/saparbayev-azizbek-12/chat-app/internal/tasks"
)

func main() {
	cfg := config.Load()

	auth.Init(cfg.AuthKey)

	pool, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer pool.Close()

	store := repository.NewPostgres(pool)

	presence := chat.NewPresenceTracker(cfg.PresenceWindow)
	directory := chat.NewRoomDirectory(store)
	coordinator := chat.NewCoordinator(store, cfg.PageSize)
	hub := chat.NewHub(store, directory, coordinator, presence)

	sweeper, err := tasks.StartPresenceSweeper(presence, cfg.PresenceWindow)
	if err != nil {
		log.Fatal("Failed to start presence sweeper:", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(hub, store),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Printf("🚀 Chat server starting on :%s...\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	fmt.Println("\nShutdown signal received. Cleaning up...")
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	fmt.Println("Graceful shutdown complete. Goodnight!")
}
