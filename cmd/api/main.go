package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/shinyyama/inventory-vision-backend/internal/config"
	"github.com/shinyyama/inventory-vision-backend/internal/db"
	"github.com/shinyyama/inventory-vision-backend/internal/model"
	"github.com/shinyyama/inventory-vision-backend/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)

	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	// The DB backs the inventory API only; connect in the background so the
	// extraction surface is up immediately.
	go func() {
		if !cfg.DBConfigured() {
			log.Printf("database not configured; inventory API disabled")
			return
		}
		conn, err := db.Connect(db.Options{
			User:             cfg.DBUser,
			Password:         cfg.DBPassword,
			Host:             cfg.DBHost,
			Port:             cfg.DBPort,
			Name:             cfg.DBName,
			CloudSQLInstance: cfg.InstanceConnectionName,
		})
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		if err := conn.AutoMigrate(&model.Item{}); err != nil {
			log.Printf("auto migrate error: %v", err)
		}
		srv.SetDB(conn)
	}()

	if err := <-errCh; err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
