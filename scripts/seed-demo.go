package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/dom/task-tracker/internal/config"
	"github.com/dom/task-tracker/internal/logger"
	"github.com/dom/task-tracker/internal/repository/postgres"
	"github.com/dom/task-tracker/internal/service"
)

type demoUser struct {
	Name  string
	Email string
	Tasks []demoTask
}

type demoTask struct {
	Title       string
	Description string
}

var demoUsers = []demoUser{
	{
		Name:  "Ann Example",
		Email: "ann@example.com",
		Tasks: []demoTask{
			{Title: "Buy milk"},
			{Title: "Book dentist appointment", Description: "Any weekday after 4pm"},
			{Title: "Renew passport", Description: "Photos are in the top drawer"},
		},
	},
	{
		Name:  "Ben Example",
		Email: "ben@example.com",
		Tasks: []demoTask{
			{Title: "Water the plants"},
			{Title: "Prepare quarterly report", Description: "Numbers from finance due Friday"},
		},
	},
}

// seed-demo writes a fixed set of demo accounts and tasks straight into the
// configured PostgreSQL database. Accounts that already exist are skipped.
func main() {
	password := flag.String("password", "demo-password", "Password for every demo account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	if cfg.Storage != config.StoragePostgres {
		logger.Fatal("seeding requires STORAGE=postgres", "storage", cfg.Storage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	services, err := service.NewServices(postgres.NewRepositories(db), cfg, nil)
	if err != nil {
		logger.Fatal("failed to initialize services", "error", err)
	}

	seeded := 0
	for _, du := range demoUsers {
		user, err := services.Auth.Register(ctx, service.RegisterInput{
			Name:     du.Name,
			Email:    du.Email,
			Password: *password,
		})
		if errors.Is(err, service.ErrEmailExists) {
			slog.Info("demo user already exists, skipping", "email", du.Email)
			continue
		}
		if err != nil {
			logger.Fatal("failed to register demo user", "email", du.Email, "error", err)
		}

		for _, dt := range du.Tasks {
			input := service.CreateTaskInput{Title: dt.Title}
			if dt.Description != "" {
				desc := dt.Description
				input.Description = &desc
			}
			if _, err := services.Task.Create(ctx, user.ID, input); err != nil {
				logger.Fatal("failed to create demo task", "email", du.Email, "title", dt.Title, "error", err)
			}
		}

		slog.Info("seeded demo user", "email", du.Email, "tasks", len(du.Tasks))
		seeded++
	}

	fmt.Println()
	fmt.Printf("Seeded %d of %d demo users. Log in with:\n", seeded, len(demoUsers))
	for _, du := range demoUsers {
		fmt.Printf("  %s / %s\n", du.Email, *password)
	}
}
