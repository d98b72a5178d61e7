package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/spotzerodev/hunter-bot/hunterbot/database"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/migration"
	"github.com/spotzerodev/hunter-bot/hunterbot/logger"
)

// Moves quest data from the embedded SQLite store into the Postgres instance
// named by DATABASE_URL. Safe to re-run.
func main() {
	sqlitePath := flag.String("sqlite", "hunterbot.db", "path to the source sqlite file")
	flag.Parse()

	slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	src, err := database.NewSQLite(*sqlitePath)
	if err != nil {
		slog.Error("Failed to open sqlite source", slog.Any("error", err))
		os.Exit(-1)
	}
	defer src.Close()

	connString, err := database.ConnStringFromEnv()
	if err != nil {
		slog.Error("Failed to resolve postgres target", slog.Any("error", err))
		os.Exit(-1)
	}

	dst, err := database.New(ctx, connString, database.PoolConfig{})
	if err != nil {
		slog.Error("Failed to connect to postgres", slog.Any("error", err))
		os.Exit(-1)
	}
	defer dst.Close()

	if err := dst.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize target schema", slog.Any("error", err))
		os.Exit(-1)
	}

	stats, err := migration.NewMigrator(src.BunDB(), dst.BunDB()).MigrateAll(ctx)
	if err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Done",
		slog.Int("user_links", stats.UserLinks),
		slog.Int("quest_records", stats.QuestRecords),
		slog.Int("verification_logs", stats.VerificationLogs))
}
