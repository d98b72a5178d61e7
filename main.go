package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/spotzerodev/hunter-bot/hunterbot"
	"github.com/spotzerodev/hunter-bot/hunterbot/commands"
	"github.com/spotzerodev/hunter-bot/hunterbot/components"
	"github.com/spotzerodev/hunter-bot/hunterbot/database"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/repositories"
	"github.com/spotzerodev/hunter-bot/hunterbot/handlers"
	"github.com/spotzerodev/hunter-bot/hunterbot/logger"
	"github.com/spotzerodev/hunter-bot/hunterbot/services"
	"github.com/spotzerodev/hunter-bot/hunterbot/steam"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := hunterbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))

	slog.Info("Starting Hunter Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("type", "db"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready", slog.String("type", "db"))

	b := hunterbot.New(*cfg, version, commit)
	b.DB = db
	b.LinkRepository = repositories.NewLinkRepository(db.BunDB())
	b.QuestRepository = repositories.NewQuestRecordRepository(db.BunDB())
	b.VerificationLogRepository = repositories.NewVerificationLogRepository(db.BunDB())
	b.SteamClient = steam.NewClient(cfg.App.SteamAPIKey)
	b.Progression = services.NewProgression(
		b.LinkRepository,
		b.QuestRepository,
		b.VerificationLogRepository,
		b.SteamClient,
		cfg.App.AppID,
		cfg.App.CommunityPostURL,
	)

	h := handler.New()

	h.Command("/steam", handlers.WrapWithLogging("steam", commands.SteamHandler(b)))
	h.Command("/queststats", handlers.WrapWithLogging("queststats", commands.QuestStatsHandler(b)))
	h.Command("/resetuser", handlers.WrapWithLogging("resetuser", commands.ResetUserHandler(b)))
	h.Command("/version", commands.VersionHandler(b))

	h.Component("/hunter/link/{user_id}", handlers.WrapComponentWithLogging("hunter-link", components.LinkButtonHandler(b)))
	h.Component("/hunter/verify-wishlist/{user_id}", handlers.WrapComponentWithLogging("hunter-verify-wishlist", components.VerifyWishlistHandler(b)))
	h.Component("/hunter/confirm-like/{user_id}", handlers.WrapComponentWithLogging("hunter-confirm-like", components.ConfirmLikeHandler(b)))

	h.Modal("/hunter/link-modal", handlers.WrapModalWithLogging("hunter-link-modal", components.LinkModalHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}

	gwCtx, gwCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gwCancel()
	if err = b.Client.OpenGateway(gwCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}

// openDatabase picks the backend: the embedded SQLite store when a path is
// configured, otherwise Postgres from the environment connection string.
func openDatabase(ctx context.Context, cfg *hunterbot.Config) (*database.DB, error) {
	if cfg.App.SQLitePath != "" {
		slog.Info("Using embedded SQLite store",
			slog.String("type", "db"),
			slog.String("path", cfg.App.SQLitePath))
		return database.NewSQLite(cfg.App.SQLitePath)
	}

	connString, err := database.ConnStringFromEnv()
	if err != nil {
		return nil, err
	}
	return database.New(ctx, connString, cfg.DB)
}
