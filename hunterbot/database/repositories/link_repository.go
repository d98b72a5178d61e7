package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	// ErrSteamIDTaken means the steam id is already bound to a different
	// Discord user. The unique index on steam_id decides the winner when two
	// users race for the same id.
	ErrSteamIDTaken = errors.New("steam id already linked to another user")
	// ErrAlreadyLinked means this user already holds a different steam id.
	ErrAlreadyLinked = errors.New("user already has a linked steam id")
)

type LinkRepository interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.UserLink, error)
	CreateOrGet(ctx context.Context, discordID string) (*models.UserLink, error)
	SetSteamID(ctx context.Context, discordID string, steamID string) error
	ClearSteamID(ctx context.Context, discordID string) error
	GetLinked(ctx context.Context) ([]*models.UserLink, error)
	CountLinked(ctx context.Context) (int, error)
}

type linkRepository struct {
	db *bun.DB
}

func NewLinkRepository(db *bun.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.UserLink, error) {
	link := new(models.UserLink)
	err := r.db.NewSelect().
		Model(link).
		Where("discord_id = ?", discordID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	return link, nil
}

func (r *linkRepository) CreateOrGet(ctx context.Context, discordID string) (*models.UserLink, error) {
	now := time.Now()
	link := &models.UserLink{
		DiscordID: discordID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.NewInsert().
		Model(link).
		On("CONFLICT (discord_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create link row: %w", err)
	}

	return r.GetByDiscordID(ctx, discordID)
}

// SetSteamID binds a steam id to the user and stamps linked_at. The guarded
// update only fires while the row is unlinked (or already holds the same id),
// so concurrent attempts to bind two different ids to one user resolve to
// first-committed-wins. Claiming an id held by another user trips the unique
// index and surfaces as ErrSteamIDTaken with no mutation.
func (r *linkRepository) SetSteamID(ctx context.Context, discordID string, steamID string) error {
	now := time.Now()
	res, err := r.db.NewUpdate().
		Model((*models.UserLink)(nil)).
		Set("steam_id = ?", steamID).
		Set("linked_at = ?", now).
		Set("updated_at = ?", now).
		Where("discord_id = ?", discordID).
		Where("(steam_id IS NULL OR steam_id = ?)", steamID).
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			slog.Warn("Steam id claim rejected, already bound elsewhere",
				slog.String("type", "db"),
				slog.String("discord_id", discordID))
			return ErrSteamIDTaken
		}
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		existing, getErr := r.GetByDiscordID(ctx, discordID)
		if getErr != nil {
			return getErr
		}
		if existing.Linked() {
			return ErrAlreadyLinked
		}
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) ClearSteamID(ctx context.Context, discordID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.UserLink)(nil)).
		Set("steam_id = NULL").
		Set("linked_at = NULL").
		Set("updated_at = ?", time.Now()).
		Where("discord_id = ?", discordID).
		Exec(ctx)
	return err
}

func (r *linkRepository) GetLinked(ctx context.Context) ([]*models.UserLink, error) {
	var links []*models.UserLink
	err := r.db.NewSelect().
		Model(&links).
		Where("steam_id IS NOT NULL").
		Order("linked_at ASC").
		Scan(ctx)
	return links, err
}

func (r *linkRepository) CountLinked(ctx context.Context) (int, error) {
	return r.db.NewSelect().
		Model((*models.UserLink)(nil)).
		Where("steam_id IS NOT NULL").
		Count(ctx)
}

// isUniqueViolation detects a unique-index conflict from either backing
// store: SQLSTATE 23505 on Postgres, the constraint message on SQLite.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
