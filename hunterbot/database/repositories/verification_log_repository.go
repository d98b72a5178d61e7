package repositories

import (
	"context"
	"time"

	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/uptrace/bun"
)

type VerificationLogRepository interface {
	Create(ctx context.Context, log *models.VerificationLog) error
	GetRecent(ctx context.Context, discordID string, limit int) ([]*models.VerificationLog, error)
}

type verificationLogRepository struct {
	db *bun.DB
}

func NewVerificationLogRepository(db *bun.DB) VerificationLogRepository {
	return &verificationLogRepository{db: db}
}

func (r *verificationLogRepository) Create(ctx context.Context, log *models.VerificationLog) error {
	log.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(log).Exec(ctx)
	return err
}

func (r *verificationLogRepository) GetRecent(ctx context.Context, discordID string, limit int) ([]*models.VerificationLog, error) {
	var logs []*models.VerificationLog
	err := r.db.NewSelect().
		Model(&logs).
		Where("discord_id = ?", discordID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return logs, err
}
