package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/uptrace/bun"
)

const defaultBatchSize = 500

// Migrator copies quest data from the embedded SQLite store into Postgres.
// The campaign started on a single file; this is the one-shot move to the
// shared database. Inserts are idempotent, so a crashed run can be repeated.
type Migrator struct {
	src       *bun.DB
	dst       *bun.DB
	batchSize int
	stats     Stats
}

type Stats struct {
	UserLinks        int
	QuestRecords     int
	VerificationLogs int
	StartTime        time.Time
}

func NewMigrator(src, dst *bun.DB) *Migrator {
	return &Migrator{
		src:       src,
		dst:       dst,
		batchSize: defaultBatchSize,
		stats:     Stats{StartTime: time.Now()},
	}
}

func (m *Migrator) MigrateAll(ctx context.Context) (Stats, error) {
	if err := m.migrateUserLinks(ctx); err != nil {
		return m.stats, fmt.Errorf("failed to migrate user links: %w", err)
	}
	if err := m.migrateQuestRecords(ctx); err != nil {
		return m.stats, fmt.Errorf("failed to migrate quest records: %w", err)
	}
	if err := m.migrateVerificationLogs(ctx); err != nil {
		return m.stats, fmt.Errorf("failed to migrate verification logs: %w", err)
	}

	slog.Info("Migration finished",
		slog.String("type", "db"),
		slog.Int("user_links", m.stats.UserLinks),
		slog.Int("quest_records", m.stats.QuestRecords),
		slog.Int("verification_logs", m.stats.VerificationLogs),
		slog.Duration("took", time.Since(m.stats.StartTime)))

	return m.stats, nil
}

func (m *Migrator) migrateUserLinks(ctx context.Context) error {
	for offset := 0; ; offset += m.batchSize {
		var links []*models.UserLink
		err := m.src.NewSelect().
			Model(&links).
			Order("id ASC").
			Limit(m.batchSize).
			Offset(offset).
			Scan(ctx)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}

		// Row ids restart on the target; identity is the discord id.
		for _, link := range links {
			link.ID = 0
		}

		_, err = m.dst.NewInsert().
			Model(&links).
			On("CONFLICT (discord_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}

		m.stats.UserLinks += len(links)
		logProgress("user_links", m.stats.UserLinks)
	}
}

func (m *Migrator) migrateQuestRecords(ctx context.Context) error {
	for offset := 0; ; offset += m.batchSize {
		var recs []*models.QuestRecord
		err := m.src.NewSelect().
			Model(&recs).
			Order("id ASC").
			Limit(m.batchSize).
			Offset(offset).
			Scan(ctx)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}

		for _, rec := range recs {
			rec.ID = 0
		}

		_, err = m.dst.NewInsert().
			Model(&recs).
			On("CONFLICT (discord_id, quest_index) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}

		m.stats.QuestRecords += len(recs)
		logProgress("quest_records", m.stats.QuestRecords)
	}
}

func (m *Migrator) migrateVerificationLogs(ctx context.Context) error {
	for offset := 0; ; offset += m.batchSize {
		var logs []*models.VerificationLog
		err := m.src.NewSelect().
			Model(&logs).
			Order("id ASC").
			Limit(m.batchSize).
			Offset(offset).
			Scan(ctx)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			return nil
		}

		for _, l := range logs {
			l.ID = 0
		}

		// The audit trail has no natural key; duplicates from a re-run are
		// tolerable, missing rows are not.
		_, err = m.dst.NewInsert().
			Model(&logs).
			Exec(ctx)
		if err != nil {
			return err
		}

		m.stats.VerificationLogs += len(logs)
		logProgress("verification_logs", m.stats.VerificationLogs)
	}
}

func logProgress(table string, count int) {
	slog.Info("Migration progress",
		slog.String("type", "db"),
		slog.String("table", table),
		slog.Int("migrated", count))
}
