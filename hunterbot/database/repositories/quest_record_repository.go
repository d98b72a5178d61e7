package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/uptrace/bun"
)

var (
	// ErrAlreadyComplete is a no-op for callers but kept distinct so
	// duplicate completions are observable in tests and logs.
	ErrAlreadyComplete   = errors.New("quest already complete")
	ErrPrerequisiteUnmet = errors.New("prerequisite quest not complete")
)

// QuestRecordRepository is the quest ledger: the only writer of quest_records.
type QuestRecordRepository interface {
	GetStatus(ctx context.Context, discordID string, questIndex int) (models.QuestStatus, error)
	GetAll(ctx context.Context, discordID string) ([]*models.QuestRecord, error)
	MarkPending(ctx context.Context, discordID string, questIndex int) error
	MarkComplete(ctx context.Context, discordID string, questIndex int) error
	CountCompleted(ctx context.Context, questIndex int) (int, error)
	CountCompletedThrough(ctx context.Context, questIndex int) (int, error)
	Reset(ctx context.Context, discordID string, fromIndex int) error
}

type questRecordRepository struct {
	db *bun.DB
}

func NewQuestRecordRepository(db *bun.DB) QuestRecordRepository {
	return &questRecordRepository{db: db}
}

func (r *questRecordRepository) GetStatus(ctx context.Context, discordID string, questIndex int) (models.QuestStatus, error) {
	rec := new(models.QuestRecord)
	err := r.db.NewSelect().
		Model(rec).
		Where("discord_id = ? AND quest_index = ?", discordID, questIndex).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QuestStatusNotStarted, nil
		}
		return "", err
	}

	return rec.Status, nil
}

// GetAll returns one entry per quest in sequence order, filling in
// not-started defaults for quests the user has no row for yet.
func (r *questRecordRepository) GetAll(ctx context.Context, discordID string) ([]*models.QuestRecord, error) {
	var recs []*models.QuestRecord
	err := r.db.NewSelect().
		Model(&recs).
		Where("discord_id = ?", discordID).
		Order("quest_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]*models.QuestRecord, len(recs))
	for _, rec := range recs {
		byIndex[rec.QuestIndex] = rec
	}

	out := make([]*models.QuestRecord, 0, len(models.Quests))
	for _, q := range models.Quests {
		if rec, ok := byIndex[q.Index]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, &models.QuestRecord{
			DiscordID:  discordID,
			QuestIndex: q.Index,
			Status:     models.QuestStatusNotStarted,
		})
	}

	return out, nil
}

// MarkPending moves a quest from not-started to pending. Completed quests are
// terminal, so this is a silent no-op for them.
func (r *questRecordRepository) MarkPending(ctx context.Context, discordID string, questIndex int) error {
	if err := r.checkPrerequisite(ctx, discordID, questIndex); err != nil {
		return err
	}

	now := time.Now()
	rec := &models.QuestRecord{
		DiscordID:  discordID,
		QuestIndex: questIndex,
		Status:     models.QuestStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := r.db.NewInsert().
		Model(rec).
		On("CONFLICT (discord_id, quest_index) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("updated_at = EXCLUDED.updated_at").
		Where("qr.status = ?", models.QuestStatusNotStarted).
		Exec(ctx)
	return err
}

// MarkComplete is atomic per (user, quest): the conditional upsert transitions
// the row at most once, so concurrent duplicates produce exactly one
// completed_at. Duplicates get ErrAlreadyComplete.
func (r *questRecordRepository) MarkComplete(ctx context.Context, discordID string, questIndex int) error {
	if _, ok := models.QuestByIndex(questIndex); !ok {
		return fmt.Errorf("unknown quest index %d", questIndex)
	}
	if err := r.checkPrerequisite(ctx, discordID, questIndex); err != nil {
		return err
	}

	now := time.Now()
	rec := &models.QuestRecord{
		DiscordID:   discordID,
		QuestIndex:  questIndex,
		Status:      models.QuestStatusComplete,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := r.db.NewInsert().
		Model(rec).
		On("CONFLICT (discord_id, quest_index) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("completed_at = EXCLUDED.completed_at").
		Set("updated_at = EXCLUDED.updated_at").
		Where("qr.status <> ?", models.QuestStatusComplete).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyComplete
	}

	return nil
}

func (r *questRecordRepository) CountCompleted(ctx context.Context, questIndex int) (int, error) {
	return r.db.NewSelect().
		Model((*models.QuestRecord)(nil)).
		Where("quest_index = ? AND status = ?", questIndex, models.QuestStatusComplete).
		Count(ctx)
}

// CountCompletedThrough counts users that have completed every quest from 1
// through questIndex.
func (r *questRecordRepository) CountCompletedThrough(ctx context.Context, questIndex int) (int, error) {
	var count int
	err := r.db.NewRaw(`
		SELECT COUNT(*) FROM (
			SELECT discord_id FROM quest_records
			WHERE status = ? AND quest_index <= ?
			GROUP BY discord_id
			HAVING COUNT(DISTINCT quest_index) = ?
		) completed`,
		models.QuestStatusComplete, questIndex, questIndex,
	).Scan(ctx, &count)
	return count, err
}

// Reset deletes this user's records from fromIndex onward. Resetting from
// index 1 requires the caller to also clear the steam link, or the
// link-iff-quest-1-complete invariant breaks.
func (r *questRecordRepository) Reset(ctx context.Context, discordID string, fromIndex int) error {
	_, err := r.db.NewDelete().
		Model((*models.QuestRecord)(nil)).
		Where("discord_id = ? AND quest_index >= ?", discordID, fromIndex).
		Exec(ctx)
	return err
}

// checkPrerequisite enforces the quest ordering: everything past the linking
// quest requires the linking quest complete. Safe outside the upsert because
// completion is monotonic.
func (r *questRecordRepository) checkPrerequisite(ctx context.Context, discordID string, questIndex int) error {
	if questIndex == models.QuestIndexLink {
		return nil
	}
	status, err := r.GetStatus(ctx, discordID, models.QuestIndexLink)
	if err != nil {
		return err
	}
	if status != models.QuestStatusComplete {
		return ErrPrerequisiteUnmet
	}
	return nil
}
