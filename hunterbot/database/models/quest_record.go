package models

import (
	"time"

	"github.com/uptrace/bun"
)

type QuestStatus string

const (
	QuestStatusNotStarted QuestStatus = "not_started"
	QuestStatusPending    QuestStatus = "pending"
	QuestStatusComplete   QuestStatus = "complete"
)

// QuestRecord is one user's completion state for one quest. At most one row
// exists per (discord_id, quest_index); CompletedAt is non-nil exactly when
// Status is complete.
type QuestRecord struct {
	bun.BaseModel `bun:"table:quest_records,alias:qr"`

	ID          int64       `bun:"id,pk,autoincrement"`
	DiscordID   string      `bun:"discord_id,notnull,unique:quest_records_user_quest"`
	QuestIndex  int         `bun:"quest_index,notnull,unique:quest_records_user_quest"`
	Status      QuestStatus `bun:"status,notnull,default:'not_started'"`
	CompletedAt *time.Time  `bun:"completed_at,nullzero"`
	CreatedAt   time.Time   `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time   `bun:"updated_at,notnull"`
}
