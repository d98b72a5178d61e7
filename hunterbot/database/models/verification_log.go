package models

import (
	"time"

	"github.com/uptrace/bun"
)

// VerificationLog records the outcome of a single external verification
// attempt. Kept for campaign stats and for debugging Steam rate limiting.
type VerificationLog struct {
	bun.BaseModel `bun:"table:verification_logs,alias:vl"`

	ID         int64     `bun:"id,pk,autoincrement"`
	DiscordID  string    `bun:"discord_id,notnull"`
	QuestIndex int       `bun:"quest_index,notnull"`
	SteamID    string    `bun:"steam_id,notnull"`
	Verdict    string    `bun:"verdict,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
