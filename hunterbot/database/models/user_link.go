package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserLink maps a Discord identity to a Steam identity. SteamID stays nil
// until the linking quest completes; the two are set together and only
// together.
type UserLink struct {
	bun.BaseModel `bun:"table:user_links,alias:ul"`

	ID        int64      `bun:"id,pk,autoincrement"`
	DiscordID string     `bun:"discord_id,notnull,unique"`
	SteamID   *string    `bun:"steam_id,nullzero"`
	LinkedAt  *time.Time `bun:"linked_at,nullzero"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
}

func (l *UserLink) Linked() bool {
	return l.SteamID != nil && *l.SteamID != ""
}
