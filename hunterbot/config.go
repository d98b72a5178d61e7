package hunterbot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spotzerodev/hunter-bot/hunterbot/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	// Secrets come from the environment when not in the file.
	if cfg.Bot.Token == "" {
		cfg.Bot.Token = os.Getenv("DISCORD_TOKEN")
	}
	if cfg.App.SteamAPIKey == "" {
		cfg.App.SteamAPIKey = os.Getenv("STEAM_API_KEY")
	}

	if cfg.App.WishlistTarget <= 0 {
		cfg.App.WishlistTarget = 50000
	}

	return &cfg, nil
}

type Config struct {
	Log LogConfig           `toml:"log"`
	Bot BotConfig           `toml:"bot"`
	DB  database.PoolConfig `toml:"db"`
	App AppConfig           `toml:"app"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
	// HunterRoleID, when set, is granted on full quest completion.
	HunterRoleID snowflake.ID `toml:"hunter_role_id"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

type AppConfig struct {
	SteamAPIKey      string `toml:"steam_api_key"`
	AppID            string `toml:"app_id"`
	CommunityPostURL string `toml:"community_post_url"`
	WishlistTarget   int    `toml:"wishlist_target"`
	// SQLitePath switches persistence to the single-file embedded store.
	SQLitePath string `toml:"sqlite_path"`
}
