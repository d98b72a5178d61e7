package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/spotzerodev/hunter-bot/hunterbot"
	"github.com/spotzerodev/hunter-bot/hunterbot/config"
)

var Version = discord.SlashCommandCreate{
	Name:        "version",
	Description: "🤖 Show the running bot build",
}

func versionEmbed(version, commit string) discord.Embed {
	return discord.Embed{
		Title:       "Hunter Bot",
		Description: fmt.Sprintf("Version: `%s`\nCommit: `%s`", version, commit),
		Color:       config.InfoColor,
	}
}

func VersionHandler(b *hunterbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{versionEmbed(b.Version, b.Commit)},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}
