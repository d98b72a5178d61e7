package commands

import (
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{
	Steam,
	QuestStats,
	ResetUser,
	Version,
}
