package commands

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
	"github.com/spotzerodev/hunter-bot/hunterbot"
	"github.com/spotzerodev/hunter-bot/hunterbot/config"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/spotzerodev/hunter-bot/hunterbot/utils"
)

var ResetUser = discord.SlashCommandCreate{
	Name:                     "resetuser",
	Description:              "🔄 Reset a user's quest progress",
	DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionAdministrator),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "The user to reset",
			Required:    true,
		},
		discord.ApplicationCommandOptionBool{
			Name:        "full",
			Description: "Also unlink their Steam account (default keeps the link)",
			Required:    false,
		},
	},
}

func ResetUserHandler(b *hunterbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		target := data.User("user")
		full := data.Bool("full")

		targetID := target.ID.String()

		if full {
			// Linking and quest 1 move together; a full reset drops both.
			// The two writes span separate stores: if unlinking fails the
			// quests are already gone, and rerunning the command clears the
			// leftover link.
			if err := b.QuestRepository.Reset(ctx, targetID, models.QuestIndexLink); err != nil {
				return utils.EH.CreateErrorEmbed(e, "Failed to reset quest progress")
			}
			if err := b.LinkRepository.ClearSteamID(ctx, targetID); err != nil {
				return utils.EH.CreateErrorEmbed(e, "Quests were reset but unlinking failed")
			}
			return utils.EH.CreateSuccessEmbed(e,
				"All quest progress wiped and Steam account unlinked for "+target.Mention())
		}

		// Default reset keeps the Steam link and the linking quest, matching
		// the support flow where a user retries verification.
		if err := b.QuestRepository.Reset(ctx, targetID, models.QuestIndexWishlist); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to reset quest progress")
		}

		return utils.EH.CreateSuccessEmbed(e,
			"Verification quests reset for "+target.Mention()+". Their Steam link was kept.")
	}
}
