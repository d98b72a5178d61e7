package commands

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/spotzerodev/hunter-bot/hunterbot"
	"github.com/spotzerodev/hunter-bot/hunterbot/components"
	"github.com/spotzerodev/hunter-bot/hunterbot/config"
	"github.com/spotzerodev/hunter-bot/hunterbot/utils"
)

var Steam = discord.SlashCommandCreate{
	Name:        "steam",
	Description: "🎮 Start the hunter quests: link Steam, wishlist the game, like the post",
}

func SteamHandler(b *hunterbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		userID := e.User().ID.String()

		records, err := b.Progression.Progress(ctx, userID)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to load your quest progress")
		}

		wishlistCount, err := b.Progression.CampaignWishlistCount(ctx)
		if err != nil {
			wishlistCount = 0
		}

		embed := components.QuestEmbed(records, wishlistCount, b.Cfg.App.WishlistTarget)
		rows := components.QuestComponents(userID, b.Cfg.App.CommunityPostURL, records)

		return e.CreateMessage(discord.MessageCreate{
			Embeds:     []discord.Embed{embed},
			Components: rows,
			Flags:      discord.MessageFlagEphemeral,
		})
	}
}
