package components

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/spotzerodev/hunter-bot/hunterbot/config"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/spotzerodev/hunter-bot/hunterbot/utils"
)

// QuestEmbed renders the hunter program welcome embed: the campaign-wide
// wishlist milestone bar plus one field per quest.
func QuestEmbed(records []*models.QuestRecord, wishlistCount, wishlistTarget int) discord.Embed {
	view := utils.RenderProgress(records)
	campaignBar := utils.ProgressBar(wishlistCount, wishlistTarget, config.ProgressBarLength)

	embed := discord.Embed{
		Title: "Welcome to the Spot Zero Hunter Program",
		Description: fmt.Sprintf("**Wishlist Milestone**\n%s\n\n**Your Progress: %d of %d (%s)**",
			campaignBar, view.Completed, view.Total, view.Milestone),
		Color: config.EmbedDefaultColor,
	}

	inline := false
	for _, rec := range records {
		quest, ok := models.QuestByIndex(rec.QuestIndex)
		if !ok {
			continue
		}
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   fmt.Sprintf("Quest %d: %s", quest.Index, quest.Name),
			Value:  utils.StatusLabel(rec.Status),
			Inline: &inline,
		})
	}

	return embed
}

// QuestComponents builds the interaction rows. Buttons for completed quests
// stay visible but disabled.
func QuestComponents(userID string, postURL string, records []*models.QuestRecord) []discord.ContainerComponent {
	done := make(map[int]bool, len(records))
	for _, rec := range records {
		done[rec.QuestIndex] = rec.Status == models.QuestStatusComplete
	}

	rows := []discord.ContainerComponent{
		discord.NewActionRow(
			discord.NewPrimaryButton("🔗 Link Steam ID", questComponentID("link", userID)).
				WithDisabled(done[models.QuestIndexLink]),
			discord.NewPrimaryButton("🎁 Verify Wishlist", questComponentID("verify-wishlist", userID)).
				WithDisabled(done[models.QuestIndexWishlist]),
		),
	}

	confirm := discord.NewSuccessButton("✅ I have liked the post", questComponentID("confirm-like", userID)).
		WithDisabled(done[models.QuestIndexEngagement])
	if postURL != "" {
		rows = append(rows, discord.NewActionRow(discord.NewLinkButton("👍 Like & Comment", postURL), confirm))
	} else {
		rows = append(rows, discord.NewActionRow(confirm))
	}

	return rows
}

func questComponentID(action, userID string) string {
	return fmt.Sprintf("/hunter/%s/%s", action, userID)
}
