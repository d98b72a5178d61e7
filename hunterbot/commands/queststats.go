package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
	"github.com/disgoorg/paginator"
	"github.com/spotzerodev/hunter-bot/hunterbot"
	"github.com/spotzerodev/hunter-bot/hunterbot/config"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/spotzerodev/hunter-bot/hunterbot/utils"
	"golang.org/x/sync/errgroup"
)

var QuestStats = discord.SlashCommandCreate{
	Name:                     "queststats",
	Description:              "📊 Hunter program funnel: linked, wishlisted, fully complete",
	DefaultMemberPermissions: json.NewNullablePtr(discord.PermissionAdministrator),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionBool{
			Name:        "list",
			Description: "Also list every linked user",
			Required:    false,
		},
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Inspect one user's quest statuses and recent verification attempts",
			Required:    false,
		},
	},
}

func QuestStatsHandler(b *hunterbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		if user, ok := data.OptUser("user"); ok {
			return userAuditReply(ctx, b, e, user)
		}

		var linked, wishlisted, finished int

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			linked, err = b.LinkRepository.CountLinked(gctx)
			return err
		})
		g.Go(func() (err error) {
			wishlisted, err = b.QuestRepository.CountCompletedThrough(gctx, models.QuestIndexWishlist)
			return err
		})
		g.Go(func() (err error) {
			finished, err = b.QuestRepository.CountCompletedThrough(gctx, models.QuestIndexEngagement)
			return err
		})
		if err := g.Wait(); err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to compute quest stats")
		}

		if !data.Bool("list") {
			embed := statsEmbed(linked, wishlisted, finished, b.Cfg.App.WishlistTarget)
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{embed},
				Flags:  discord.MessageFlagEphemeral,
			})
		}

		links, err := b.LinkRepository.GetLinked(ctx)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to fetch linked users")
		}

		totalPages := int(math.Ceil(float64(len(links)) / float64(config.StatsPerPage)))
		if totalPages == 0 {
			totalPages = 1
		}

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				startIdx := page * config.StatsPerPage
				endIdx := min(startIdx+config.StatsPerPage, len(links))

				var sb strings.Builder
				sb.WriteString(fmt.Sprintf("Linked: **%s** · Wishlisted: **%s** · Finished: **%s**\n\n",
					utils.FormatCount(linked), utils.FormatCount(wishlisted), utils.FormatCount(finished)))

				for _, link := range links[startIdx:endIdx] {
					linkedAt := "unknown"
					if link.LinkedAt != nil {
						linkedAt = link.LinkedAt.Format(time.DateOnly)
					}
					sb.WriteString(fmt.Sprintf("<@%s> · `%s` · linked %s\n", link.DiscordID, *link.SteamID, linkedAt))
				}

				embed.SetTitle("📊 Hunter Program Stats").
					SetDescription(sb.String()).
					SetColor(config.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d · Total linked: %d", page+1, totalPages, len(links)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, true)
	}
}

// userAuditReply is the per-user support view: quest statuses plus the recent
// verification attempts from the audit trail.
func userAuditReply(ctx context.Context, b *hunterbot.Bot, e *handler.CommandEvent, user discord.User) error {
	records, err := b.QuestRepository.GetAll(ctx, user.ID.String())
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load quest progress")
	}
	logs, err := b.VerificationLogRepository.GetRecent(ctx, user.ID.String(), config.StatsPerPage)
	if err != nil {
		return utils.EH.CreateErrorEmbed(e, "Failed to load verification attempts")
	}

	var sb strings.Builder
	for _, rec := range records {
		quest, ok := models.QuestByIndex(rec.QuestIndex)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("Quest %d · %s: %s\n", quest.Index, quest.Name, utils.StatusLabel(rec.Status)))
	}

	sb.WriteString("\n**Recent verification attempts**\n")
	if len(logs) == 0 {
		sb.WriteString("none")
	}
	for _, l := range logs {
		sb.WriteString(fmt.Sprintf("<t:%d:R> quest %d · %s\n", l.CreatedAt.Unix(), l.QuestIndex, l.Verdict))
	}

	return e.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "🔎 Quest audit: " + user.Username,
			Description: sb.String(),
			Color:       config.InfoColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

func statsEmbed(linked, wishlisted, finished, target int) discord.Embed {
	inline := true
	bar := utils.ProgressBar(wishlisted, target, config.ProgressBarLength)
	return discord.Embed{
		Title:       "📊 Hunter Program Stats",
		Description: fmt.Sprintf("**Wishlist Milestone**\n%s", bar),
		Color:       config.InfoColor,
		Fields: []discord.EmbedField{
			{Name: "🔗 Linked Steam", Value: utils.FormatCount(linked), Inline: &inline},
			{Name: "🎁 Wishlist verified", Value: utils.FormatCount(wishlisted), Inline: &inline},
			{Name: "✅ All quests done", Value: utils.FormatCount(finished), Inline: &inline},
		},
	}
}
