package components

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/spotzerodev/hunter-bot/hunterbot"
	"github.com/spotzerodev/hunter-bot/hunterbot/config"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/spotzerodev/hunter-bot/hunterbot/services"
	"github.com/spotzerodev/hunter-bot/hunterbot/steam"
	"github.com/spotzerodev/hunter-bot/hunterbot/utils"
)

const linkModalID = "/hunter/link-modal"

// ownerID extracts the user id a quest component was rendered for:
// /hunter/{action}/{user_id}.
func ownerID(customID string) string {
	parts := strings.Split(customID, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// LinkButtonHandler opens the steam-link modal, unless the user is already
// linked.
func LinkButtonHandler(b *hunterbot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		if ownerID(e.Data.CustomID()) != e.User().ID.String() {
			return utils.EH.CreateEphemeralError(e, "These quests belong to someone else. Run /steam to get your own!")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		status, err := b.QuestRepository.GetStatus(ctx, e.User().ID.String(), models.QuestIndexLink)
		if err != nil {
			return utils.EH.CreateEphemeralError(e, "Failed to load your progress. Please try again.")
		}
		if status == models.QuestStatusComplete {
			return utils.EH.CreateEphemeralMessage(e, "✅ Your Steam account is already linked!")
		}

		return e.Modal(discord.ModalCreate{
			CustomID: linkModalID,
			Title:    "Link your Steam account",
			Components: []discord.ContainerComponent{
				discord.NewActionRow(discord.TextInputComponent{
					CustomID:    "steam_input",
					Style:       discord.TextInputStyleShort,
					Label:       "Steam ID or Profile URL",
					Placeholder: "Steam ID 64 or a steamcommunity.com profile URL",
					Required:    true,
					MaxLength:   200,
				}),
			},
		})
	}
}

// LinkModalHandler resolves the submitted steam id, validates the account and
// runs the linking transition.
func LinkModalHandler(b *hunterbot.Bot) handler.ModalHandler {
	return func(e *handler.ModalEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultVerifyTimeout)
		defer cancel()

		input := strings.TrimSpace(e.Data.Text("steam_input"))
		userID := e.User().ID.String()

		steamID, err := b.SteamClient.ResolveSteamID(ctx, input)
		if err != nil {
			if errors.Is(err, steam.ErrInvalidSteamID) {
				return modalError(e, "That doesn't look like a valid Steam ID or profile URL. Please enter a Steam ID 64 or a profile URL.")
			}
			return modalError(e, "Steam is not responding right now. Please try again in a moment.")
		}

		valid, err := b.SteamClient.VerifyAccount(ctx, steamID)
		if err != nil {
			return modalError(e, "Steam is not responding right now. Please try again in a moment.")
		}
		if !valid {
			return modalError(e, "Couldn't verify that Steam ID. Please check it and try again.")
		}

		result, err := b.Progression.RequestLink(ctx, userID, steamID)
		if err != nil {
			slog.Error("Link request failed",
				slog.String("type", "error"),
				slog.String("user_id", userID),
				slog.Any("error", err))
			return modalError(e, "Something went wrong on our side. Please try again.")
		}

		switch result.Status {
		case services.LinkConflict:
			return modalError(e, "That Steam account is already linked to another Discord user.")
		case services.LinkAlreadyLinked:
			return modalError(e, "You already have a linked Steam account.")
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Description: "✅ Steam account linked successfully! (Steam ID: " + result.SteamID + ")",
				Color:       config.SuccessColor,
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	}
}

// VerifyWishlistHandler runs the wishlist verification quest.
func VerifyWishlistHandler(b *hunterbot.Bot) handler.ComponentHandler {
	return verifyHandler(b, models.QuestIndexWishlist, verifyMessages{
		completed:    "Wishlist verified, quest complete!",
		notSatisfied: "Couldn't find the game on your wishlist. Add it (and make sure your profile is public), then try again.",
	})
}

// ConfirmLikeHandler runs the community-engagement quest.
func ConfirmLikeHandler(b *hunterbot.Bot) handler.ComponentHandler {
	return verifyHandler(b, models.QuestIndexEngagement, verifyMessages{
		completed:    "Thanks for supporting the post, quest complete!",
		notSatisfied: "We couldn't confirm your like yet. Please try again.",
	})
}

type verifyMessages struct {
	completed    string
	notSatisfied string
}

func verifyHandler(b *hunterbot.Bot, questIndex int, msgs verifyMessages) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		if ownerID(e.Data.CustomID()) != e.User().ID.String() {
			return utils.EH.CreateEphemeralError(e, "These quests belong to someone else. Run /steam to get your own!")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultVerifyTimeout)
		defer cancel()

		userID := e.User().ID.String()
		result, err := b.Progression.RequestVerify(ctx, userID, questIndex)
		if err != nil {
			slog.Error("Verify request failed",
				slog.String("type", "error"),
				slog.String("user_id", userID),
				slog.Int("quest_index", questIndex),
				slog.Any("error", err))
			return utils.EH.CreateEphemeralError(e, "Something went wrong on our side. Please try again.")
		}

		switch result.Status {
		case services.VerifyLinkRequired:
			return utils.EH.CreateEphemeralError(e, "Please link your Steam account first!")
		case services.VerifyNotSatisfied:
			return utils.EH.CreateEphemeralMessage(e, "❌ "+msgs.notSatisfied)
		case services.VerifyUnavailable:
			return utils.EH.CreateEphemeralMessage(e, "⏳ Steam is busy right now. Please try again in a few minutes.")
		case services.VerifyAlreadyComplete:
			return utils.EH.CreateEphemeralMessage(e, "✅ This quest is already complete!")
		}

		records, err := b.QuestRepository.GetAll(ctx, userID)
		if err == nil {
			maybeGrantHunterRole(b, e, records)
			count, countErr := b.Progression.CampaignWishlistCount(ctx)
			if countErr != nil {
				count = 0
			}
			embed := QuestEmbed(records, count, b.Cfg.App.WishlistTarget)
			comps := QuestComponents(userID, b.Cfg.App.CommunityPostURL, records)
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds:     &[]discord.Embed{embed},
				Components: &comps,
			})
		}

		return utils.EH.CreateEphemeralMessage(e, "✅ "+msgs.completed)
	}
}

// maybeGrantHunterRole grants the configured reward role once every quest is
// complete. Best-effort: a failed grant never fails the interaction.
func maybeGrantHunterRole(b *hunterbot.Bot, e *handler.ComponentEvent, records []*models.QuestRecord) {
	if b.Cfg.Bot.HunterRoleID == 0 || e.GuildID() == nil {
		return
	}
	for _, rec := range records {
		if rec.Status != models.QuestStatusComplete {
			return
		}
	}

	if err := e.Client().Rest().AddMemberRole(*e.GuildID(), e.User().ID, b.Cfg.Bot.HunterRoleID); err != nil {
		slog.Warn("Failed to grant hunter role",
			slog.String("type", "error"),
			slog.String("user_id", e.User().ID.String()),
			slog.Any("error", err))
		return
	}

	slog.Info("Hunter role granted",
		slog.String("type", "sys"),
		slog.String("user_id", e.User().ID.String()))
}

func modalError(e *handler.ModalEvent, message string) error {
	return e.CreateMessage(discord.MessageCreate{
		Content: "❌ " + message,
		Flags:   discord.MessageFlagEphemeral,
	})
}
