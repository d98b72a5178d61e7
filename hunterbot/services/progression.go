package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/repositories"
	"github.com/spotzerodev/hunter-bot/hunterbot/steam"
)

type LinkStatus int

const (
	LinkOK LinkStatus = iota
	// LinkAlreadyLinked: this user already completed linking; no writes.
	LinkAlreadyLinked
	// LinkConflict: the steam id belongs to a different user; no writes.
	LinkConflict
)

type LinkResult struct {
	Status  LinkStatus
	SteamID string
}

type VerifyStatus int

const (
	VerifyCompleted VerifyStatus = iota
	VerifyAlreadyComplete
	// VerifyNotSatisfied: the external condition is definitively not met yet.
	VerifyNotSatisfied
	// VerifyUnavailable: the external check could not run; try again later.
	VerifyUnavailable
	// VerifyLinkRequired: the linking quest gates this one.
	VerifyLinkRequired
)

type VerifyResult struct {
	Status VerifyStatus
	Quest  models.Quest
}

// Progression drives the quest state machine. It holds no state of its own:
// all durable state lives behind the injected stores, all external facts
// behind the verifier.
type Progression struct {
	links    repositories.LinkRepository
	ledger   repositories.QuestRecordRepository
	audit    repositories.VerificationLogRepository
	verifier steam.Verifier
	appID    string
	postRef  string
}

func NewProgression(
	links repositories.LinkRepository,
	ledger repositories.QuestRecordRepository,
	audit repositories.VerificationLogRepository,
	verifier steam.Verifier,
	appID string,
	postRef string,
) *Progression {
	return &Progression{
		links:    links,
		ledger:   ledger,
		audit:    audit,
		verifier: verifier,
		appID:    appID,
		postRef:  postRef,
	}
}

// RequestLink binds a steam id to the user and completes the linking quest.
// Re-linking an already linked user is a no-op; claiming an id held by
// someone else is a conflict and leaves the quest untouched.
func (p *Progression) RequestLink(ctx context.Context, discordID string, steamID string) (*LinkResult, error) {
	status, err := p.ledger.GetStatus(ctx, discordID, models.QuestIndexLink)
	if err != nil {
		return nil, fmt.Errorf("failed to load quest status: %w", err)
	}
	if status == models.QuestStatusComplete {
		return &LinkResult{Status: LinkAlreadyLinked}, nil
	}

	if _, err := p.links.CreateOrGet(ctx, discordID); err != nil {
		return nil, fmt.Errorf("failed to ensure link row: %w", err)
	}

	if err := p.links.SetSteamID(ctx, discordID, steamID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSteamIDTaken):
			return &LinkResult{Status: LinkConflict}, nil
		case errors.Is(err, repositories.ErrAlreadyLinked):
			return &LinkResult{Status: LinkAlreadyLinked}, nil
		}
		return nil, fmt.Errorf("failed to set steam id: %w", err)
	}

	// The link and its quest live in separate stores with no shared
	// transaction. If this write fails after the link committed, the two
	// briefly disagree; a retry with the same steam id passes the guarded
	// update above and lands here again, restoring the pairing.
	if err := p.ledger.MarkComplete(ctx, discordID, models.QuestIndexLink); err != nil &&
		!errors.Is(err, repositories.ErrAlreadyComplete) {
		return nil, fmt.Errorf("failed to complete linking quest: %w", err)
	}

	slog.Info("Steam account linked",
		slog.String("type", "sys"),
		slog.String("discord_id", discordID))

	return &LinkResult{Status: LinkOK, SteamID: steamID}, nil
}

// RequestVerify runs the external check for a verifiable quest and completes
// it on a satisfied verdict. An unreachable verifier mutates nothing.
func (p *Progression) RequestVerify(ctx context.Context, discordID string, questIndex int) (*VerifyResult, error) {
	quest, ok := models.QuestByIndex(questIndex)
	if !ok || quest.Kind == models.QuestKindLink {
		return nil, fmt.Errorf("quest %d is not verifiable", questIndex)
	}
	res := &VerifyResult{Quest: quest}

	status, err := p.ledger.GetStatus(ctx, discordID, questIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load quest status: %w", err)
	}
	if status == models.QuestStatusComplete {
		res.Status = VerifyAlreadyComplete
		return res, nil
	}

	link, err := p.links.GetByDiscordID(ctx, discordID)
	if err != nil {
		if errors.Is(err, repositories.ErrLinkNotFound) {
			res.Status = VerifyLinkRequired
			return res, nil
		}
		return nil, fmt.Errorf("failed to load link: %w", err)
	}
	if !link.Linked() {
		res.Status = VerifyLinkRequired
		return res, nil
	}

	var verdict steam.Verdict
	var verifyErr error
	switch quest.Kind {
	case models.QuestKindWishlist:
		verdict, verifyErr = p.verifier.VerifyWishlist(ctx, *link.SteamID, p.appID)
	case models.QuestKindEngagement:
		verdict, verifyErr = p.verifier.VerifyEngagement(ctx, *link.SteamID, p.postRef)
	}

	p.recordVerification(ctx, discordID, questIndex, *link.SteamID, verdict)

	switch verdict {
	case steam.VerdictUnreachable:
		slog.Warn("Verification unavailable",
			slog.String("type", "sys"),
			slog.String("discord_id", discordID),
			slog.Int("quest_index", questIndex),
			slog.Any("error", verifyErr))
		res.Status = VerifyUnavailable
		return res, nil
	case steam.VerdictAbsent:
		res.Status = VerifyNotSatisfied
		return res, nil
	}

	if err := p.ledger.MarkComplete(ctx, discordID, questIndex); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyComplete):
			// Lost a race with a duplicate request; the quest is done either way.
			res.Status = VerifyAlreadyComplete
			return res, nil
		case errors.Is(err, repositories.ErrPrerequisiteUnmet):
			res.Status = VerifyLinkRequired
			return res, nil
		}
		return nil, fmt.Errorf("failed to complete quest: %w", err)
	}

	slog.Info("Quest completed",
		slog.String("type", "sys"),
		slog.String("discord_id", discordID),
		slog.Int("quest_index", questIndex))

	res.Status = VerifyCompleted
	return res, nil
}

// Progress ensures the user exists and returns their full quest sequence in
// order, for the renderer.
func (p *Progression) Progress(ctx context.Context, discordID string) ([]*models.QuestRecord, error) {
	if _, err := p.links.CreateOrGet(ctx, discordID); err != nil {
		return nil, fmt.Errorf("failed to ensure link row: %w", err)
	}
	return p.ledger.GetAll(ctx, discordID)
}

// CampaignWishlistCount is the number of users with a verified wishlist,
// shown against the campaign target.
func (p *Progression) CampaignWishlistCount(ctx context.Context) (int, error) {
	return p.ledger.CountCompleted(ctx, models.QuestIndexWishlist)
}

func (p *Progression) recordVerification(ctx context.Context, discordID string, questIndex int, steamID string, verdict steam.Verdict) {
	if p.audit == nil {
		return
	}
	err := p.audit.Create(ctx, &models.VerificationLog{
		DiscordID:  discordID,
		QuestIndex: questIndex,
		SteamID:    steamID,
		Verdict:    verdict.String(),
	})
	if err != nil {
		// The audit trail is best-effort; quest state is what matters.
		slog.Warn("Failed to record verification attempt",
			slog.String("type", "db"),
			slog.String("discord_id", discordID),
			slog.Any("error", err))
	}
}
