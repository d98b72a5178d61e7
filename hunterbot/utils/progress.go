package utils

import (
	"fmt"
	"strings"

	"github.com/spotzerodev/hunter-bot/hunterbot/config"
	"github.com/spotzerodev/hunter-bot/hunterbot/database/models"
)

// ProgressView is the display form of a user's quest ledger. Pure data, no
// side effects anywhere in this file.
type ProgressView struct {
	Completed int
	Total     int
	Percent   int
	Milestone string
	Bar       string
}

// RenderProgress folds an ordered quest sequence into its display form.
// For the three-quest program the milestone buckets land on 0/33/66/100.
func RenderProgress(records []*models.QuestRecord) ProgressView {
	completed := 0
	for _, rec := range records {
		if rec.Status == models.QuestStatusComplete {
			completed++
		}
	}

	total := len(records)
	percent := 0
	if total > 0 {
		percent = completed * 100 / total
	}

	return ProgressView{
		Completed: completed,
		Total:     total,
		Percent:   percent,
		Milestone: fmt.Sprintf("%d%%", percent),
		Bar:       ProgressBar(completed, total, config.ProgressBarLength),
	}
}

// ProgressBar renders a fixed-width bar like "[███░░░░░░░] 3 / 10".
func ProgressBar(current, total, length int) string {
	if total <= 0 {
		return "[" + strings.Repeat("░", length) + "] 0 / 0"
	}
	if current > total {
		current = total
	}

	filled := current * length / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
	return fmt.Sprintf("[%s] %s / %s", bar, FormatCount(current), FormatCount(total))
}

// FormatCount groups digits with commas: 32500 -> "32,500".
func FormatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// StatusLabel is the embed field text for one quest status.
func StatusLabel(status models.QuestStatus) string {
	switch status {
	case models.QuestStatusComplete:
		return "✅ Complete"
	case models.QuestStatusPending:
		return "⏳ Pending"
	default:
		return "❌ Incomplete"
	}
}
