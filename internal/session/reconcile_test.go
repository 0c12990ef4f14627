package session

import (
	"testing"
	"time"

	"review-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func entry(reviewer, key string, explicit, moderate, noLeak models.Judgment, comment string) models.VoteEntry {
	return models.VoteEntry{
		Reviewer:  reviewer,
		RecordKey: key,
		Judgments: models.Judgments{
			Explicit: explicit,
			Moderate: moderate,
			NoLeak:   noLeak,
		},
		Comment:     comment,
		SubmittedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeriveUIState_NoEntryForReviewer(t *testing.T) {
	entries := []models.VoteEntry{
		entry("bob", "a.json", models.JudgmentAccepted, models.JudgmentRejected, models.JudgmentNone, "fine"),
	}

	state := DeriveUIState(entries, "alina")

	assert.False(t, state.Locked)
	assert.Empty(t, state.Comment)
	assert.Equal(t, models.JudgmentNone, state.Judgments.Explicit)
	assert.Equal(t, models.JudgmentNone, state.Judgments.Moderate)
	assert.Equal(t, models.JudgmentNone, state.Judgments.NoLeak)
}

func TestDeriveUIState_MatchLocks(t *testing.T) {
	entries := []models.VoteEntry{
		entry("bob", "a.json", models.JudgmentRejected, models.JudgmentRejected, models.JudgmentRejected, "nope"),
		entry("alina", "a.json", models.JudgmentAccepted, models.JudgmentRejected, models.JudgmentAccepted, "ok"),
	}

	state := DeriveUIState(entries, "alina")

	assert.True(t, state.Locked)
	assert.Equal(t, "ok", state.Comment)
	assert.Equal(t, models.JudgmentAccepted, state.Judgments.Explicit)
	assert.Equal(t, models.JudgmentRejected, state.Judgments.Moderate)
	assert.Equal(t, models.JudgmentAccepted, state.Judgments.NoLeak)
}

func TestDeriveUIState_FirstDuplicateWins(t *testing.T) {
	entries := []models.VoteEntry{
		entry("alina", "a.json", models.JudgmentAccepted, models.JudgmentNone, models.JudgmentNone, "first"),
		entry("alina", "a.json", models.JudgmentRejected, models.JudgmentRejected, models.JudgmentRejected, "second"),
	}

	state := DeriveUIState(entries, "alina")

	assert.True(t, state.Locked)
	assert.Equal(t, "first", state.Comment)
	assert.Equal(t, models.JudgmentAccepted, state.Judgments.Explicit)
}

func TestDeriveUIState_UnknownJudgmentDegradesToNone(t *testing.T) {
	entries := []models.VoteEntry{
		entry("alina", "a.json", models.Judgment("maybe"), models.JudgmentAccepted, models.Judgment("YES"), ""),
	}

	state := DeriveUIState(entries, "alina")

	assert.True(t, state.Locked)
	assert.Equal(t, models.JudgmentNone, state.Judgments.Explicit)
	assert.Equal(t, models.JudgmentAccepted, state.Judgments.Moderate)
	assert.Equal(t, models.JudgmentNone, state.Judgments.NoLeak)
}

func TestDeriveUIState_Idempotent(t *testing.T) {
	entries := []models.VoteEntry{
		entry("alina", "a.json", models.JudgmentAccepted, models.JudgmentRejected, models.JudgmentNone, "ok"),
	}

	first := DeriveUIState(entries, "alina")
	second := DeriveUIState(entries, "alina")

	assert.Equal(t, first, second)
}

func TestDeriveUIState_EmptyEntries(t *testing.T) {
	state := DeriveUIState(nil, "alina")

	assert.False(t, state.Locked)
	assert.Equal(t, models.JudgmentNone, state.Judgments.Explicit)
}
