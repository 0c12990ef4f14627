package session

import "review-service/internal/models"

// UIState is what one reviewer should see for the current record: their
// previously stored judgments, if any, and whether further edits are
// locked because a vote already exists.
type UIState struct {
	Judgments models.Judgments `json:"judgments"`
	Comment   string           `json:"comments"`
	Locked    bool             `json:"locked"`
}

// DeriveUIState reconciles stored vote entries with the selected reviewer.
// Pure function: no I/O, same inputs give same output. If the ledger ever
// holds duplicate entries for one (reviewer, record) pair the first one is
// authoritative. Unknown judgment values degrade to "none".
func DeriveUIState(entries []models.VoteEntry, reviewer string) UIState {
	for _, e := range entries {
		if e.Reviewer != reviewer {
			continue
		}
		return UIState{
			Judgments: e.Judgments.Normalize(),
			Comment:   e.Comment,
			Locked:    true,
		}
	}

	return UIState{
		Judgments: models.Judgments{
			Explicit: models.JudgmentNone,
			Moderate: models.JudgmentNone,
			NoLeak:   models.JudgmentNone,
		},
	}
}
