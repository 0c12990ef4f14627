package models

import "time"

// Judgment is a reviewer's decision for one caption variant
type Judgment string

const (
	JudgmentAccepted Judgment = "accepted"
	JudgmentRejected Judgment = "rejected"
	JudgmentNone     Judgment = "none"
)

// ParseJudgment coerces an arbitrary stored value into a valid judgment.
// Anything outside the known set degrades to "none" instead of failing
// the whole reconciliation.
func ParseJudgment(s string) Judgment {
	switch Judgment(s) {
	case JudgmentAccepted, JudgmentRejected:
		return Judgment(s)
	default:
		return JudgmentNone
	}
}

// Judgments holds one decision per caption variant
type Judgments struct {
	Explicit Judgment `json:"explicit_selected"`
	Moderate Judgment `json:"moderate_selected"`
	NoLeak   Judgment `json:"no_leak_selected"`
}

// Normalize coerces every field through ParseJudgment
func (j Judgments) Normalize() Judgments {
	return Judgments{
		Explicit: ParseJudgment(string(j.Explicit)),
		Moderate: ParseJudgment(string(j.Moderate)),
		NoLeak:   ParseJudgment(string(j.NoLeak)),
	}
}

// VoteEntry is one durable row in the vote ledger. Field names follow the
// ledger column order: timestamp, user_name, filename, explicit_selected,
// moderate_selected, no_leak_selected, comments.
type VoteEntry struct {
	Reviewer    string    `json:"user_name"`
	RecordKey   string    `json:"filename"`
	Judgments   Judgments `json:"judgments"`
	Comment     string    `json:"comments"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Record is one reviewable dataset item. Payload is opaque to the core;
// only the image reference is extracted for serving.
type Record struct {
	Key      string         `json:"key"`
	Dataset  string         `json:"dataset"`
	ImageRef string         `json:"image_ref,omitempty"`
	Payload  map[string]any `json:"payload"`
}
