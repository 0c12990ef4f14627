package ledger

import (
	"context"

	"review-service/internal/models"
)

// Ledger is an append-only store of vote entries. Appends are at least
// once; nothing is ever updated or deleted. A partition routes the entry
// to a dataset-scoped sub-ledger (e.g. a spreadsheet tab); empty means
// the backend's default partition. Backends without partitions ignore it.
type Ledger interface {
	// Votes returns every stored entry for one record key.
	Votes(ctx context.Context, recordKey, partition string) ([]models.VoteEntry, error)

	// Append durably stores one entry.
	Append(ctx context.Context, entry models.VoteEntry, partition string) error

	Close() error
}

// Header is the canonical ledger column order.
var Header = []string{
	"timestamp",
	"user_name",
	"filename",
	"explicit_selected",
	"moderate_selected",
	"no_leak_selected",
	"comments",
}
