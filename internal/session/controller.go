package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"review-service/internal/ledger"
	"review-service/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecordSource is the read-only record repository the controller loads
// listings and content from.
type RecordSource interface {
	ListRecords(ctx context.Context, dataset string) ([]string, error)
	GetRecord(ctx context.Context, dataset, key string) (*models.Record, error)
}

// Config is the per-deployment knowledge the controller is constructed
// with: the reviewer roster, the known datasets, and how each dataset
// routes to a ledger partition.
type Config struct {
	Reviewers  []string
	Datasets   []string
	Partitions map[string]string
}

// Controller sequences one reviewer session: dataset selection, record
// loading, vote loading, vote submission and the optimistic local merge.
// It is safe for concurrent use; a navigation issued while a load is
// still in flight supersedes it, and the late result is discarded.
type Controller struct {
	cfg     Config
	records RecordSource
	votes   ledger.Ledger
	logger  *zap.Logger

	mu        sync.Mutex
	nav       Navigator
	dataset   string
	reviewer  string
	current   *models.Record
	voteCache []models.VoteEntry // ledger-sourced entries for the current record
	pending   []models.VoteEntry // optimistic local overlay, not yet re-fetched
	loading   bool
	loadGen   uint64 // bumped whenever cached record state is invalidated
	listErr   error  // dataset-scoped; blocks navigation until reselect
	recordErr error  // record-scoped; cleared on the next load
}

// Snapshot is a point-in-time view of the session for the transport layer
type Snapshot struct {
	Dataset     string             `json:"dataset"`
	Reviewer    string             `json:"reviewer"`
	Position    int                `json:"position"`
	Total       int                `json:"total"`
	RecordKey   string             `json:"record_key,omitempty"`
	Record      *models.Record     `json:"record,omitempty"`
	Votes       []models.VoteEntry `json:"votes"`
	UIState     UIState            `json:"ui_state"`
	CanAdvance  bool               `json:"can_advance"`
	CanRetreat  bool               `json:"can_retreat"`
	Loading     bool               `json:"loading"`
	DatasetErr  string             `json:"dataset_error,omitempty"`
	RecordErr   string             `json:"record_error,omitempty"`
}

// NewController creates a new session controller
func NewController(cfg Config, records RecordSource, votes ledger.Ledger, logger *zap.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		records: records,
		votes:   votes,
		logger:  logger,
	}
}

// SelectDataset switches the active dataset. All cached record and vote
// state is dropped before the new listing is fetched; a listing failure
// leaves the session with no current record and navigation blocked until
// a reselect succeeds.
func (c *Controller) SelectDataset(ctx context.Context, name string) error {
	if !contains(c.cfg.Datasets, name) {
		return fmt.Errorf("%w: unknown dataset %q", models.ErrValidation, name)
	}

	c.mu.Lock()
	c.dataset = name
	c.nav.Reset(nil)
	c.current = nil
	c.voteCache = nil
	c.pending = nil
	c.listErr = nil
	c.recordErr = nil
	c.loadGen++ // invalidate any in-flight load
	// The superseded load will not clear the flag itself, and a failed
	// or empty listing starts no new load to clear it either.
	c.loading = false
	c.mu.Unlock()

	keys, err := c.records.ListRecords(ctx, name)
	if err != nil {
		c.mu.Lock()
		if c.dataset == name {
			c.listErr = err
		}
		c.mu.Unlock()
		c.logger.Error("Dataset listing failed", zap.String("dataset", name), zap.Error(err))
		return err
	}

	c.mu.Lock()
	if c.dataset != name {
		// superseded by another SelectDataset
		c.mu.Unlock()
		return nil
	}
	c.nav.Reset(keys)
	empty := c.nav.Len() == 0
	c.mu.Unlock()

	c.logger.Info("Dataset selected",
		zap.String("dataset", name),
		zap.Int("records", len(keys)))

	if empty {
		return nil
	}

	if err := c.LoadCurrent(ctx); err != nil {
		// record-scoped; held in the snapshot, dataset selection itself
		// succeeded
		c.logger.Warn("First record load failed", zap.Error(err))
	}
	return nil
}

// LoadCurrent fetches record content and vote history for the record at
// the current position. The two fetches run concurrently; a ledger
// failure degrades to an empty vote set, a repository failure fails the
// load. If navigation moved on while the fetches were in flight the late
// result is discarded.
func (c *Controller) LoadCurrent(ctx context.Context) error {
	c.mu.Lock()
	key, ok := c.nav.Key()
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: no current record", models.ErrValidation)
	}
	dataset := c.dataset
	partition := c.cfg.Partitions[dataset]

	// Entering LOADING clears record and votes atomically; a stale
	// record is never shown next to a fresh vote cache or vice versa.
	c.loadGen++
	gen := c.loadGen
	c.loading = true
	c.current = nil
	c.voteCache = nil
	c.pending = nil
	c.recordErr = nil
	c.mu.Unlock()

	var rec *models.Record
	var entries []models.VoteEntry

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := c.records.GetRecord(gctx, dataset, key)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})

	g.Go(func() error {
		// Best effort: vote history being unavailable must not block
		// caption viewing.
		v, err := c.votes.Votes(gctx, key, partition)
		if err != nil {
			c.logger.Warn("Vote fetch failed, assuming empty",
				zap.String("record", key), zap.Error(err))
			return nil
		}
		entries = v
		return nil
	})

	loadErr := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.loadGen {
		// A newer load or dataset switch took over; drop this result.
		c.logger.Debug("Discarding stale load result", zap.String("record", key))
		return nil
	}

	c.loading = false
	if loadErr != nil {
		c.recordErr = loadErr
		c.logger.Error("Record load failed", zap.String("record", key), zap.Error(loadErr))
		return loadErr
	}

	c.current = rec
	c.voteCache = entries
	return nil
}

// Advance moves to the next record and loads it. No-op at the end of the
// sequence.
func (c *Controller) Advance(ctx context.Context) error {
	return c.step(ctx, (*Navigator).Advance)
}

// Retreat moves to the previous record and loads it. No-op at the start
// of the sequence.
func (c *Controller) Retreat(ctx context.Context) error {
	return c.step(ctx, (*Navigator).Retreat)
}

func (c *Controller) step(ctx context.Context, move func(*Navigator) bool) error {
	c.mu.Lock()
	if c.listErr != nil {
		err := c.listErr
		c.mu.Unlock()
		return err
	}
	moved := move(&c.nav)
	c.mu.Unlock()

	if !moved {
		return nil
	}
	return c.LoadCurrent(ctx)
}

// SetReviewer switches the selected reviewer identity. Reconciliation is
// re-derived from the already cached entries; no reload happens.
func (c *Controller) SetReviewer(name string) error {
	if !contains(c.cfg.Reviewers, name) {
		return fmt.Errorf("%w: unknown reviewer %q", models.ErrValidation, name)
	}

	c.mu.Lock()
	c.reviewer = name
	c.mu.Unlock()
	return nil
}

// SubmitVote validates the input, appends a vote entry to the ledger and,
// on success, merges it into the local cache and auto-advances to the
// next record. On failure nothing changes and the ledger error is
// returned as-is.
func (c *Controller) SubmitVote(ctx context.Context, reviewer string, judgments models.Judgments, comment string) error {
	c.mu.Lock()

	if reviewer == "" {
		c.mu.Unlock()
		return fmt.Errorf("%w: no reviewer selected", models.ErrValidation)
	}
	if !contains(c.cfg.Reviewers, reviewer) {
		c.mu.Unlock()
		return fmt.Errorf("%w: unknown reviewer %q", models.ErrValidation, reviewer)
	}

	key, ok := c.nav.Key()
	if !ok || c.current == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no record loaded", models.ErrValidation)
	}

	if DeriveUIState(c.entriesLocked(), reviewer).Locked {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q already voted on %s", models.ErrValidation, reviewer, key)
	}

	entry := models.VoteEntry{
		Reviewer:    reviewer,
		RecordKey:   key,
		Judgments:   judgments.Normalize(),
		Comment:     comment,
		SubmittedAt: time.Now().UTC(),
	}
	partition := c.cfg.Partitions[c.dataset]
	gen := c.loadGen
	c.mu.Unlock()

	if err := c.votes.Append(ctx, entry, partition); err != nil {
		c.logger.Error("Vote append failed",
			zap.String("record", key),
			zap.String("reviewer", reviewer),
			zap.Error(err))
		return err
	}

	c.mu.Lock()
	if gen != c.loadGen {
		// The session navigated away while the append was in flight.
		// The vote is durable; it just must not leak into another
		// record's cache.
		c.mu.Unlock()
		c.logger.Warn("Vote saved for a record the session left",
			zap.String("record", key))
		return nil
	}

	c.pending = append(c.pending, entry)
	moved := c.nav.Advance()
	c.mu.Unlock()

	c.logger.Info("Vote saved",
		zap.String("record", key),
		zap.String("reviewer", reviewer))

	if moved {
		if err := c.LoadCurrent(ctx); err != nil {
			// The vote itself succeeded; the next record's failure is
			// record-scoped and surfaces through the snapshot.
			c.logger.Warn("Load after auto-advance failed", zap.Error(err))
		}
	}
	return nil
}

// Snapshot returns the current session view
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.entriesLocked()

	s := Snapshot{
		Dataset:    c.dataset,
		Reviewer:   c.reviewer,
		Position:   c.nav.Position(),
		Total:      c.nav.Len(),
		Record:     c.current,
		Votes:      entries,
		UIState:    DeriveUIState(entries, c.reviewer),
		CanAdvance: c.nav.CanAdvance(),
		CanRetreat: c.nav.CanRetreat(),
		Loading:    c.loading,
	}
	if key, ok := c.nav.Key(); ok {
		s.RecordKey = key
	}
	if c.listErr != nil {
		s.DatasetErr = c.listErr.Error()
	}
	if c.recordErr != nil {
		s.RecordErr = c.recordErr.Error()
	}
	return s
}

// entriesLocked merges ledger-sourced entries with the optimistic local
// overlay. Ledger entries come first so they stay authoritative if the
// same pair ever appears in both. Caller must hold c.mu.
func (c *Controller) entriesLocked() []models.VoteEntry {
	if len(c.pending) == 0 {
		return c.voteCache
	}
	merged := make([]models.VoteEntry, 0, len(c.voteCache)+len(c.pending))
	merged = append(merged, c.voteCache...)
	merged = append(merged, c.pending...)
	return merged
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
