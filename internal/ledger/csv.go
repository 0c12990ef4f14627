package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"review-service/internal/models"

	"go.uber.org/zap"
)

// CSVLedger appends votes to a single CSV file. The file carries the
// canonical header row; partitions are not supported and silently ignored.
type CSVLedger struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewCSVLedger creates the file with a header row if it does not exist
func NewCSVLedger(path string, logger *zap.Logger) (*CSVLedger, error) {
	l := &CSVLedger{path: path, logger: logger}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.writeHeader(); err != nil {
			return nil, fmt.Errorf("failed to initialize votes file: %w", err)
		}
	}

	logger.Info("CSV ledger initialized", zap.String("path", path))
	return l, nil
}

func (l *CSVLedger) writeHeader() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Votes reads the whole file and filters by record key
func (l *CSVLedger) Votes(ctx context.Context, recordKey, partition string) ([]models.VoteEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: opening %s: %v", models.ErrLedgerUnavailable, l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Skip header
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading header: %v", models.ErrLedgerUnavailable, err)
	}

	var entries []models.VoteEntry
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing votes file: %v", models.ErrLedgerUnavailable, err)
		}
		if len(row) < len(Header) {
			l.logger.Warn("Skipping short ledger row", zap.Int("fields", len(row)))
			continue
		}
		if row[2] != recordKey {
			continue
		}
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// Append writes one row at the end of the file
func (l *CSVLedger) Append(ctx context.Context, entry models.VoteEntry, partition string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", models.ErrLedgerWrite, l.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(entryToRow(entry)); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerWrite, err)
	}

	return nil
}

// Close is a no-op; the file is opened per call
func (l *CSVLedger) Close() error {
	return nil
}

func entryToRow(entry models.VoteEntry) []string {
	return []string{
		entry.SubmittedAt.UTC().Format(time.RFC3339),
		entry.Reviewer,
		entry.RecordKey,
		string(entry.Judgments.Explicit),
		string(entry.Judgments.Moderate),
		string(entry.Judgments.NoLeak),
		entry.Comment,
	}
}

func rowToEntry(row []string) models.VoteEntry {
	ts, _ := time.Parse(time.RFC3339, row[0])
	return models.VoteEntry{
		SubmittedAt: ts,
		Reviewer:    row[1],
		RecordKey:   row[2],
		Judgments: models.Judgments{
			Explicit: models.ParseJudgment(row[3]),
			Moderate: models.ParseJudgment(row[4]),
			NoLeak:   models.ParseJudgment(row[5]),
		},
		Comment: row[6],
	}
}
