package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"review-service/internal/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteLedger stores vote entries in a local sqlite database. Rows are
// only ever inserted, matching the append-only ledger contract.
type SQLiteLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteLedger opens the database and creates the votes table
func NewSQLiteLedger(dbPath string, logger *zap.Logger) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	l := &SQLiteLedger{
		db:     db,
		logger: logger,
	}

	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("SQLite ledger initialized", zap.String("db_path", dbPath))

	return l, nil
}

// migrate creates tables
func (l *SQLiteLedger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS votes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submitted_at DATETIME NOT NULL,
		user_name TEXT NOT NULL,
		filename TEXT NOT NULL,
		explicit_selected TEXT NOT NULL,
		moderate_selected TEXT NOT NULL,
		no_leak_selected TEXT NOT NULL,
		comments TEXT,
		partition TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_votes_filename ON votes(filename);
	CREATE INDEX IF NOT EXISTS idx_votes_user_name ON votes(user_name);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Votes retrieves all entries for a record key, oldest first
func (l *SQLiteLedger) Votes(ctx context.Context, recordKey, partition string) ([]models.VoteEntry, error) {
	query := `
		SELECT submitted_at, user_name, filename,
		       explicit_selected, moderate_selected, no_leak_selected, comments
		FROM votes
		WHERE filename = ?
		ORDER BY submitted_at ASC, id ASC
	`

	rows, err := l.db.QueryContext(ctx, query, recordKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var entries []models.VoteEntry
	for rows.Next() {
		var entry models.VoteEntry
		var submittedAt, explicit, moderate, noLeak string
		err := rows.Scan(
			&submittedAt,
			&entry.Reviewer,
			&entry.RecordKey,
			&explicit,
			&moderate,
			&noLeak,
			&entry.Comment,
		)
		if err != nil {
			l.logger.Error("Failed to scan vote entry", zap.Error(err))
			continue
		}
		entry.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt)
		entry.Judgments = models.Judgments{
			Explicit: models.ParseJudgment(explicit),
			Moderate: models.ParseJudgment(moderate),
			NoLeak:   models.ParseJudgment(noLeak),
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	return entries, nil
}

// Append inserts one entry
func (l *SQLiteLedger) Append(ctx context.Context, entry models.VoteEntry, partition string) error {
	query := `
		INSERT INTO votes (
			submitted_at, user_name, filename,
			explicit_selected, moderate_selected, no_leak_selected,
			comments, partition
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		entry.SubmittedAt.UTC().Format(time.RFC3339),
		entry.Reviewer,
		entry.RecordKey,
		string(entry.Judgments.Explicit),
		string(entry.Judgments.Moderate),
		string(entry.Judgments.NoLeak),
		entry.Comment,
		partition,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerWrite, err)
	}

	return nil
}

// Close closes the database connection
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
