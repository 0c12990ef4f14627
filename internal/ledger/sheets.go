package ledger

import (
	"context"
	"fmt"

	"review-service/internal/models"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsLedger appends votes as rows in a Google spreadsheet. Each ledger
// partition is a tab; column order matches Header.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	defaultTab    string
	logger        *zap.Logger
}

// SheetsConfig for the Sheets ledger
type SheetsConfig struct {
	SpreadsheetID   string
	DefaultTab      string // Tab used when no partition is given
	CredentialsFile string
	CredentialsJSON string // Takes precedence over CredentialsFile
}

// NewSheetsLedger creates a new Sheets-backed ledger
func NewSheetsLedger(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*SheetsLedger, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}

	if cfg.DefaultTab == "" {
		cfg.DefaultTab = "Sheet1"
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, fmt.Errorf("missing Google credentials")
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	logger.Info("Sheets ledger initialized",
		zap.String("spreadsheet_id", cfg.SpreadsheetID),
		zap.String("default_tab", cfg.DefaultTab))

	return &SheetsLedger{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		defaultTab:    cfg.DefaultTab,
		logger:        logger,
	}, nil
}

func (l *SheetsLedger) tab(partition string) string {
	if partition == "" {
		return l.defaultTab
	}
	return partition
}

// Votes reads the tab and filters rows by record key. Rows too short to
// carry a filename are skipped.
func (l *SheetsLedger) Votes(ctx context.Context, recordKey, partition string) ([]models.VoteEntry, error) {
	readRange := fmt.Sprintf("%s!A2:G", l.tab(partition))

	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", models.ErrLedgerUnavailable, readRange, err)
	}

	var entries []models.VoteEntry
	for _, raw := range resp.Values {
		if row, ok := matchRow(stringRow(raw), recordKey); ok {
			entries = append(entries, rowToEntry(row))
		}
	}

	return entries, nil
}

// matchRow reports whether a sheet row belongs to recordKey. The values
// API omits trailing empty cells, so a row with no comment comes back
// short; it is padded to the full column set rather than dropped.
func matchRow(row []string, recordKey string) ([]string, bool) {
	if len(row) <= 2 || row[2] != recordKey {
		return nil, false
	}
	for len(row) < len(Header) {
		row = append(row, "")
	}
	return row, true
}

// Append adds one row at the bottom of the routed tab
func (l *SheetsLedger) Append(ctx context.Context, entry models.VoteEntry, partition string) error {
	tab := l.tab(partition)

	row := make([]interface{}, 0, len(Header))
	for _, v := range entryToRow(entry) {
		row = append(row, v)
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := l.svc.Spreadsheets.Values.
		Append(l.spreadsheetID, fmt.Sprintf("%s!A1", tab), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	if err != nil {
		return fmt.Errorf("%w: appending to %s: %v", models.ErrLedgerWrite, tab, err)
	}

	l.logger.Debug("Vote row appended",
		zap.String("tab", tab),
		zap.String("filename", entry.RecordKey),
		zap.String("user_name", entry.Reviewer))

	return nil
}

// Close is a no-op; the sheets client has no connection to release
func (l *SheetsLedger) Close() error {
	return nil
}

func stringRow(raw []interface{}) []string {
	row := make([]string, 0, len(raw))
	for _, v := range raw {
		s, _ := v.(string)
		row = append(row, s)
	}
	return row
}
