package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_DefaultsAndMaps(t *testing.T) {
	path := writeConfig(t, `
datasets:
  - name: pipeline_output
    dir: ./data/pipeline_output
    tab: Sheet1
  - name: irtiza_output
    dir: ./data/irtiza_output
    tab: GeminiSelected
reviewers:
  - alina
  - bob
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "csv", cfg.Ledger.Backend)
	assert.Equal(t, "./data/votes.csv", cfg.Ledger.CSV.Path)
	assert.Equal(t, "Sheet1", cfg.Ledger.Sheets.DefaultTab)
	assert.Equal(t, 2*time.Hour, cfg.IdleTTL())
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval())

	assert.Equal(t, []string{"pipeline_output", "irtiza_output"}, cfg.DatasetNames())
	assert.Equal(t, "GeminiSelected", cfg.PartitionMap()["irtiza_output"])
	assert.Equal(t, "./data/pipeline_output", cfg.DatasetDirs()["pipeline_output"])
}

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SHEET_ID", "sheet-123")

	path := writeConfig(t, `
datasets:
  - name: d
    dir: ./d
reviewers: [alina]
ledger:
  backend: sheets
  sheets:
    spreadsheet_id: ${TEST_SHEET_ID}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet-123", cfg.Ledger.Sheets.SpreadsheetID)
}

func TestLoadConfig_RequiresDatasetsAndReviewers(t *testing.T) {
	path := writeConfig(t, `
reviewers: [alina]
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "no datasets")

	path = writeConfig(t, `
datasets:
  - name: d
    dir: ./d
`)
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "no reviewers")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
