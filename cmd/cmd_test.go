package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginload/internal/check"
	"loginload/internal/report"
	"loginload/internal/runner"
	"loginload/internal/storage"
)

func TestPrintScenarios(t *testing.T) {
	var out bytes.Buffer
	printScenarios(&out)
	assert.Contains(t, out.String(), "checked-login\n")
	assert.Contains(t, out.String(), "    [2] guest / 12345\n")
}

func TestFindRunByPrefix(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer store.Close()

	item := storage.NewHistoryItem(runner.Config{Mode: runner.ModeRPS, TargetRPS: 5}, report.Summary{
		Scenario: "checked-login",
		Checks:   []check.Result{{Name: "is status 200", Passes: 4, Fails: 1}},
	}, time.Now())
	require.NoError(t, store.Save(item))

	got, err := findRun(store, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	got, err = findRun(store, item.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = findRun(store, "zzzz")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var out bytes.Buffer
	printRun(&out, *got)
	assert.Contains(t, out.String(), "✗ is status 200")

	out.Reset()
	printHistory(&out, []storage.HistoryItem{item})
	assert.Contains(t, out.String(), "SCENARIO")
	assert.Contains(t, out.String(), "rps/5")
	assert.Contains(t, out.String(), "4/5")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "scenarios", "history", "target"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, runCmd.Flags().Lookup("scenario"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-format"))
}
