package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginload/internal/config"
	"loginload/internal/runner"
	"loginload/internal/scenario"
	"loginload/internal/storage"
)

// setFlags overrides viper keys for one test and restores them afterwards.
func setFlags(t *testing.T, values map[string]any) {
	t.Helper()
	for k, v := range values {
		prev := viper.Get(k)
		viper.Set(k, v)
		t.Cleanup(func() { viper.Set(k, prev) })
	}
}

func headlessRun(t *testing.T, target string, noHistory bool) (string, string, error) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "history.db")
	setFlags(t, map[string]any{
		config.KeyTUI:        false,
		config.KeyFailChecks: true,
		config.KeyNoHistory:  noHistory,
		config.KeyHistoryDB:  db,
		config.KeyMetrics:    "",
	})

	cfg := runner.Config{
		Scenario:      scenario.CheckedLogin,
		Target:        target,
		Mode:          runner.ModeUsers,
		NumUsers:      1,
		SteadyDur:     1,
		TimeoutSec:    2,
		MaxIterations: 2,
	}

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetContext(context.Background())
	c.SetOut(&out)
	err := runScenario(c, cfg, nil)
	return db, out.String(), err
}

func TestRunScenarioFailsOnFailedChecks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	db, out, err := headlessRun(t, srv.URL+"/login.php", false)
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out, "✗ is status 200")

	store, err := storage.NewStore(db)
	require.NoError(t, err)
	defer store.Close()
	items, err := store.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, scenario.CheckedLogin, items[0].Config.Scenario)
	require.Len(t, items[0].Summary.Checks, 1)
	assert.Equal(t, uint64(2), items[0].Summary.Checks[0].Fails)
}

func TestRunScenarioUnreachableTargetFailsChecks(t *testing.T) {
	db, _, err := headlessRun(t, "http://127.0.0.1:1/login.php", false)
	require.ErrorIs(t, err, errChecksFailed)

	store, err := storage.NewStore(db)
	require.NoError(t, err)
	defer store.Close()
	items, err := store.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Summary.ChecksPassed())
}

func TestRunScenarioPassingChecks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, out, err := headlessRun(t, srv.URL+"/login.php", false)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ is status 200")
}

func TestRunScenarioNoHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	db, _, err := headlessRun(t, srv.URL+"/login.php", true)
	require.NoError(t, err)
	_, err = os.Stat(db)
	assert.True(t, os.IsNotExist(err))
}

func TestConsoleLogPath(t *testing.T) {
	assert.Equal(t, "loginload_console.log", consoleLogPath(runner.Config{}))
	assert.Equal(t, "out/run1_console.log", consoleLogPath(runner.Config{OutPrefix: "out/run1"}))
}
