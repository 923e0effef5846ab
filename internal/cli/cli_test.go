package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginload/internal/check"
	"loginload/internal/runner"
	"loginload/internal/scenario"
)

type zeroSource struct{}

func (zeroSource) IntN(int) int { return 0 }

func newRun(t *testing.T, status int, cfg runner.Config) *runner.Runner {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	r := runner.NewRunner(cfg, nil)
	sc, err := scenario.New(cfg.Scenario, scenario.Deps{
		Client: r.Client,
		Target: srv.URL + "/login.php",
		Source: zeroSource{},
		Checks: r.Checks,
	})
	require.NoError(t, err)
	r.Scenario = sc
	return r
}

func TestStartPrintsSummaryAndChecks(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	cfg := runner.Config{
		Scenario:      scenario.CheckedLogin,
		Mode:          runner.ModeUsers,
		NumUsers:      1,
		SteadyDur:     1,
		TimeoutSec:    2,
		MaxIterations: 3,
		OutPrefix:     prefix,
	}
	r := newRun(t, http.StatusOK, cfg)

	var out bytes.Buffer
	s, err := Start(context.Background(), r, &out)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), s.Iterations)
	assert.Equal(t, []check.Result{{Name: "is status 200", Passes: 3}}, s.Checks)
	assert.Contains(t, out.String(), "STARTING LOGINLOAD RUN")
	assert.Contains(t, out.String(), "Scenario   : checked-login")
	assert.Contains(t, out.String(), "✓ is status 200")
	assert.NotContains(t, out.String(), "↳")

	_, err = os.Stat(prefix + "_summary.json")
	assert.NoError(t, err)
}

func TestStartReportsFailedChecks(t *testing.T) {
	cfg := runner.Config{
		Scenario:      scenario.CheckedLogin,
		Mode:          runner.ModeUsers,
		NumUsers:      1,
		SteadyDur:     1,
		MaxIterations: 2,
	}
	r := newRun(t, http.StatusForbidden, cfg)

	var out bytes.Buffer
	s, err := Start(context.Background(), r, &out)
	require.NoError(t, err)
	assert.False(t, s.ChecksPassed())
	assert.Contains(t, out.String(), "✗ is status 200")
	assert.Contains(t, out.String(), "0% - ✓ 0 / ✗ 2")
}

func TestStartWithoutScenario(t *testing.T) {
	r := runner.NewRunner(runner.Config{Mode: runner.ModeRPS, TargetRPS: 1, SteadyDur: 1}, nil)
	_, err := Start(context.Background(), r, &bytes.Buffer{})
	assert.ErrorIs(t, err, runner.ErrNoScenario)
}

func TestFormatCheck(t *testing.T) {
	assert.Equal(t, "   ✓ ok\n", formatCheck(check.Result{Name: "ok", Passes: 2}))
	assert.Equal(t, "   ✗ bad\n    ↳  75% - ✓ 3 / ✗ 1\n", formatCheck(check.Result{Name: "bad", Passes: 3, Fails: 1}))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[██--]", progressBar(0.5, 4))
	assert.Equal(t, "[████]", progressBar(2, 4))
	assert.Equal(t, "[----]", progressBar(-1, 4))
}
