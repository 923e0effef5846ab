package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"loginload/internal/check"
	"loginload/internal/cli"
	"loginload/internal/config"
	"loginload/internal/credentials"
	"loginload/internal/logging"
	"loginload/internal/metrics"
	"loginload/internal/report"
	"loginload/internal/runner"
	"loginload/internal/scenario"
	"loginload/internal/storage"
	"loginload/internal/tui"
)

var errChecksFailed = errors.New("some checks failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a login scenario",
	Example: `  loginload run --scenario checked-login --users 5 --duration 30
  loginload run --scenario random-login --rate 50 --ramp-up 10 --out report
  loginload run --target http://localhost:8080/login.php --tui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		return runScenario(cmd, cfg, table)
	},
}

func init() {
	flags := runCmd.Flags()
	flags.StringP(config.KeyScenario, "s", scenario.RandomLogin, fmt.Sprintf("scenario to run %v", scenario.Names()))
	flags.StringP(config.KeyTarget, "u", "", "login URL (default is the scenario's target)")
	flags.IntP(config.KeyRate, "r", 10, "target iterations per second (open loop)")
	flags.IntP(config.KeyUsers, "U", 0, "concurrent VUs (closed loop, overrides rate)")
	flags.Duration(config.KeyThinkTime, 0, "pause between iterations of one VU (e.g. 100ms)")
	flags.IntP(config.KeyDuration, "d", 10, "steady state duration in seconds")
	flags.Int(config.KeyRampUp, 0, "ramp up duration in seconds")
	flags.Int(config.KeyRampDown, 0, "ramp down duration in seconds")
	flags.Int(config.KeyTimeout, 10, "request timeout in seconds")
	flags.Uint64P(config.KeyIterations, "i", 0, "stop after this many iterations (0 = unlimited)")
	flags.Uint64(config.KeySeed, 0, "seed for credential selection (0 = random)")
	flags.String(config.KeyCredentialsFile, "", "CSV file of username,password rows replacing the built-in table")
	flags.Bool(config.KeyInsecure, false, "skip TLS certificate verification")
	flags.StringP(config.KeyOut, "o", "", "output filename prefix for auto-reporting")
	flags.String(config.KeyMetrics, "", "serve Prometheus metrics on this address during the run (e.g. :9090)")
	flags.Bool(config.KeyTUI, false, "show the live dashboard")
	flags.Bool(config.KeyNoHistory, false, "do not save the run to the history database")
	flags.Bool(config.KeyFailChecks, false, "exit non-zero when any check failed")
}

func runScenario(cmd *cobra.Command, cfg runner.Config, table *credentials.Table) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	useTUI := viper.GetBool(config.KeyTUI)

	// the dashboard owns the terminal: console lines go to a file, run logs are dropped
	runLogger, console := logger, logging.NewConsole(os.Stderr)
	var consolePath string
	if useTUI {
		consolePath = consoleLogPath(cfg)
		f, err := os.Create(consolePath)
		if err != nil {
			return fmt.Errorf("console log: %w", err)
		}
		defer f.Close()
		runLogger, console = zap.NewNop(), logging.NewConsole(f)
		defer console.Sync()
	}

	reg := metrics.NewRegistry()
	updates := make(runner.StatsUpdateChan, 100)
	r := runner.NewRunner(cfg, updates, runner.WithLogger(runLogger), runner.WithObserver(reg))

	var src credentials.Source
	if cfg.Seed != 0 {
		src = credentials.NewSeededSource(cfg.Seed)
	}
	sc, err := scenario.New(cfg.Scenario, scenario.Deps{
		Client:  r.Client,
		Target:  cfg.Target,
		Source:  src,
		Table:   table,
		Checks:  check.Tee(r.Checks, reg),
		Console: console,
	})
	if err != nil {
		return err
	}
	r.Scenario = sc

	if addr := viper.GetString(config.KeyMetrics); addr != "" {
		go func() {
			if err := reg.Serve(ctx, addr, runLogger); err != nil {
				runLogger.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	var store *storage.Store
	if !viper.GetBool(config.KeyNoHistory) {
		store, err = openStore()
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
		} else {
			defer store.Close()
		}
	}

	var summary *report.Summary
	if useTUI {
		var saver tui.Saver
		if store != nil {
			saver = store
		}
		final, err := tea.NewProgram(tui.NewModel(ctx, r, saver), tea.WithAltScreen()).Run()
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		m := final.(tui.Model)
		if m.Err != nil {
			return m.Err
		}
		summary = m.Summary
		if summary != nil {
			cli.PrintSummary(cmd.OutOrStdout(), *summary)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Console output written to %s\n", consolePath)
	} else {
		s, err := cli.Start(ctx, r, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		summary = &s
		if store != nil {
			item := storage.NewHistoryItem(cfg, s, time.Now())
			if err := store.Save(item); err != nil {
				logger.Warn("saving history failed", zap.Error(err))
			} else {
				logger.Debug("run saved", zap.String("id", item.ID), zap.String("db", store.Path()))
			}
		}
	}

	if summary != nil && !summary.ChecksPassed() && viper.GetBool(config.KeyFailChecks) {
		return errChecksFailed
	}
	return nil
}

// consoleLogPath is where console lines go while the dashboard runs.
func consoleLogPath(cfg runner.Config) string {
	if cfg.OutPrefix != "" {
		return cfg.OutPrefix + "_console.log"
	}
	return "loginload_console.log"
}
