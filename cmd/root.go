package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"loginload/internal/banner"
	"loginload/internal/config"
	"loginload/internal/logging"
	"loginload/internal/storage"
)

var (
	cfgFile string
	initErr error
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "loginload",
	Short: "loginload - login endpoint load generator",
	Long: `
loginload drives a login endpoint with randomly picked credentials.

Scenarios:
  random-login   POST a random credential, response ignored
  checked-login  log the credential, POST it and check for HTTP 200

Run headless (default) or with a live dashboard (--tui).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if initErr != nil {
			return initErr
		}
		bindFlags(cmd.Flags())

		l, err := logging.New(viper.GetString(config.KeyLogLevel), viper.GetString(config.KeyLogFormat))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), banner.GetString())
		cmd.Usage()
	})

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.Configure(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.loginload.yaml)")
	flags.String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")
	flags.String(config.KeyLogFormat, logging.FormatConsole, "log format (console or json)")
	flags.String(config.KeyHistoryDB, "", "history database path (default is $HOME/.loginload/history.db)")

	rootCmd.AddCommand(runCmd, scenariosCmd, historyCmd, targetCmd)
}

// bindFlags binds every flag of the running command into viper so the config
// file and LOGINLOAD_ env vars apply to it.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "config" {
			viper.BindPFlag(flag.Name, flag)
		}
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".loginload")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			initErr = fmt.Errorf("read config: %w", err)
		}
	}
}

func openStore() (*storage.Store, error) {
	path := viper.GetString(config.KeyHistoryDB)
	if path == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return storage.NewStore(path)
}
