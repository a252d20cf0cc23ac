package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/config"
)

// Version is stamped at build time.
var Version = "dev"

type contextKey string

const appContextKey contextKey = "aimless"

// App is what every subcommand gets from the root command.
type App struct {
	Config *config.Config
	Env    *config.EnvConfig
	Log    *alog.Logger
}

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "aimless",
		Short: "Aimless shooting on a batch scheduler",
		Long: `aimless runs aimless-shooting transition path sampling. Each path
submits a starter, DT, forward and backward MD job to the batch scheduler
(Torque, Kubernetes or local processes), classifies where the two halves
ended, and keeps the shooting points of connecting paths.

Settings come from aimless.yaml (or --config) with AIMLESS_* environment
overrides. Logs go to $LOGDIR/aimless.log, or stderr when LOGTERM is set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg.ApplyEnv(env)

			log, err := alog.New(env.LogOptions(verbose))
			if err != nil {
				return err
			}
			if used := cfg.ConfigFileUsed(); used != "" {
				log.Debug("Loaded config", "file", used)
			}

			app := &App{Config: cfg, Env: env, Log: log}
			cmd.SetContext(context.WithValue(cmd.Context(), appContextKey, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp(cmd)
			if err != nil {
				return nil
			}
			return app.Log.Close()
		},
	}
)

// GetApp retrieves the App from the command context
func GetApp(cmd *cobra.Command) (*App, error) {
	app, ok := cmd.Context().Value(appContextKey).(*App)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return app, nil
}

func Execute() {
	exitIfError(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML). Searches: aimless.yaml, aimless.yml, .aimless.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.Version = Version
}
