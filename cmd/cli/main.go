package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/cmd/cli/commands"
	"github.com/jakechorley/relief-allocator/internal/config"
	"github.com/jakechorley/relief-allocator/pkg/cache"
	"github.com/jakechorley/relief-allocator/pkg/core/milp"
	"github.com/jakechorley/relief-allocator/pkg/core/optimizer"
	"github.com/jakechorley/relief-allocator/pkg/db"
	"github.com/jakechorley/relief-allocator/pkg/postgres"
	"github.com/jakechorley/relief-allocator/pkg/utils/logging"
)

const memoryRunLogSize = 1000

var (
	env        string
	configPath string
	app        = &commands.AppContext{Ctx: context.Background()}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Relief allocator CLI - allocate volunteers to disaster zones",
		Long: `A CLI tool that allocates a limited pool of volunteers across disaster zones,
maximizing severity-weighted coverage subject to capacity, resource and fairness constraints.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				app.Database.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects allocator_config.<env>.yaml)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file")

	rootCmd.AddCommand(commands.AllocateCmd(app))
	rootCmd.AddCommand(commands.ScenariosCmd(app))
	rootCmd.AddCommand(commands.ModelInfoCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.RunsCmd(app))
	rootCmd.AddCommand(commands.PurgeCacheCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp loads config, then sets up the logger, engine and stores
func initApp() error {
	cfg, usedDefaults, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Cfg = cfg

	app.Logger, err = logging.InitLogger(env, cfg.LogsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))
	if usedDefaults {
		app.Logger.Info("No config file found, using defaults")
	}

	app.Engine = optimizer.New(optimizer.Config{
		Solver:  milp.NewBranchAndBound(cfg.MaxNodes),
		Timeout: cfg.Timeout(),
		Logger:  app.Logger,
	})
	app.Logger.Debug("Optimizer initialized",
		zap.Int("max_nodes", cfg.MaxNodes),
		zap.Duration("timeout", cfg.Timeout()))

	if cfg.DatabaseURL != "" {
		app.Logger.Info("Connecting to database")
		app.Database, err = postgres.NewDB(app.Ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Store = app.Database
		app.Runs = app.Database
		app.Logger.Info("Database initialized successfully")
		return nil
	}

	app.Runs = db.NewMemoryRunLog(memoryRunLogSize)
	if cfg.CacheSize == 0 {
		app.Store = cache.NoopStore{}
		app.Logger.Debug("Result cache disabled")
		return nil
	}
	app.Store, err = cache.NewMemoryStore(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to create result cache: %w", err)
	}
	app.Logger.Debug("In-memory result cache initialized", zap.Int("size", cfg.CacheSize))
	return nil
}

// loadConfig reads --config when given, otherwise searches for the env config file.
// A missing config file falls back to the defaults.
func loadConfig() (*config.Config, bool, error) {
	if configPath != "" {
		cfg, err := config.LoadFromPath(configPath)
		return cfg, false, err
	}

	cfg, err := config.LoadWithEnv(env)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.Default(), true, nil
	}
	return cfg, false, err
}
