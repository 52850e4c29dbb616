// Package cmd implements the koshin CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/koshin/internal/config"
	"github.com/theirongolddev/koshin/internal/contracts"
	"github.com/theirongolddev/koshin/internal/reminder"
	"github.com/theirongolddev/koshin/internal/store"
)

var (
	flagConfig   string
	flagDB       string
	flagBackend  string
	flagLogLevel string
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:           "koshin",
	Short:         "契約更新トラッカー",
	Long:          "Track subscriptions, insurance and rental contracts, their costs and renewal dates.",
	RunE:          runList,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (overrides config and KOSHIN_DB)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: sqlite, badger or memory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")

	addListFlags(rootCmd)
}

// runtime is everything a command needs to act on the contract list.
type runtime struct {
	cfg         config.Config
	log         *zap.Logger
	kv          store.KV
	storagePath string
	notifier    *reminder.LocalNotifier
	scheduler   *reminder.Scheduler
	manager     *contracts.Manager
}

func (r *runtime) Close() {
	_ = r.log.Sync()
	if r.kv != nil {
		_ = r.kv.Close()
	}
}

// loadConfig reads --config or the default config file.
func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.LoadFrom(flagConfig)
	}
	return config.Load()
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

// runtimeOption adjusts the loaded config before anything is opened.
type runtimeOption func(*config.Config)

// logToFileByDefault sends logs to path unless the config names a file.
func logToFileByDefault(path string) runtimeOption {
	return func(cfg *config.Config) {
		if cfg.Logging.OutputFile == "" {
			cfg.Logging.OutputFile = path
		}
	}
}

// openRuntime wires config, logger, storage, reminders and the manager, and
// loads the contract list.
func openRuntime(ctx context.Context, opts ...runtimeOption) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.Storage.Backend = flagBackend
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	log, err := config.NewLogger(cfg.Logging, flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	path := config.StoragePath(cfg)
	if flagDB != "" {
		path = flagDB
	}

	kv, err := store.Open(store.Backend(cfg.Storage.Backend), path)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("opening %s storage at %s: %w", cfg.Storage.Backend, path, err)
	}
	log.Debug("storage opened",
		zap.String("op", "cmd.openRuntime"),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", path),
	)

	notifier := reminder.NewLocalNotifier(kv, cfg.Notifications.Enabled, log)
	scheduler := reminder.NewScheduler(notifier, log)
	manager := contracts.NewManager(store.NewContracts(kv, log), scheduler, log)

	rt := &runtime{
		cfg:         cfg,
		log:         log,
		kv:          kv,
		storagePath: path,
		notifier:    notifier,
		scheduler:   scheduler,
		manager:     manager,
	}
	if err := manager.Refresh(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
