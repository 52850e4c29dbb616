package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/config"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/store"
	"github.com/theirongolddev/koshin/internal/tui/theme"
	"github.com/theirongolddev/koshin/internal/validation"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive configuration wizard",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPath()
	fmt.Printf("  Config file: %s\n", path)
	exists := config.Exists()
	if flagConfig != "" {
		_, err := os.Stat(flagConfig)
		exists = err == nil
	}
	if exists {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Upcoming window:   %d days\n", cfg.General.UpcomingDays)
	fmt.Printf("    Reminder default:  %d days before\n", cfg.General.DefaultReminderDays)
	fmt.Println()

	fmt.Println("  [Storage]")
	fmt.Printf("    Backend: %s\n", cfg.Storage.Backend)
	fmt.Printf("    Path:    %s\n", config.StoragePath(cfg))
	fmt.Println()

	fmt.Println("  [Notifications]")
	fmt.Printf("    Enabled: %v\n", cfg.Notifications.Enabled)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	if cfg.Logging.OutputFile != "" {
		fmt.Printf("    File:   %s\n", cfg.Logging.OutputFile)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `koshin config init` to reconfigure.")
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	upcoming := strconv.Itoa(cfg.General.UpcomingDays)
	reminderDays := strconv.Itoa(cfg.General.DefaultReminderDays)
	backend := cfg.Storage.Backend
	enabled := cfg.Notifications.Enabled
	themeName := cfg.Appearance.Theme

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("更新が近い契約の表示範囲").
				Options(
					huh.NewOption("7日", "7"),
					huh.NewOption("14日", "14"),
					huh.NewOption("30日", "30"),
					huh.NewOption("60日", "60"),
				).
				Value(&upcoming),
			huh.NewInput().
				Title("リマインダーの初期値（何日前）").
				Value(&reminderDays).
				Validate(func(v string) error {
					if !validation.ValidateReminderDays(v) {
						return errors.New(validation.MsgReminderInvalid)
					}
					return nil
				}),
			huh.NewConfirm().
				Title("更新日のリマインダーを有効にしますか？").
				Affirmative("有効").
				Negative("無効").
				Value(&enabled),
		).Title("koshin の設定"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("保存先").
				Options(
					huh.NewOption("SQLite (default)", string(store.BackendSQLite)),
					huh.NewOption("Badger", string(store.BackendBadger)),
				).
				Value(&backend),
			huh.NewSelect[string]().
				Title("テーマ").
				Options(themeOpts...).
				Value(&themeName),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  " + errAborted.Error())
			return nil
		}
		return err
	}

	cfg.General.UpcomingDays, _ = strconv.Atoi(upcoming)
	if n, ok := validation.ParseInt(reminderDays); ok {
		cfg.General.DefaultReminderDays = int(n)
	} else {
		cfg.General.DefaultReminderDays = model.DefaultReminderDays
	}
	cfg.Storage.Backend = backend
	cfg.Notifications.Enabled = enabled
	cfg.Appearance.Theme = themeName

	path := configPath()
	if err := config.SaveTo(cfg, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	if enabled {
		fmt.Println("  Run `koshin reminders resync` to schedule reminders for existing contracts.")
	}
	fmt.Println()
	return nil
}
