package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/reminder"
)

var flagPermissionRequest bool

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Manage renewal reminders",
	RunE:  runRemindersList,
}

var remindersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled reminders",
	Args:  cobra.NoArgs,
	RunE:  runRemindersList,
}

var remindersResyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Reschedule reminders for every contract",
	Args:  cobra.NoArgs,
	RunE:  runRemindersResync,
}

var remindersCancelAllCmd = &cobra.Command{
	Use:   "cancel-all",
	Short: "Cancel every scheduled reminder",
	Args:  cobra.NoArgs,
	RunE:  runRemindersCancelAll,
}

var remindersPermissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Show or request notification permission",
	Args:  cobra.NoArgs,
	RunE:  runRemindersPermission,
}

func init() {
	remindersPermissionCmd.Flags().BoolVar(&flagPermissionRequest, "request", false, "Ask again using the current notifications.enabled setting")

	remindersCmd.AddCommand(remindersListCmd)
	remindersCmd.AddCommand(remindersResyncCmd)
	remindersCmd.AddCommand(remindersCancelAllCmd)
	remindersCmd.AddCommand(remindersPermissionCmd)
	rootCmd.AddCommand(remindersCmd)
}

func runRemindersList(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	pending, err := rt.scheduler.Pending(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("リマインダー  %d件", len(pending))))
	fmt.Println()
	if len(pending) == 0 {
		fmt.Println("  予定されているリマインダーはありません。")
		return nil
	}

	rows := make([][]string, 0, len(pending))
	for _, n := range pending {
		name := n.ContractID
		if c, ok := rt.manager.Get(n.ContractID); ok {
			name = c.Category.Emoji() + " " + truncate(c.Name, 18)
		}
		rows = append(rows, []string{
			shortID(n.ID),
			name,
			n.FireAt.Local().Format("2006-01-02 15:04"),
			humanize.Time(n.FireAt),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "契約", "通知日時", ""},
		Rows:    rows,
	}))
	return nil
}

func runRemindersResync(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.manager.Resync(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("  %d件のリマインダーを設定しました（契約 %d件）\n", n, len(rt.manager.Contracts()))
	return nil
}

func runRemindersCancelAll(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	pending, err := rt.scheduler.Pending(cmd.Context())
	if err != nil {
		return err
	}
	if err := rt.manager.CancelReminders(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("  %d件のリマインダーを取り消しました\n", len(pending))
	return nil
}

func runRemindersPermission(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if flagPermissionRequest {
		if _, err := rt.notifier.RequestPermission(ctx); err != nil {
			return err
		}
	}

	state, decidedAt, err := rt.notifier.Permission(ctx)
	if err != nil {
		return err
	}

	label := map[string]string{
		reminder.PermissionGranted:      "許可",
		reminder.PermissionDenied:       "拒否",
		reminder.PermissionUndetermined: "未確認",
	}[state]

	fmt.Println()
	fmt.Println(cli.RenderField("通知", fmt.Sprintf("%s (%s)", label, state)))
	if !decidedAt.IsZero() {
		fmt.Println(cli.RenderField("確認日時", decidedAt.Local().Format("2006-01-02 15:04")+"  "+humanize.Time(decidedAt)))
	}
	fmt.Println(cli.RenderField("設定", fmt.Sprintf("notifications.enabled = %v", rt.cfg.Notifications.Enabled)))
	if state == reminder.PermissionDenied && rt.cfg.Notifications.Enabled {
		fmt.Println()
		fmt.Println(cli.RenderMuted("  `koshin reminders permission --request` の後 `koshin reminders resync` で再設定できます。"))
	}
	fmt.Println()
	return nil
}
