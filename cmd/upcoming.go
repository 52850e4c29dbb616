package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/pipeline"
)

var flagUpcomingDays int

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Contracts renewing soon",
	Args:  cobra.NoArgs,
	RunE:  runUpcoming,
}

func init() {
	upcomingCmd.Flags().IntVarP(&flagUpcomingDays, "days", "n", 0, "Window in days (default from config)")
	rootCmd.AddCommand(upcomingCmd)
}

func runUpcoming(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	days := flagUpcomingDays
	if days <= 0 {
		days = rt.cfg.General.UpcomingDays
	}
	if days <= 0 {
		days = pipeline.DefaultUpcomingDays
	}

	now := rt.manager.Now()
	list := pipeline.SortByRenewalDate(rt.manager.Upcoming(days), true)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%d日以内の更新  %d件", days, len(list))))
	fmt.Println()

	if len(list) == 0 {
		fmt.Println("  該当する契約はありません。")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, c := range list {
		d := pipeline.DaysUntilRenewal(c, now)
		u := cli.UrgencyLevel(d)
		rows = append(rows, []string{
			cli.RenderUrgency(u, u.Label()),
			c.Category.Emoji() + " " + truncate(c.Name, 18),
			cli.FormatDateWithDay(c.RenewalDate),
			cli.FormatRenewalStatus(d, now),
			cli.FormatBillingCycle(c.Amount, string(c.BillingCycle)),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "契約", "更新日", "状態", "金額"},
		Rows:    rows,
	}))
	return nil
}
