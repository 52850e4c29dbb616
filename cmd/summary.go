package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Annual and monthly cost summary by category",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	contracts := rt.manager.Contracts()
	if len(contracts) == 0 {
		fmt.Println("\n  契約が登録されていません。")
		return nil
	}

	now := rt.manager.Now()
	sum := pipeline.Summarize(contracts, rt.cfg.General.UpcomingDays, now)
	share := pipeline.CategoryShare(sum.CostByCategory)

	fmt.Println()
	fmt.Println(cli.RenderTitle("年間コストサマリー"))
	fmt.Println()

	rows := [][]string{
		{"年間合計", cli.FormatCurrency(sum.AnnualCost)},
		{"月額合計", cli.FormatCurrency(sum.MonthlyCost)},
		{"---"},
	}
	sum.CostByCategory.Each(func(c model.Category, cost int64) {
		rows = append(rows, []string{
			c.Emoji() + " " + c.Label(),
			fmt.Sprintf("%s  (%d件)", cli.FormatCurrency(cost), sum.CountByCategory.Of(c)),
		})
	})
	rows = append(rows,
		[]string{"---"},
		[]string{"契約数", cli.FormatNumber(int64(sum.TotalContracts))},
		[]string{fmt.Sprintf("%d日以内の更新", sum.UpcomingWindowDays), cli.FormatNumber(int64(sum.UpcomingCount))},
		[]string{"更新日超過", cli.FormatNumber(int64(sum.OverdueCount))},
	)
	if sum.OneTimeCount > 0 {
		rows = append(rows, []string{"一括払い（集計外）", cli.FormatNumber(int64(sum.OneTimeCount))})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"項目", "金額"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Println(cli.RenderMuted("  カテゴリ別の割合"))
	share.Each(func(c model.Category, pct float64) {
		fmt.Println(cli.RenderShareBar(c.Label(), pct, 30))
	})

	upcoming := pipeline.SortByRenewalDate(
		pipeline.UpcomingRenewals(contracts, sum.UpcomingWindowDays, now), true)
	if len(upcoming) > 0 {
		fmt.Println()
		fmt.Println(cli.RenderMuted("  直近の更新"))
		if len(upcoming) > 3 {
			upcoming = upcoming[:3]
		}
		for _, c := range upcoming {
			days := pipeline.DaysUntilRenewal(c, now)
			fmt.Printf("  %s %s  %s\n",
				c.Category.Emoji(),
				truncate(c.Name, 20),
				cli.RenderUrgency(cli.UrgencyLevel(days), cli.FormatRenewalStatus(days, now)),
			)
		}
	}
	fmt.Println()
	return nil
}
