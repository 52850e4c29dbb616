package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
)

var (
	flagListCategory string
	flagListSearch   string
	flagListSort     string
	flagListDesc     bool
	flagListLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Contract list",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	addListFlags(listCmd)
	rootCmd.AddCommand(listCmd)
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagListCategory, "category", "c", "", "Filter to category (subscription, insurance, rental, other)")
	cmd.Flags().StringVarP(&flagListSearch, "search", "s", "", "Filter by name (case-insensitive)")
	cmd.Flags().StringVar(&flagListSort, "sort", "renewal", "Sort by: renewal, amount")
	cmd.Flags().BoolVar(&flagListDesc, "desc", false, "Reverse renewal order (latest first)")
	cmd.Flags().IntVarP(&flagListLimit, "limit", "l", 0, "Number of contracts to show (0 = all)")
}

// selectContracts applies the list flags to the full contract list.
func selectContracts(all []model.Contract) ([]model.Contract, error) {
	list := all
	if flagListCategory != "" {
		cat := model.Category(flagListCategory)
		if !cat.Valid() {
			return nil, fmt.Errorf("unknown category %q", flagListCategory)
		}
		list = pipeline.FilterByCategory(list, cat)
	}
	if flagListSearch != "" {
		list = pipeline.SearchContracts(list, flagListSearch)
	}

	switch flagListSort {
	case "renewal", "":
		list = pipeline.SortByRenewalDate(list, !flagListDesc)
	case "amount":
		list = pipeline.SortByAmount(list)
	default:
		return nil, fmt.Errorf("unknown sort %q (want renewal or amount)", flagListSort)
	}

	if flagListLimit > 0 && len(list) > flagListLimit {
		list = list[:flagListLimit]
	}
	return list, nil
}

func runList(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	all := rt.manager.Contracts()
	if len(all) == 0 {
		fmt.Println("\n  契約が登録されていません。")
		fmt.Println("  `koshin add` で最初の契約を追加しましょう。")
		return nil
	}

	list, err := selectContracts(all)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("\n  条件に一致する契約はありません。")
		return nil
	}

	now := rt.manager.Now()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("契約一覧  %d件", len(list))))
	fmt.Println()

	rows := make([][]string, 0, len(list))
	for _, c := range list {
		days := pipeline.DaysUntilRenewal(c, now)
		u := cli.UrgencyLevel(days)
		rows = append(rows, []string{
			shortID(c.ID),
			c.Category.Emoji() + " " + truncate(c.Name, 18),
			cli.FormatBillingCycle(c.Amount, string(c.BillingCycle)),
			cli.FormatDate(c.RenewalDate),
			cli.RenderUrgency(u, cli.FormatRelativeDate(c.RenewalDate, now)),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "契約", "金額", "更新日", "残り"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Println(cli.RenderField("年間合計", cli.RenderCost(cli.FormatCurrency(pipeline.TotalAnnualCost(list)))))
	fmt.Println(cli.RenderField("月額合計", cli.RenderCost(cli.FormatCurrency(pipeline.TotalMonthlyCost(list)))))
	return nil
}

// shortID trims uuids for table display; show/edit/delete accept any
// unambiguous prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
