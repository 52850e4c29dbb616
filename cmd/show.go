package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/contracts"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
	"github.com/theirongolddev/koshin/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show contract details",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func notFound(id string) error {
	return &contracts.Error{Op: "show", Msg: contracts.MsgNotFound, Err: store.NotFoundError(id)}
}

// resolveID expands an id prefix to a full contract id. Exact matches win.
func resolveID(list []model.Contract, arg string) (string, error) {
	var matches []string
	for _, c := range list {
		if c.ID == arg {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, arg) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", notFound(arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d contracts)", arg, len(matches))
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := resolveID(rt.manager.Contracts(), args[0])
	if err != nil {
		return err
	}
	c, _ := rt.manager.Get(id)

	now := rt.manager.Now()
	days := pipeline.DaysUntilRenewal(c, now)
	urgency := cli.UrgencyLevel(days)

	fmt.Println()
	fmt.Println(cli.RenderTitle(c.Category.Emoji() + "  " + c.Name))
	fmt.Println()
	fmt.Println(cli.RenderField("カテゴリ", c.Category.Label()))
	fmt.Println(cli.RenderField("支払い", cli.FormatBillingCycle(c.Amount, string(c.BillingCycle))))
	fmt.Println(cli.RenderField("年間換算", cli.RenderCost(cli.FormatCurrency(pipeline.AnnualCost(c)))))
	fmt.Println(cli.RenderField("月額換算", cli.RenderCost(cli.FormatCurrency(pipeline.MonthlyCost(c)))))
	fmt.Println()
	fmt.Println(cli.RenderField("更新日", cli.FormatDateWithDay(c.RenewalDate)))
	fmt.Println(cli.RenderField("状態", cli.RenderUrgency(urgency,
		fmt.Sprintf("[%s] %s", urgency.Label(), cli.FormatRenewalStatus(days, now)))))
	fmt.Println(cli.RenderField("相対日付", cli.FormatRelativeDate(c.RenewalDate, now)))

	reminder := "なし"
	if c.NotificationID != "" {
		reminder = fmt.Sprintf("%d日前に通知", c.ReminderDays)
	}
	fmt.Println(cli.RenderField("リマインダー", reminder))
	if c.Notes != "" {
		fmt.Println()
		fmt.Println(cli.RenderField("メモ", c.Notes))
	}
	fmt.Println()
	fmt.Println(cli.RenderMuted(fmt.Sprintf("  ID %s  登録 %s  更新 %s",
		c.ID, cli.FormatDate(c.CreatedAt), cli.FormatDate(c.UpdatedAt))))
	fmt.Println()
	return nil
}
