package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/validation"
)

var (
	addFlags  formFlags
	editFlags formFlags
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a contract",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	addFlags.register(addCmd)
	editFlags.register(editCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	form := defaultForm(rt.cfg.General.DefaultReminderDays)
	if anyFormFlag(cmd) {
		if err := addFlags.applyFlags(cmd, &form); err != nil {
			return err
		}
	} else if err := runContractForm("契約を追加", &form); err != nil {
		return err
	}

	c, err := rt.manager.Add(cmd.Context(), form)
	if err != nil {
		return reportMutationError(err)
	}

	fmt.Println()
	fmt.Printf("  追加しました: %s %s\n", c.Category.Emoji(), c.Name)
	printReminderOutcome(c)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := resolveID(rt.manager.Contracts(), args[0])
	if err != nil {
		return err
	}
	existing, _ := rt.manager.Get(id)

	form := model.FormFromContract(existing)
	if anyFormFlag(cmd) {
		if err := editFlags.applyFlags(cmd, &form); err != nil {
			return err
		}
	} else if err := runContractForm("契約を編集", &form); err != nil {
		return err
	}

	c, err := rt.manager.Update(cmd.Context(), id, form)
	if err != nil {
		return reportMutationError(err)
	}

	fmt.Println()
	fmt.Printf("  更新しました: %s %s\n", c.Category.Emoji(), c.Name)
	printReminderOutcome(c)
	return nil
}

func printReminderOutcome(c model.Contract) {
	if c.NotificationID == "" {
		fmt.Println(cli.RenderMuted("  リマインダーは設定されていません"))
		return
	}
	fmt.Println(cli.RenderMuted(fmt.Sprintf("  %d日前にリマインダーを設定しました", c.ReminderDays)))
}

// reportMutationError prints field errors for a rejected form and returns
// the user-facing error.
func reportMutationError(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fmt.Println()
		printFormErrors(verrs)
		fmt.Println()
	}
	return err
}
