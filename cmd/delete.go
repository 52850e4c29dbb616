package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagDeleteYes bool
	flagResetYes  bool
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a contract and cancel its reminder",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every contract and cancel all reminders",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	deleteCmd.Flags().BoolVarP(&flagDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
	resetCmd.Flags().BoolVarP(&flagResetYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(resetCmd)
}

// confirm asks a yes/no question; the default answer is no.
func confirm(title, description string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("削除する").
		Negative("キャンセル").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	if !flagDeleteYes {
		ok, err := confirm(
			fmt.Sprintf("「%s」を削除しますか？", c.Name),
			"この操作は取り消せません。",
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("  " + errAborted.Error())
			return nil
		}
	}

	if err := rt.manager.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("  削除しました: %s %s\n", c.Category.Emoji(), c.Name)
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	n := len(rt.manager.Contracts())
	if !flagResetYes {
		ok, err := confirm(
			fmt.Sprintf("%d件の契約をすべて削除しますか？", n),
			"登録済みのリマインダーもすべて取り消されます。",
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("  " + errAborted.Error())
			return nil
		}
	}

	if err := rt.manager.ResetAll(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("  %d件の契約を削除しました\n", n)
	return nil
}
