package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/tui"
	"github.com/theirongolddev/koshin/internal/validation"
)

// formFlags are the field flags shared by add and edit. Any of them set
// skips the interactive form.
type formFlags struct {
	name         string
	category     string
	cycle        string
	amount       string
	renewal      string
	reminderDays string
	notes        string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Contract name")
	cmd.Flags().StringVar(&f.category, "category", "", "Category: subscription, insurance, rental, other")
	cmd.Flags().StringVar(&f.cycle, "cycle", "", "Billing cycle: monthly, yearly, one-time")
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount in yen (¥ and commas allowed)")
	cmd.Flags().StringVar(&f.renewal, "renewal", "", "Renewal date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.reminderDays, "reminder-days", "", "Days before renewal to remind")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
}

var formFlagNames = []string{"name", "category", "cycle", "amount", "renewal", "reminder-days", "notes"}

func anyFormFlag(cmd *cobra.Command) bool {
	for _, name := range formFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// applyFlags overlays the changed field flags on form.
func (f *formFlags) applyFlags(cmd *cobra.Command, form *model.ContractForm) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		form.Name = f.name
	}
	if changed("category") {
		form.Category = model.Category(f.category)
	}
	if changed("cycle") {
		form.BillingCycle = model.BillingCycle(f.cycle)
	}
	if changed("amount") {
		form.Amount = tui.CleanAmount(f.amount)
	}
	if changed("renewal") {
		d, err := tui.ParseDate(f.renewal)
		if err != nil {
			return err
		}
		form.RenewalDate = d
	}
	if changed("reminder-days") {
		form.ReminderDays = f.reminderDays
	}
	if changed("notes") {
		form.Notes = f.notes
	}
	return nil
}

// runContractForm collects form input interactively. form supplies the
// initial values and receives the result.
func runContractForm(title string, form *model.ContractForm) error {
	vals := tui.ValuesFromForm(*form)
	if err := tui.NewContractForm(title, vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errAborted
		}
		return err
	}

	out, err := vals.ContractForm()
	if err != nil {
		return err
	}
	*form = out
	return nil
}

var errAborted = errors.New("キャンセルしました")

func defaultForm(reminderDays int) model.ContractForm {
	if reminderDays < 0 {
		reminderDays = model.DefaultReminderDays
	}
	return model.ContractForm{
		Category:     model.CategorySubscription,
		BillingCycle: model.BillingMonthly,
		ReminderDays: strconv.Itoa(reminderDays),
	}
}

// printFormErrors writes one line per invalid field, in form order.
func printFormErrors(errs validation.Errors) {
	for _, f := range errs.Fields() {
		fmt.Printf("  %s: %s\n", cli.RenderMuted(string(f)), errs[f])
	}
}
