package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/validation"
)

// DateLayout is the only accepted renewal date format.
const DateLayout = "2006-01-02"

// FormValues is the editable state behind a contract form. huh binds to
// these fields directly, so everything the user types is kept as text
// until ContractForm converts it.
type FormValues struct {
	Name         string
	Category     model.Category
	Cycle        model.BillingCycle
	Amount       string
	Renewal      string
	ReminderDays string
	Notes        string
}

// ValuesFromForm seeds form values, defaulting unset selects.
func ValuesFromForm(f model.ContractForm) *FormValues {
	v := &FormValues{
		Name:         f.Name,
		Category:     f.Category,
		Cycle:        f.BillingCycle,
		Amount:       f.Amount,
		ReminderDays: f.ReminderDays,
		Notes:        f.Notes,
	}
	if !v.Category.Valid() {
		v.Category = model.CategorySubscription
	}
	if !v.Cycle.Valid() {
		v.Cycle = model.BillingMonthly
	}
	if f.RenewalDate != nil {
		v.Renewal = f.RenewalDate.Format(DateLayout)
	}
	return v
}

// DefaultValues is an empty form with the configured reminder lead time.
func DefaultValues(reminderDays int) *FormValues {
	if reminderDays < 0 {
		reminderDays = model.DefaultReminderDays
	}
	return ValuesFromForm(model.ContractForm{ReminderDays: strconv.Itoa(reminderDays)})
}

// ContractForm converts the values for validation by the manager.
func (v *FormValues) ContractForm() (model.ContractForm, error) {
	d, err := ParseDate(v.Renewal)
	if err != nil {
		return model.ContractForm{}, err
	}
	return model.ContractForm{
		Name:         v.Name,
		Category:     v.Category,
		BillingCycle: v.Cycle,
		Amount:       CleanAmount(v.Amount),
		RenewalDate:  d,
		ReminderDays: strings.TrimSpace(v.ReminderDays),
		Notes:        v.Notes,
	}, nil
}

// NewContractForm builds the two-page add/edit form bound to v. The caller
// either runs it standalone or embeds it in a Bubble Tea program.
func NewContractForm(title string, v *FormValues) *huh.Form {
	categoryOpts := make([]huh.Option[model.Category], 0, len(model.Categories))
	for _, c := range model.Categories {
		categoryOpts = append(categoryOpts, huh.NewOption(c.Emoji()+" "+c.Label(), c))
	}
	cycleOpts := make([]huh.Option[model.BillingCycle], 0, len(model.BillingCycles))
	for _, b := range model.BillingCycles {
		cycleOpts = append(cycleOpts, huh.NewOption(b.Label(), b))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("契約名").
				Placeholder("Netflix").
				CharLimit(model.MaxNameLength).
				Value(&v.Name).
				Validate(func(s string) error {
					return fieldError(validation.FieldName, model.ContractForm{Name: s})
				}),
			huh.NewSelect[model.Category]().
				Title("カテゴリ").
				Options(categoryOpts...).
				Value(&v.Category),
			huh.NewSelect[model.BillingCycle]().
				Title("支払い周期").
				Options(cycleOpts...).
				Value(&v.Cycle),
		).Title(title),
		huh.NewGroup(
			huh.NewInput().
				Title("金額（円）").
				Placeholder("1,490").
				Value(&v.Amount).
				Validate(func(s string) error {
					if !validation.ValidateAmount(CleanAmount(s)) {
						return errors.New(validation.MsgAmountInvalid)
					}
					return nil
				}),
			huh.NewInput().
				Title("更新日").
				Placeholder(DateLayout).
				Value(&v.Renewal).
				Validate(func(s string) error {
					d, err := ParseDate(s)
					if err != nil {
						return err
					}
					if d == nil {
						return errors.New(validation.MsgRenewalDateRequired)
					}
					return nil
				}),
			huh.NewInput().
				Title("何日前に通知しますか").
				Value(&v.ReminderDays).
				Validate(func(s string) error {
					if !validation.ValidateReminderDays(s) {
						return errors.New(validation.MsgReminderInvalid)
					}
					return nil
				}),
			huh.NewText().
				Title("メモ").
				Value(&v.Notes),
		),
	)
}

// fieldError runs full validation and reports only field's message.
func fieldError(field validation.Field, f model.ContractForm) error {
	if msg, ok := validation.ValidateContractForm(f)[field]; ok {
		return errors.New(msg)
	}
	return nil
}

var amountCleaner = strings.NewReplacer("¥", "", "￥", "", ",", "", "，", "")

// CleanAmount strips the currency glyph and grouping so "¥1,490" validates
// as 1490. Everything else is left for validation to judge.
func CleanAmount(s string) string {
	return strings.TrimSpace(amountCleaner.Replace(s))
}

// ParseDate reads YYYY-MM-DD as a local calendar date. Empty means unset.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return &d, nil
}
