// Package validation checks contract form input against the field rules.
package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/theirongolddev/koshin/internal/model"
)

// Field names a form field.
type Field string

// Form fields, in the order they appear on the form.
const (
	FieldName         Field = "name"
	FieldCategory     Field = "category"
	FieldBillingCycle Field = "billingCycle"
	FieldAmount       Field = "amount"
	FieldRenewalDate  Field = "renewalDate"
	FieldReminderDays Field = "reminderDays"
)

var fieldOrder = []Field{
	FieldName,
	FieldCategory,
	FieldBillingCycle,
	FieldAmount,
	FieldRenewalDate,
	FieldReminderDays,
}

// User-facing messages.
const (
	MsgNameRequired         = "契約名を入力してください"
	MsgNameTooLong          = "契約名は100文字以内で入力してください"
	MsgCategoryRequired     = "カテゴリを選択してください"
	MsgBillingCycleRequired = "支払い周期を選択してください"
	MsgAmountRequired       = "金額を入力してください"
	MsgAmountInvalid        = "有効な金額を入力してください"
	MsgAmountTooLarge       = "金額が大きすぎます"
	MsgRenewalDateRequired  = "更新日を選択してください"
	MsgReminderRequired     = "リマインダー日数を入力してください"
	MsgReminderInvalid      = "有効な日数を入力してください"
	MsgReminderTooLarge     = "リマインダーは365日以内で設定してください"
)

// Errors maps each failed field to its message. An empty map means the form
// is valid.
type Errors map[Field]string

// Error implements error so a failed form can be returned up the stack.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "invalid contract form: " + strings.Join(parts, "; ")
}

// Fields returns the failed fields in form order.
func (e Errors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for _, f := range fieldOrder {
		if _, ok := e[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// ValidateContractForm checks every field independently and collects the
// failures.
func ValidateContractForm(form model.ContractForm) Errors {
	errs := Errors{}

	if strings.TrimSpace(form.Name) == "" {
		errs[FieldName] = MsgNameRequired
	} else if utf8.RuneCountInString(form.Name) > model.MaxNameLength {
		errs[FieldName] = MsgNameTooLong
	}

	if !form.Category.Valid() {
		errs[FieldCategory] = MsgCategoryRequired
	}

	if !form.BillingCycle.Valid() {
		errs[FieldBillingCycle] = MsgBillingCycleRequired
	}

	switch checkBounded(form.Amount, model.MaxAmount) {
	case boundBlank:
		errs[FieldAmount] = MsgAmountRequired
	case boundInvalid:
		errs[FieldAmount] = MsgAmountInvalid
	case boundTooLarge:
		errs[FieldAmount] = MsgAmountTooLarge
	}

	if form.RenewalDate == nil || form.RenewalDate.IsZero() {
		errs[FieldRenewalDate] = MsgRenewalDateRequired
	}

	switch checkBounded(form.ReminderDays, model.MaxReminderDays) {
	case boundBlank:
		errs[FieldReminderDays] = MsgReminderRequired
	case boundInvalid:
		errs[FieldReminderDays] = MsgReminderInvalid
	case boundTooLarge:
		errs[FieldReminderDays] = MsgReminderTooLarge
	}

	return errs
}

// IsValidForm reports whether errs holds no failures.
func IsValidForm(errs Errors) bool {
	return len(errs) == 0
}

// ValidateAmount reports whether value is a usable amount.
func ValidateAmount(value string) bool {
	return checkBounded(value, model.MaxAmount) == boundOK
}

// ValidateReminderDays reports whether value is a usable reminder offset.
func ValidateReminderDays(value string) bool {
	return checkBounded(value, model.MaxReminderDays) == boundOK
}

type boundResult int

const (
	boundOK boundResult = iota
	boundBlank
	boundInvalid
	boundTooLarge
)

// checkBounded applies the blank, not-a-number and out-of-range rules in
// that order; the first match wins.
func checkBounded(value string, limit int64) boundResult {
	if strings.TrimSpace(value) == "" {
		return boundBlank
	}
	n, ok := ParseInt(value)
	if !ok || n < 0 {
		return boundInvalid
	}
	if n > limit {
		return boundTooLarge
	}
	return boundOK
}

// ParseInt reads a base-10 integer prefix the way lenient form parsers do:
// leading whitespace and an optional sign are skipped, then the longest run
// of ASCII digits is consumed and anything after it is ignored. ok is false
// when no digit is found. Values beyond int64 saturate.
func ParseInt(s string) (n int64, ok bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v 　")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		d := int64(s[digits] - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
		} else if n != math.MaxInt64 {
			n = n*10 + d
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
