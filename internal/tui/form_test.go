package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/koshin/internal/model"
)

func TestCleanAmount(t *testing.T) {
	tests := map[string]string{
		"¥1,490":  "1490",
		" 2,000 ": "2000",
		"￥１":      "１",
		"-500":    "-500",
		"abc":     "abc",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanAmount(in), "CleanAmount(%q)", in)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-07-01")
	require.NoError(t, err)
	y, m, day := d.Date()
	assert.Equal(t, []int{2025, int(time.July), 1}, []int{y, int(m), day})
	assert.Equal(t, time.Local, d.Location())

	d, err = ParseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("2025/07/01")
	assert.Error(t, err)
}

func TestFormValuesRoundTrip(t *testing.T) {
	renewal := time.Date(2026, 3, 31, 0, 0, 0, 0, time.Local)
	vals := ValuesFromForm(model.ContractForm{
		Name:         "自動車保険",
		Category:     model.CategoryInsurance,
		BillingCycle: model.BillingYearly,
		Amount:       "60000",
		RenewalDate:  &renewal,
		ReminderDays: "14",
	})
	assert.Equal(t, "2026-03-31", vals.Renewal)

	vals.Amount = "¥64,800"
	form, err := vals.ContractForm()
	require.NoError(t, err)
	assert.Equal(t, "64800", form.Amount)
	assert.Equal(t, model.BillingYearly, form.BillingCycle)
	require.NotNil(t, form.RenewalDate)
	assert.True(t, form.RenewalDate.Equal(renewal))

	vals.Renewal = "31/03/2026"
	_, err = vals.ContractForm()
	assert.Error(t, err)
}

func TestDefaultValues(t *testing.T) {
	v := DefaultValues(3)
	assert.Equal(t, model.CategorySubscription, v.Category)
	assert.Equal(t, model.BillingMonthly, v.Cycle)
	assert.Equal(t, "3", v.ReminderDays)
	assert.Empty(t, v.Renewal)

	assert.Equal(t, "7", DefaultValues(-1).ReminderDays)
}
