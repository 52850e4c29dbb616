// Package model defines domain types for tracked contracts and their renewals.
package model

import (
	"strconv"
	"time"
)

// Category classifies a contract.
type Category string

// Known categories, in display order.
const (
	CategorySubscription Category = "subscription"
	CategoryInsurance    Category = "insurance"
	CategoryRental       Category = "rental"
	CategoryOther        Category = "other"
)

// categoryCount is the size of the closed category set.
const categoryCount = 4

// Categories lists every category in display order.
var Categories = [categoryCount]Category{
	CategorySubscription,
	CategoryInsurance,
	CategoryRental,
	CategoryOther,
}

// Index returns the ordinal of c in Categories, or -1 for an unknown category.
func (c Category) Index() int {
	for i, k := range Categories {
		if k == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	return c.Index() >= 0
}

// Label returns the Japanese display label.
func (c Category) Label() string {
	switch c {
	case CategorySubscription:
		return "サブスク"
	case CategoryInsurance:
		return "保険"
	case CategoryRental:
		return "賃貸"
	case CategoryOther:
		return "その他"
	}
	return string(c)
}

// Emoji returns the icon shown next to the category.
func (c Category) Emoji() string {
	switch c {
	case CategorySubscription:
		return "📱"
	case CategoryInsurance:
		return "🛡️"
	case CategoryRental:
		return "🏠"
	case CategoryOther:
		return "📋"
	}
	return ""
}

// BillingCycle is the payment recurrence of a contract.
type BillingCycle string

// Known billing cycles.
const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
	BillingOneTime BillingCycle = "one-time"
)

// BillingCycles lists every billing cycle in display order.
var BillingCycles = []BillingCycle{BillingMonthly, BillingYearly, BillingOneTime}

// Valid reports whether b is a member of the closed billing cycle set.
func (b BillingCycle) Valid() bool {
	switch b {
	case BillingMonthly, BillingYearly, BillingOneTime:
		return true
	}
	return false
}

// Label returns the Japanese display label.
func (b BillingCycle) Label() string {
	switch b {
	case BillingMonthly:
		return "月額"
	case BillingYearly:
		return "年額"
	case BillingOneTime:
		return "一括"
	}
	return string(b)
}

// Field limits shared by validation and the form widgets.
const (
	MaxNameLength       = 100
	MaxAmount           = 100_000_000
	MaxReminderDays     = 365
	DefaultReminderDays = 7
)

// Contract is a single tracked obligation. Amount is in yen.
type Contract struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	Category       Category     `json:"category" yaml:"category"`
	BillingCycle   BillingCycle `json:"billingCycle" yaml:"billingCycle"`
	Amount         int64        `json:"amount" yaml:"amount"`
	RenewalDate    time.Time    `json:"renewalDate" yaml:"renewalDate"`
	ReminderDays   int          `json:"reminderDays" yaml:"reminderDays"`
	NotificationID string       `json:"notificationId,omitempty" yaml:"notificationId,omitempty"`
	Notes          string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt      time.Time    `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt" yaml:"updatedAt"`
}

// ContractForm is raw form input as collected from the user. Everything is a
// string except RenewalDate, which is nil until a date has been picked.
type ContractForm struct {
	Name         string
	Category     Category
	BillingCycle BillingCycle
	Amount       string
	RenewalDate  *time.Time
	ReminderDays string
	Notes        string
}

// FormFromContract pre-fills a form for editing c.
func FormFromContract(c Contract) ContractForm {
	renewal := c.RenewalDate
	return ContractForm{
		Name:         c.Name,
		Category:     c.Category,
		BillingCycle: c.BillingCycle,
		Amount:       strconv.FormatInt(c.Amount, 10),
		RenewalDate:  &renewal,
		ReminderDays: strconv.Itoa(c.ReminderDays),
		Notes:        c.Notes,
	}
}
