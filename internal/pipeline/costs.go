package pipeline

import (
	"math"

	"github.com/theirongolddev/koshin/internal/model"
)

// monthsPerYear converts between monthly and yearly billing.
const monthsPerYear = 12

// AnnualCost returns the yearly cost of a contract. One-time contracts are not
// recurring and count as 0.
func AnnualCost(c model.Contract) int64 {
	switch c.BillingCycle {
	case model.BillingMonthly:
		return c.Amount * monthsPerYear
	case model.BillingYearly:
		return c.Amount
	default:
		return 0
	}
}

// MonthlyCost returns the monthly equivalent of a contract. Yearly amounts are
// divided by 12 and rounded half up.
func MonthlyCost(c model.Contract) int64 {
	switch c.BillingCycle {
	case model.BillingMonthly:
		return c.Amount
	case model.BillingYearly:
		return int64(math.Floor(float64(c.Amount)/monthsPerYear + 0.5))
	default:
		return 0
	}
}

// TotalAnnualCost sums AnnualCost over contracts.
func TotalAnnualCost(contracts []model.Contract) int64 {
	var total int64
	for _, c := range contracts {
		total += AnnualCost(c)
	}
	return total
}

// TotalMonthlyCost sums MonthlyCost over contracts.
func TotalMonthlyCost(contracts []model.Contract) int64 {
	var total int64
	for _, c := range contracts {
		total += MonthlyCost(c)
	}
	return total
}
