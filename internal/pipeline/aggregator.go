// Package pipeline computes costs, renewal timing, and ordered or filtered
// views over a list of contracts. Every function is pure: inputs are never
// modified and the current instant is passed in explicitly.
package pipeline

import (
	"time"

	"github.com/theirongolddev/koshin/internal/model"
)

// DefaultUpcomingDays is the look-ahead window used when none is configured.
const DefaultUpcomingDays = 30

// CostByCategory sums AnnualCost per category. Categories without contracts
// are present with 0.
func CostByCategory(contracts []model.Contract) model.PerCategory[int64] {
	var result model.PerCategory[int64]
	for _, c := range contracts {
		result.Set(c.Category, result.Of(c.Category)+AnnualCost(c))
	}
	return result
}

// GroupByCategory splits contracts per category, keeping their relative order.
func GroupByCategory(contracts []model.Contract) model.PerCategory[[]model.Contract] {
	var result model.PerCategory[[]model.Contract]
	for i := range result {
		result[i] = []model.Contract{}
	}
	for _, c := range contracts {
		result.Set(c.Category, append(result.Of(c.Category), c))
	}
	return result
}

// CategoryShare returns each category's percentage of the total annual cost.
// All shares are 0 when the total is 0.
func CategoryShare(costs model.PerCategory[int64]) model.PerCategory[float64] {
	var total int64
	for _, v := range costs {
		total += v
	}

	var shares model.PerCategory[float64]
	if total == 0 {
		return shares
	}
	for i, v := range costs {
		shares[i] = float64(v) / float64(total) * 100
	}
	return shares
}

// Summarize computes the top-level aggregate shown on the summary screen.
func Summarize(contracts []model.Contract, upcomingDays int, now time.Time) model.Summary {
	if upcomingDays <= 0 {
		upcomingDays = DefaultUpcomingDays
	}

	s := model.Summary{
		TotalContracts:     len(contracts),
		AnnualCost:         TotalAnnualCost(contracts),
		MonthlyCost:        TotalMonthlyCost(contracts),
		CostByCategory:     CostByCategory(contracts),
		UpcomingWindowDays: upcomingDays,
		UpcomingCount:      len(UpcomingRenewals(contracts, upcomingDays, now)),
	}

	for _, c := range contracts {
		s.CountByCategory.Set(c.Category, s.CountByCategory.Of(c.Category)+1)
		if IsRenewalPassed(c, now) {
			s.OverdueCount++
		}
		if c.BillingCycle == model.BillingOneTime {
			s.OneTimeCount++
		}
	}

	return s
}
