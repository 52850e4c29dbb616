package pipeline

import (
	"sort"
	"strings"

	"github.com/theirongolddev/koshin/internal/model"
)

// SortByRenewalDate returns a copy ordered by renewal date. Contracts with the
// same date keep their original relative order.
func SortByRenewalDate(contracts []model.Contract, ascending bool) []model.Contract {
	sorted := make([]model.Contract, len(contracts))
	copy(sorted, contracts)

	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].RenewalDate.Before(sorted[j].RenewalDate)
		}
		return sorted[i].RenewalDate.After(sorted[j].RenewalDate)
	})
	return sorted
}

// SortByAmount returns a copy ordered by annual cost, highest first.
func SortByAmount(contracts []model.Contract) []model.Contract {
	sorted := make([]model.Contract, len(contracts))
	copy(sorted, contracts)

	sort.SliceStable(sorted, func(i, j int) bool {
		return AnnualCost(sorted[i]) > AnnualCost(sorted[j])
	})
	return sorted
}

// FilterByCategory returns the contracts in category.
func FilterByCategory(contracts []model.Contract, category model.Category) []model.Contract {
	result := []model.Contract{}
	for _, c := range contracts {
		if c.Category == category {
			result = append(result, c)
		}
	}
	return result
}

// SearchContracts returns contracts whose name contains query, ignoring case.
// An empty query matches everything.
func SearchContracts(contracts []model.Contract, query string) []model.Contract {
	result := []model.Contract{}
	for _, c := range contracts {
		if containsIgnoreCase(c.Name, query) {
			result = append(result, c)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
