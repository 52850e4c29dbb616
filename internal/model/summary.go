package model

// PerCategory is a fixed table with one slot per category. Every category is
// always present, so iteration order and zero values are deterministic.
type PerCategory[T any] [categoryCount]T

// Of returns the value stored for c. Unknown categories read as the zero value.
func (p PerCategory[T]) Of(c Category) T {
	var zero T
	i := c.Index()
	if i < 0 {
		return zero
	}
	return p[i]
}

// Set stores v for c. Unknown categories are ignored.
func (p *PerCategory[T]) Set(c Category, v T) {
	if i := c.Index(); i >= 0 {
		p[i] = v
	}
}

// Each calls fn for every category in display order.
func (p PerCategory[T]) Each(fn func(Category, T)) {
	for i, c := range Categories {
		fn(c, p[i])
	}
}

// Summary holds the top-level aggregate across all contracts.
type Summary struct {
	TotalContracts int
	AnnualCost     int64
	MonthlyCost    int64

	CostByCategory  PerCategory[int64]
	CountByCategory PerCategory[int]

	UpcomingWindowDays int
	UpcomingCount      int
	OverdueCount       int
	OneTimeCount       int
}
