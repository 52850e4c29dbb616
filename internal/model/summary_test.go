package model

import "testing"

func TestPerCategoryAlwaysHasEveryKey(t *testing.T) {
	var p PerCategory[int64]
	p.Set(CategoryRental, 5000)
	p.Set(Category("bogus"), 99)

	seen := 0
	p.Each(func(c Category, v int64) {
		seen++
		if c == CategoryRental && v != 5000 {
			t.Fatalf("rental = %d, want 5000", v)
		}
		if c != CategoryRental && v != 0 {
			t.Fatalf("%s = %d, want 0", c, v)
		}
	})
	if seen != len(Categories) {
		t.Fatalf("Each visited %d categories, want %d", seen, len(Categories))
	}
	if got := p.Of(Category("bogus")); got != 0 {
		t.Fatalf("unknown category read %d, want 0", got)
	}
}

func TestCategoryAndCycleLabels(t *testing.T) {
	tests := []struct {
		cat   Category
		label string
	}{
		{CategorySubscription, "サブスク"},
		{CategoryInsurance, "保険"},
		{CategoryRental, "賃貸"},
		{CategoryOther, "その他"},
	}
	for _, tt := range tests {
		if got := tt.cat.Label(); got != tt.label {
			t.Errorf("%s.Label() = %q, want %q", tt.cat, got, tt.label)
		}
		if !tt.cat.Valid() {
			t.Errorf("%s should be valid", tt.cat)
		}
	}
	if Category("unknown").Valid() {
		t.Error("unknown category reported valid")
	}
	if BillingOneTime.Label() != "一括" || !BillingOneTime.Valid() {
		t.Error("one-time billing cycle label/validity wrong")
	}
	if BillingCycle("weekly").Valid() {
		t.Error("weekly billing cycle reported valid")
	}
}
