package cli

import (
	"testing"
	"time"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "¥0"},
		{999, "¥999"},
		{1500, "¥1,500"},
		{1234567, "¥1,234,567"},
		{100_000_000, "¥100,000,000"},
		{-500, "-¥500"},
		{-12000, "-¥12,000"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCurrencyRoundTrip(t *testing.T) {
	samples := []int64{0, 1, 9, 10, 999, 1000, 1001, 123456, 99_999_999, 100_000_000}
	for n := int64(0); n <= 100_000_000; n += 7_654_321 {
		samples = append(samples, n)
	}
	for _, n := range samples {
		if got := ParseCurrency(FormatCurrency(n)); got != n {
			t.Fatalf("ParseCurrency(FormatCurrency(%d)) = %d", n, got)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"¥1,500", 1500},
		{"1000", 1000},
		{" ¥ 2,000 ", 2000},
		{"-¥500", -500},
		{"abc", 0},
		{"", 0},
		{"12円", 12},
	}
	for _, tt := range tests {
		if got := ParseCurrency(tt.in); got != tt.want {
			t.Errorf("ParseCurrency(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumberInput(t *testing.T) {
	tests := map[string]string{
		"1,500円":   "1500",
		"abc123def": "123",
		"":          "",
		"¥-42":      "42",
	}
	for in, want := range tests {
		if got := FormatNumberInput(in); got != want {
			t.Errorf("FormatNumberInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	if got := FormatDate(d); got != "2024年6月15日" {
		t.Fatalf("FormatDate = %q", got)
	}
	if got := FormatDateWithDay(d); got != "2024年6月15日（土）" {
		t.Fatalf("FormatDateWithDay = %q", got)
	}
	if got := FormatDate(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)); got != "2024年12月25日" {
		t.Fatalf("FormatDate(Christmas) = %q", got)
	}
}

func TestFormatRelativeDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	at := func(days int, hour int) time.Time {
		return time.Date(2025, 6, 15+days, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		d    time.Time
		want string
	}{
		{"later today", at(0, 23), "今日"},
		{"earlier today", at(0, 1), "今日"},
		{"tomorrow midnight", at(1, 0), "明日"},
		{"tomorrow evening", at(1, 22), "明日"},
		{"five days", now.AddDate(0, 0, 5), "5日後"},
		{"partial day rounds up", at(5, 0), "5日後"},
		{"seven days", now.AddDate(0, 0, 7), "7日後"},
		{"eight days", now.AddDate(0, 0, 8), "約1週間後"},
		{"thirty days", now.AddDate(0, 0, 30), "約4週間後"},
		{"thirty-one days", now.AddDate(0, 0, 31), "約1ヶ月後"},
		{"a year", now.AddDate(0, 0, 365), "約12ヶ月後"},
		{"over a year", now.AddDate(0, 0, 366), "約1年後"},
		{"two years", now.AddDate(0, 0, 800), "約2年後"},
		{"three days ago", now.AddDate(0, 0, -3), "3日前"},
		{"late yesterday", at(-1, 23), "1日前"},
		{"past never buckets", now.AddDate(0, 0, -400), "400日前"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRelativeDate(tt.d, now); got != tt.want {
				t.Fatalf("FormatRelativeDate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRenewalStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		days int
		want string
	}{
		{-5, "更新期限を5日過ぎています"},
		{0, "今日が更新日です"},
		{1, "明日が更新日です"},
		{2, "あと2日で更新日です"},
		{5, "あと5日で更新日です"},
		{7, "あと7日で更新日です"},
		{8, "あと8日"},
		{30, "あと30日"},
		{31, "約1ヶ月後"},
		{200, "約6ヶ月後"},
		{400, "約1年後"},
	}
	for _, tt := range tests {
		if got := FormatRenewalStatus(tt.days, now); got != tt.want {
			t.Errorf("FormatRenewalStatus(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestUrgencyLevelBoundaries(t *testing.T) {
	tests := []struct {
		days int
		want Urgency
	}{
		{-30, UrgencyUrgent},
		{-1, UrgencyUrgent},
		{0, UrgencyUrgent},
		{3, UrgencyUrgent},
		{4, UrgencyWarning},
		{5, UrgencyWarning},
		{14, UrgencyWarning},
		{15, UrgencyNormal},
		{365, UrgencyNormal},
	}
	for _, tt := range tests {
		if got := UrgencyLevel(tt.days); got != tt.want {
			t.Errorf("UrgencyLevel(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestFormatBillingCycle(t *testing.T) {
	tests := []struct {
		amount int64
		cycle  string
		want   string
	}{
		{1000, "monthly", "¥1,000/月"},
		{10000, "yearly", "¥10,000/年"},
		{5000, "one-time", "¥5,000（一括）"},
		{5000, "weekly", "¥5,000"},
	}
	for _, tt := range tests {
		if got := FormatBillingCycle(tt.amount, tt.cycle); got != tt.want {
			t.Errorf("FormatBillingCycle(%d, %q) = %q, want %q", tt.amount, tt.cycle, got, tt.want)
		}
	}
}

func TestRenderTableAlignsWideText(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"契約名", "金額"},
		Rows: [][]string{
			{"自動車保険", "¥60,000"},
			{"Netflix", "¥1,490"},
		},
	})
	if out == "" {
		t.Fatal("RenderTable returned empty output")
	}
}
