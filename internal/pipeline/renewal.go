package pipeline

import (
	"time"

	"github.com/theirongolddev/koshin/internal/model"
)

const msPerDay = int64(24 * time.Hour / time.Millisecond)

// DaysUntilRenewal returns the number of days from now until the renewal
// date, rounded up. It is 0 or negative once the date has been reached.
func DaysUntilRenewal(c model.Contract, now time.Time) int {
	diff := c.RenewalDate.Sub(now).Milliseconds()
	if diff > 0 {
		return int((diff + msPerDay - 1) / msPerDay)
	}
	// Integer division truncates toward zero, which is the ceiling here.
	return int(diff / msPerDay)
}

// IsRenewalPassed reports whether the renewal instant is strictly before now.
func IsRenewalPassed(c model.Contract, now time.Time) bool {
	return c.RenewalDate.Before(now)
}

// UpcomingRenewals returns contracts renewing between now and withinDays
// calendar days from now, both ends inclusive.
func UpcomingRenewals(contracts []model.Contract, withinDays int, now time.Time) []model.Contract {
	until := now.AddDate(0, 0, withinDays)

	result := []model.Contract{}
	for _, c := range contracts {
		if !c.RenewalDate.Before(now) && !c.RenewalDate.After(until) {
			result = append(result, c)
		}
	}
	return result
}

// MonthRenewals counts the renewals falling in one calendar month.
type MonthRenewals struct {
	Month  time.Time // first day of the month, in now's location
	Count  int
	Amount int64 // sum of the charged amounts, not annualized
}

// RenewalsByMonth buckets renewal dates into months calendar months starting
// with the month containing now. Renewals outside the window are ignored.
func RenewalsByMonth(contracts []model.Contract, months int, now time.Time) []MonthRenewals {
	if months <= 0 {
		return nil
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	buckets := make([]MonthRenewals, months)
	for i := range buckets {
		buckets[i].Month = start.AddDate(0, i, 0)
	}

	for _, c := range contracts {
		d := c.RenewalDate.In(now.Location())
		i := (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
		if i < 0 || i >= months {
			continue
		}
		buckets[i].Count++
		buckets[i].Amount += c.Amount
	}
	return buckets
}
