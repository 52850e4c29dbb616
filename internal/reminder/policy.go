// Package reminder decides when a contract's renewal reminder should fire and
// schedules it through a Notifier.
package reminder

import (
	"fmt"
	"time"

	"github.com/theirongolddev/koshin/internal/model"
)

// FireHour is the local hour at which reminders fire.
const FireHour = 9

// Title is the notification title for every renewal reminder.
const Title = "契約更新のお知らせ"

// FireTime returns reminderDays before the start of the renewal day in loc,
// at FireHour.
func FireTime(c model.Contract, loc *time.Location) time.Time {
	y, m, d := c.RenewalDate.In(loc).Date()
	return time.Date(y, m, d-c.ReminderDays, FireHour, 0, 0, 0, loc)
}

// ComputeFireTime returns the fire time for c in now's location. ok is false
// when that time is not strictly after now.
func ComputeFireTime(c model.Contract, now time.Time) (fire time.Time, ok bool) {
	fire = FireTime(c, now.Location())
	if !fire.After(now) {
		return time.Time{}, false
	}
	return fire, true
}

// Body returns the notification text for c. It always names the contract and
// its category.
func Body(c model.Contract) string {
	if c.ReminderDays == 0 {
		return fmt.Sprintf("本日は「%s」（%s）の更新日です", c.Name, c.Category.Label())
	}
	return fmt.Sprintf("「%s」（%s）の更新日まであと%d日です", c.Name, c.Category.Label(), c.ReminderDays)
}
