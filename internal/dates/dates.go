// Package dates provides the calendar arithmetic the strategy schedules
// run on: date normalization, business-day offsets and week/month
// boundary detection.
package dates

import "time"

// Day strips the time-of-day component, keeping the calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddBusiness adds n business days to t, skipping weekends. Negative n
// walks backwards. Holidays are the host calendar's problem.
func AddBusiness(t time.Time, n int) time.Time {
	d := Day(t)
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		n--
	}
	return d
}

// MonthStart reports whether cur is the first observed trading day of a
// new calendar month relative to prev.
func MonthStart(prev, cur time.Time) bool {
	return cur.Month() != prev.Month() || cur.Year() != prev.Year()
}

// WeekStart reports whether cur is the first observed trading day of a
// new ISO week relative to prev.
func WeekStart(prev, cur time.Time) bool {
	py, pw := prev.ISOWeek()
	cy, cw := cur.ISOWeek()
	return cy > py || (cy == py && cw > pw)
}
