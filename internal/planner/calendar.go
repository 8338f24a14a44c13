package planner

import (
	"fmt"
	"time"

	"github.com/emailpilot/emailpilot/internal/domain"
)

// WeekKey returns the ISO calendar week key for a date, e.g. "2025-W12".
// The ISO year can differ from the calendar year near January 1.
func WeekKey(d domain.Date) string {
	year, week := d.Time().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey formats a year/month pair as "2006-01".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Holiday is a notable send-planning date within a month. Holidays feed
// the generation prompt; validation never consults them.
type Holiday struct {
	Name string      `json:"name"`
	Date domain.Date `json:"date"`
}

type holidayInfo struct {
	name  string
	month time.Month
	day   int
}

var fixedHolidays = []holidayInfo{
	{"New Year's Day", time.January, 1},
	{"Valentine's Day", time.February, 14},
	{"Independence Day", time.July, 4},
	{"Halloween", time.October, 31},
	{"Veterans Day", time.November, 11},
	{"Christmas Eve", time.December, 24},
	{"Christmas", time.December, 25},
	{"New Year's Eve", time.December, 31},
}

// DetectHoliday reports whether the given date falls on a US retail
// holiday and the holiday name. Covers fixed and floating holidays.
func DetectHoliday(d domain.Date) (bool, string) {
	for _, h := range fixedHolidays {
		if d.Month == h.month && d.Day == h.day {
			return true, h.name
		}
	}

	t := d.Time()
	switch {
	case d.Month == time.January && t.Weekday() == time.Monday && nthWeekday(d.Day) == 3:
		return true, "MLK Day"
	case d.Month == time.February && t.Weekday() == time.Monday && nthWeekday(d.Day) == 3:
		return true, "Presidents' Day"
	case d.Month == time.May && t.Weekday() == time.Monday && d.Day > 24:
		return true, "Memorial Day"
	case d.Month == time.September && t.Weekday() == time.Monday && nthWeekday(d.Day) == 1:
		return true, "Labor Day"
	case d.Month == time.November && t.Weekday() == time.Thursday && nthWeekday(d.Day) == 4:
		return true, "Thanksgiving"
	case d.Month == time.November && t.Weekday() == time.Friday && nthWeekday(d.Day-1) == 4:
		return true, "Black Friday"
	case d.Month == time.May && t.Weekday() == time.Sunday && nthWeekday(d.Day) == 2:
		return true, "Mother's Day"
	case d.Month == time.June && t.Weekday() == time.Sunday && nthWeekday(d.Day) == 3:
		return true, "Father's Day"
	}

	// Cyber Monday — Monday after Thanksgiving.
	if d.Month == time.November || d.Month == time.December {
		thanksgiving := findNthWeekdayInMonth(d.Year, time.November, time.Thursday, 4)
		cyber := thanksgiving.AddDate(0, 0, 4)
		if d.Month == cyber.Month() && d.Day == cyber.Day() {
			return true, "Cyber Monday"
		}
	}

	// Easter (Western) via the anonymous Gregorian algorithm.
	if em, ed := easterDate(d.Year); d.Month == em && d.Day == ed {
		return true, "Easter"
	}

	return false, ""
}

// HolidaysInMonth lists every detected holiday in the given month, in
// date order.
func HolidaysInMonth(year int, month time.Month) []Holiday {
	var out []Holiday
	for day := 1; day <= DaysInMonth(year, month); day++ {
		d := domain.NewDate(year, month, day)
		if ok, name := DetectHoliday(d); ok {
			out = append(out, Holiday{Name: name, Date: d})
		}
	}
	return out
}

func nthWeekday(dayOfMonth int) int {
	return (dayOfMonth-1)/7 + 1
}

func findNthWeekdayInMonth(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	count := 0
	for d := 1; d <= 31; d++ {
		candidate := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		if candidate.Month() != month {
			break
		}
		if candidate.Weekday() == weekday {
			count++
			if count == n {
				return candidate
			}
		}
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// Anonymous Gregorian Easter algorithm.
func easterDate(year int) (time.Month, int) {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return time.Month(month), day
}
