package features

import "time"

// Weekday returns the day of week with Monday as 0 and Sunday as 6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// QuarterOrdinal numbers calendar quarters consecutively from 1970Q1 = 0.
func QuarterOrdinal(t time.Time) int {
	return (t.Year()-1970)*4 + (int(t.Month())-1)/3
}

// AddMonths shifts t by n calendar months, clamping the day to the last day
// of the target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ForecastQuarter is the quarter ordinal of t shifted forward by horizon months.
func ForecastQuarter(t time.Time, horizonMonths int) int {
	return QuarterOrdinal(AddMonths(t, horizonMonths))
}
