// Package calendar provides the leap-year rule and reference-year
// day-of-year arithmetic shared by the temporal translation engine.
package calendar

import "time"

// ReferenceYear is the leap year against which all day-of-year arithmetic is
// canonicalized. A leap year is chosen for maximal inclusivity so that
// February 29 is always representable.
const ReferenceYear = 2000

// Days and hours in a calendar year.
const (
	DaysPerYear     = 365
	DaysPerLeapYear = 366

	HoursPerYear     = 8760
	HoursPerLeapYear = 8784
)

// LeapDayOrdinal is the day-of-year of February 29 in the reference year.
const LeapDayOrdinal = 60

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 365, or 366 for a leap year.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return DaysPerLeapYear
	}
	return DaysPerYear
}

// HoursInYear returns 8760, or 8784 for a leap year.
func HoursInYear(year int) int {
	if IsLeapYear(year) {
		return HoursPerLeapYear
	}
	return HoursPerYear
}

// DaysInMonth returns the number of days in the given month of the given
// year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// YearDay returns the day-of-year of the given month and day in the
// reference year, in [1, 366].
func YearDay(month time.Month, day int) int {
	return time.Date(ReferenceYear, month, day, 0, 0, 0, 0, time.UTC).YearDay()
}

// MonthDay converts a reference-year day-of-year back into its month and
// day.
func MonthDay(yearDay int) (time.Month, int) {
	d := time.Date(ReferenceYear, time.January, yearDay, 0, 0, 0, 0, time.UTC)
	return d.Month(), d.Day()
}
