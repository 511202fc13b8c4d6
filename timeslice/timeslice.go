// Package timeslice translates between a chronological snapshot sequence and
// a hierarchical representative timeslice structure without losing or
// double-counting time. A timeslice combines a day-of-year range, a
// time-of-day range and a season label, and carries an annual duration
// weight; the translation partitions the calendar so that the timeslice set
// exactly tiles every year the snapshots touch.
package timeslice

import (
	"errors"
	"fmt"
	"time"

	"github.com/enertrans/timegrid/common/calendar"
)

// DefaultSeason labels timeslices when the input carries no seasonal
// subdivision.
const DefaultSeason = "X"

var (
	// ErrNoSnapshots is returned when a translation receives an empty
	// snapshot sequence.
	ErrNoSnapshots = errors.New("no snapshots supplied")
	// ErrNoDates is returned when the day-type partitioner receives no dates.
	ErrNoDates = errors.New("no dates supplied")
	// ErrNoTimes is returned when the bracket partitioner receives no times
	// of day.
	ErrNoTimes = errors.New("no times of day supplied")
	// ErrInvalidBracket is returned for a daily time bracket whose bounds are
	// out of order or outside the day.
	ErrInvalidBracket = errors.New("invalid daily time bracket")
	// ErrInvalidDayType is returned for a day type with an invalid or
	// year-wrapping month/day range.
	ErrInvalidDayType = errors.New("invalid day type")
	// ErrUnmappedSnapshot is returned when a snapshot is covered by no
	// timeslice. With a partition built by this package every instant is
	// covered, so hitting this indicates an internal inconsistency or a
	// hand-built timeslice set with gaps.
	ErrUnmappedSnapshot = errors.New("snapshot not covered by any timeslice")
	// ErrCoverage is returned, wrapped in a CoverageError, when a timeslice
	// set fails to tile a touched year.
	ErrCoverage = errors.New("timeslice set does not tile the calendar")
	// ErrBadDefinition is returned when an externally supplied timeslice
	// definition is missing required parts.
	ErrBadDefinition = errors.New("bad timeslice definition")
	// ErrUnknownYear is returned when a definition carries no duration
	// fractions for the requested year.
	ErrUnknownYear = errors.New("year not present in definition")
	// ErrInvalidStep is returned when a snapshot resolution does not evenly
	// divide the day.
	ErrInvalidStep = errors.New("invalid snapshot step")
)

// TimeOfDay is a clock offset from midnight, day- and year-agnostic.
type TimeOfDay time.Duration

// Midnight is the first instant of the day.
const Midnight = TimeOfDay(0)

// EndOfDay is the sentinel terminal instant of the day, 23:59:59.999999.
// A bracket ending at EndOfDay is closed on the right so the last instant of
// the day is always captured.
const EndOfDay = TimeOfDay(24*time.Hour - time.Microsecond)

// NewTimeOfDay returns the clock offset for the given hour, minute and
// second.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// TimeOfDayOf extracts the clock reading of a timestamp.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s) + TimeOfDay(t.Nanosecond())
}

// Duration returns the offset as a time.Duration.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

// Hours returns the offset in fractional hours.
func (t TimeOfDay) Hours() float64 {
	return time.Duration(t).Hours()
}

func (t TimeOfDay) clock() (hour, minute int) {
	d := time.Duration(t)
	return int(d / time.Hour), int(d % time.Hour / time.Minute)
}

// String formats the offset as HH:MM:SS.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d:%02d",
		int(d/time.Hour), int(d%time.Hour/time.Minute), int(d%time.Minute/time.Second))
}

// stamp renders the offset as HHMM for use in derived names, with the
// EndOfDay sentinel rendered as the day boundary 2400.
func (t TimeOfDay) stamp() string {
	if t == EndOfDay {
		return "2400"
	}
	h, m := t.clock()
	return fmt.Sprintf("%02d%02d", h, m)
}

// DailyTimeBracket is a time-of-day range, half-open [Start, End) unless End
// is the EndOfDay sentinel, in which case the right boundary is inclusive.
// Identity is defined solely by (Start, End); Name is descriptive only.
type DailyTimeBracket struct {
	Start TimeOfDay
	End   TimeOfDay
	Name  string
}

// NewDailyTimeBracket validates and builds a bracket. An empty name is
// derived from the boundary times.
func NewDailyTimeBracket(start, end TimeOfDay, name string) (DailyTimeBracket, error) {
	if start < Midnight || start > EndOfDay || end < Midnight || end > EndOfDay {
		return DailyTimeBracket{}, fmt.Errorf("%w: bounds [%s, %s) outside day", ErrInvalidBracket, start, end)
	}
	if end != EndOfDay && start >= end {
		return DailyTimeBracket{}, fmt.Errorf("%w: start %s not before end %s", ErrInvalidBracket, start, end)
	}
	b := DailyTimeBracket{Start: start, End: end, Name: name}
	if b.Name == "" {
		if b.IsFullDay() {
			b.Name = "DAY"
		} else {
			b.Name = "T" + start.stamp() + "_" + end.stamp()
		}
	}
	return b, nil
}

// IsFullDay reports whether the bracket covers the whole day.
func (b DailyTimeBracket) IsFullDay() bool {
	return b.Start == Midnight && b.End == EndOfDay
}

// Contains reports whether the given time of day falls within the bracket.
// A bracket ending at the EndOfDay sentinel contains everything up to the day
// boundary, including readings finer than the sentinel's precision.
func (b DailyTimeBracket) Contains(t TimeOfDay) bool {
	if b.End == EndOfDay {
		return b.Start <= t
	}
	return b.Start <= t && t < b.End
}

// DurationHours returns the bracket length in hours. A bracket ending at
// EndOfDay counts through the full day boundary.
func (b DailyTimeBracket) DurationHours() float64 {
	end := time.Duration(b.End)
	if b.End == EndOfDay {
		end = 24 * time.Hour
	}
	return (end - time.Duration(b.Start)).Hours()
}

// Equal reports value identity, ignoring the name.
func (b DailyTimeBracket) Equal(other DailyTimeBracket) bool {
	return b.Start == other.Start && b.End == other.End
}

// Less orders brackets by start time.
func (b DailyTimeBracket) Less(other DailyTimeBracket) bool {
	return b.Start < other.Start
}

type bracketKey struct {
	start, end TimeOfDay
}

func (b DailyTimeBracket) key() bracketKey {
	return bracketKey{b.Start, b.End}
}

// DayType is a day-of-year range, inclusive on both ends, canonicalized
// against the reference leap year so February 29 is always representable.
// Identity is defined by the canonical range; Name is descriptive only.
type DayType struct {
	MonthStart time.Month
	DayStart   int
	MonthEnd   time.Month
	DayEnd     int
	Name       string
}

// NewDayType validates and builds a day type. An empty name is derived from
// the boundary dates. Year-wrapping ranges are rejected.
func NewDayType(monthStart time.Month, dayStart int, monthEnd time.Month, dayEnd int, name string) (DayType, error) {
	for _, m := range []time.Month{monthStart, monthEnd} {
		if m < time.January || m > time.December {
			return DayType{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDayType, m)
		}
	}
	if dayStart < 1 || dayStart > calendar.DaysInMonth(calendar.ReferenceYear, monthStart) {
		return DayType{}, fmt.Errorf("%w: day %d invalid for %s", ErrInvalidDayType, dayStart, monthStart)
	}
	if dayEnd < 1 || dayEnd > calendar.DaysInMonth(calendar.ReferenceYear, monthEnd) {
		return DayType{}, fmt.Errorf("%w: day %d invalid for %s", ErrInvalidDayType, dayEnd, monthEnd)
	}
	d := DayType{MonthStart: monthStart, DayStart: dayStart, MonthEnd: monthEnd, DayEnd: dayEnd, Name: name}
	if d.startOrdinal() > d.endOrdinal() {
		return DayType{}, fmt.Errorf("%w: range %02d-%02d to %02d-%02d wraps the year",
			ErrInvalidDayType, monthStart, dayStart, monthEnd, dayEnd)
	}
	if d.Name == "" {
		if d.IsFullYear() {
			d.Name = "YEAR"
		} else {
			d.Name = fmt.Sprintf("%02d-%02d to %02d-%02d", monthStart, dayStart, monthEnd, dayEnd)
		}
	}
	return d, nil
}

// IsFullYear reports whether the range covers the whole year.
func (d DayType) IsFullYear() bool {
	return d.MonthStart == time.January && d.DayStart == 1 &&
		d.MonthEnd == time.December && d.DayEnd == 31
}

func (d DayType) startOrdinal() int {
	return calendar.YearDay(d.MonthStart, d.DayStart)
}

func (d DayType) endOrdinal() int {
	return calendar.YearDay(d.MonthEnd, d.DayEnd)
}

// spansLeapDay reports whether the canonical range includes February 29.
func (d DayType) spansLeapDay() bool {
	return d.startOrdinal() <= calendar.LeapDayOrdinal && calendar.LeapDayOrdinal <= d.endOrdinal()
}

// ContainsDate reports whether the date falls within the day type after
// normalization to the reference year.
func (d DayType) ContainsDate(t time.Time) bool {
	ord := calendar.YearDay(t.Month(), t.Day())
	return d.startOrdinal() <= ord && ord <= d.endOrdinal()
}

// DurationDays returns the number of days this day type covers in a concrete
// target year. A range spanning the canonical leap day loses exactly one day
// when the target year is not a leap year; in particular the February 29
// singleton contributes zero days in a non-leap year.
func (d DayType) DurationDays(year int) int {
	days := d.endOrdinal() - d.startOrdinal() + 1
	if !calendar.IsLeapYear(year) && d.spansLeapDay() {
		days--
	}
	return days
}

// Equal reports value identity, ignoring the name.
func (d DayType) Equal(other DayType) bool {
	return d.MonthStart == other.MonthStart && d.DayStart == other.DayStart &&
		d.MonthEnd == other.MonthEnd && d.DayEnd == other.DayEnd
}

// Less orders day types by start day-of-year.
func (d DayType) Less(other DayType) bool {
	return d.startOrdinal() < other.startOrdinal()
}

type dayTypeKey struct {
	monthStart time.Month
	dayStart   int
	monthEnd   time.Month
	dayEnd     int
}

func (d DayType) key() dayTypeKey {
	return dayTypeKey{d.MonthStart, d.DayStart, d.MonthEnd, d.DayEnd}
}

// Timeslice combines a season label, a day type and a daily time bracket
// into one representative period repeated across the calendar.
type Timeslice struct {
	Season  string
	DayType DayType
	Bracket DailyTimeBracket
}

// NewTimeslice builds a timeslice; an empty season falls back to
// DefaultSeason.
func NewTimeslice(season string, daytype DayType, bracket DailyTimeBracket) Timeslice {
	if season == "" {
		season = DefaultSeason
	}
	return Timeslice{Season: season, DayType: daytype, Bracket: bracket}
}

// Name derives the timeslice name as season_daytype_bracket.
func (ts Timeslice) Name() string {
	return ts.Season + "_" + ts.DayType.Name + "_" + ts.Bracket.Name
}

// DurationHours returns the total annual duration of the timeslice in the
// given year.
func (ts Timeslice) DurationHours(year int) float64 {
	return float64(ts.DayType.DurationDays(year)) * ts.Bracket.DurationHours()
}

// YearFraction returns the timeslice duration as a fraction of the year.
func (ts Timeslice) YearFraction(year int) float64 {
	return ts.DurationHours(year) / float64(calendar.HoursInYear(year))
}

// Contains reports whether a timestamp falls within the timeslice.
func (ts Timeslice) Contains(t time.Time) bool {
	return ts.DayType.ContainsDate(t) && ts.Bracket.Contains(TimeOfDayOf(t))
}

// Equal reports value identity of the (season, daytype, bracket) triple.
func (ts Timeslice) Equal(other Timeslice) bool {
	return ts.Season == other.Season &&
		ts.DayType.Equal(other.DayType) &&
		ts.Bracket.Equal(other.Bracket)
}

type sliceKey struct {
	season  string
	daytype dayTypeKey
	bracket bracketKey
}

func (ts Timeslice) key() sliceKey {
	return sliceKey{ts.Season, ts.DayType.key(), ts.Bracket.key()}
}
