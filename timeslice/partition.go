package timeslice

import (
	"fmt"
	"sort"
	"time"

	"github.com/enertrans/timegrid/common/calendar"
)

// boundarySnap is the window within which an input time of day is assumed to
// mean the adjacent day boundary, absorbing rounding in upstream data.
const boundarySnap = TimeOfDay(time.Second)

func newDayTypeRange(startOrdinal, endOrdinal int) (DayType, error) {
	ms, ds := calendar.MonthDay(startOrdinal)
	me, de := calendar.MonthDay(endOrdinal)
	return NewDayType(ms, ds, me, de, "")
}

// DayTypesFromDates partitions the year into non-overlapping day types from
// a collection of calendar dates. Each distinct date (normalized to the
// reference year) becomes a one-day day type; every gap between consecutive
// dates, before the first date and after the last date is filled with a
// single range day type. The result covers the full reference year with no
// gaps and no overlaps, sorted by start day-of-year.
func DayTypesFromDates(dates []time.Time) ([]DayType, error) {
	if len(dates) == 0 {
		return nil, ErrNoDates
	}

	seen := make(map[int]struct{}, len(dates))
	ordinals := make([]int, 0, len(dates))
	for _, d := range dates {
		ord := calendar.YearDay(d.Month(), d.Day())
		if _, ok := seen[ord]; ok {
			continue
		}
		seen[ord] = struct{}{}
		ordinals = append(ordinals, ord)
	}
	sort.Ints(ordinals)

	daytypes := make([]DayType, 0, 2*len(ordinals)+1)
	emit := func(start, end int) error {
		dt, err := newDayTypeRange(start, end)
		if err != nil {
			return err
		}
		daytypes = append(daytypes, dt)
		return nil
	}

	if first := ordinals[0]; first > 1 {
		if err := emit(1, first-1); err != nil {
			return nil, err
		}
	}
	for i, ord := range ordinals {
		if err := emit(ord, ord); err != nil {
			return nil, err
		}
		if i+1 < len(ordinals) && ordinals[i+1] > ord+1 {
			if err := emit(ord+1, ordinals[i+1]-1); err != nil {
				return nil, err
			}
		}
	}
	if last := ordinals[len(ordinals)-1]; last < calendar.DaysPerLeapYear {
		if err := emit(last+1, calendar.DaysPerLeapYear); err != nil {
			return nil, err
		}
	}
	return daytypes, nil
}

// BracketsFromTimes partitions the day into non-overlapping daily time
// brackets from a collection of times of day. Each input time starts a
// bracket reaching to the next time; the final bracket reaches to EndOfDay
// inclusive, and a leading bracket from midnight is prepended when the first
// time is not midnight. Times within one second of midnight or of the day
// boundary are snapped to it. The result covers the full day, sorted by
// start time.
func BracketsFromTimes(times []TimeOfDay) ([]DailyTimeBracket, error) {
	if len(times) == 0 {
		return nil, ErrNoTimes
	}

	seen := make(map[TimeOfDay]struct{}, len(times))
	sorted := make([]TimeOfDay, 0, len(times))
	for _, t := range times {
		// readings finer than the sentinel's precision fall between it and the
		// day boundary; clamp them so the mapper and partitioner agree
		if t > EndOfDay && t < TimeOfDay(24*time.Hour) {
			t = EndOfDay
		}
		if t < Midnight || t > EndOfDay {
			return nil, fmt.Errorf("%w: time of day %s outside day", ErrInvalidBracket, t)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if sorted[0] != Midnight {
		if sorted[0] <= boundarySnap {
			sorted[0] = Midnight
		} else {
			sorted = append([]TimeOfDay{Midnight}, sorted...)
		}
	}

	brackets := make([]DailyTimeBracket, 0, len(sorted))
	for i, start := range sorted {
		end := EndOfDay
		last := true
		if i+1 < len(sorted) {
			end = sorted[i+1]
			if EndOfDay-end <= boundarySnap {
				end = EndOfDay
			} else {
				last = false
			}
		}
		b, err := NewDailyTimeBracket(start, end, "")
		if err != nil {
			return nil, err
		}
		brackets = append(brackets, b)
		if last {
			break
		}
	}
	return brackets, nil
}

// ComposeTimeslices forms the cross-product of the day-type and bracket
// sets under a single season label, iterated day types ascending then
// brackets ascending so the output order is deterministic.
func ComposeTimeslices(season string, daytypes []DayType, brackets []DailyTimeBracket) []Timeslice {
	sortedDT := make([]DayType, len(daytypes))
	copy(sortedDT, daytypes)
	sort.Slice(sortedDT, func(i, j int) bool { return sortedDT[i].Less(sortedDT[j]) })

	sortedB := make([]DailyTimeBracket, len(brackets))
	copy(sortedB, brackets)
	sort.Slice(sortedB, func(i, j int) bool { return sortedB[i].Less(sortedB[j]) })

	slices := make([]Timeslice, 0, len(sortedDT)*len(sortedB))
	for _, dt := range sortedDT {
		for _, b := range sortedB {
			slices = append(slices, NewTimeslice(season, dt, b))
		}
	}
	return slices
}
