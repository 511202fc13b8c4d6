package timeslice

import (
	"sort"
	"time"
)

// ToTimeslices converts a chronological snapshot sequence into a
// hierarchical timeslice structure covering every year the snapshots touch.
// The snapshot dates and times of day are partitioned independently, the
// partitions are composed into a timeslice set, each snapshot is mapped onto
// its containing timeslice, and the result is accepted only if the timeslice
// durations exactly tile each touched year. No partial result is returned on
// failure.
func ToTimeslices(snapshots []time.Time) (*TimesliceResult, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	sorted := make([]time.Time, len(snapshots))
	for i, snap := range snapshots {
		sorted[i] = snap.Round(0) // strip any monotonic reading so map keys compare by wall clock
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	years := distinctYears(sorted)

	daytypes, err := DayTypesFromDates(sorted)
	if err != nil {
		return nil, err
	}
	brackets, err := BracketsFromTimes(timesOfDay(sorted))
	if err != nil {
		return nil, err
	}

	slices := ComposeTimeslices(DefaultSeason, daytypes, brackets)

	mapping, err := MapSnapshots(sorted, slices)
	if err != nil {
		return nil, err
	}

	result := &TimesliceResult{
		Years:      years,
		Seasons:    []string{DefaultSeason},
		DayTypes:   daytypes,
		Brackets:   brackets,
		Timeslices: slices,
		Mapping:    mapping,
	}
	if err := result.ValidateCoverage(DefaultTolerance); err != nil {
		return nil, err
	}
	return result, nil
}

func distinctYears(snapshots []time.Time) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, snap := range snapshots {
		if _, ok := seen[snap.Year()]; !ok {
			seen[snap.Year()] = struct{}{}
			years = append(years, snap.Year())
		}
	}
	sort.Ints(years)
	return years
}

func timesOfDay(snapshots []time.Time) []TimeOfDay {
	times := make([]TimeOfDay, len(snapshots))
	for i, snap := range snapshots {
		times[i] = TimeOfDayOf(snap)
	}
	return times
}
