package timeslice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enertrans/timegrid/common/calendar"
)

func hourlyYear(year int) []time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	snapshots := make([]time.Time, 0, calendar.HoursInYear(year))
	for ts := start; ts.Before(end); ts = ts.Add(time.Hour) {
		snapshots = append(snapshots, ts)
	}
	return snapshots
}

func TestToTimeslicesEmpty(t *testing.T) {
	t.Parallel()
	_, err := ToTimeslices(nil)
	assert.ErrorIs(t, err, ErrNoSnapshots, "an empty snapshot sequence should be rejected")
}

func TestToTimeslicesSingleSnapshot(t *testing.T) {
	t.Parallel()
	snap := time.Date(2021, time.June, 1, 9, 30, 0, 0, time.UTC)
	result, err := ToTimeslices([]time.Time{snap})
	require.NoError(t, err, "ToTimeslices must not error on a single snapshot")

	assert.Equal(t, []int{2021}, result.Years, "the result should cover the snapshot's year")
	assert.Equal(t, []string{DefaultSeason}, result.Seasons, "a single season should be synthesized")
	assert.Len(t, result.DayTypes, 3, "one interior date should yield three day types")
	assert.Len(t, result.Brackets, 2, "one interior time should yield two brackets")
	assert.Len(t, result.Timeslices, 6, "the timeslice set should be the full cross product")

	require.Contains(t, result.Mapping, snap, "the snapshot must be mapped")
	require.Len(t, result.Mapping[snap], 1, "the snapshot should have exactly one assignment")
	assert.True(t, result.Mapping[snap][0].Slice.Contains(snap), "the assigned timeslice should contain the snapshot")
}

func TestToTimeslicesHourlyYear(t *testing.T) {
	t.Parallel()
	snapshots := hourlyYear(2021)
	result, err := ToTimeslices(snapshots)
	require.NoError(t, err, "ToTimeslices must not error on a full hourly year")

	assert.Equal(t, []int{2021}, result.Years, "the result should cover exactly 2021")
	assert.Len(t, result.Brackets, 24, "hourly times should partition the day into 24 brackets")
	require.Len(t, result.Mapping, len(snapshots), "every snapshot should be mapped")

	total := 0.0
	for _, ts := range result.Timeslices {
		total += ts.YearFraction(2021)
	}
	assert.InDelta(t, 1.0, total, DefaultTolerance, "year fractions should sum to one")
}

func TestToTimeslicesMultiYear(t *testing.T) {
	t.Parallel()
	snapshots := append(hourlyYear(2020), hourlyYear(2021)...)
	result, err := ToTimeslices(snapshots)
	require.NoError(t, err, "ToTimeslices must not error across a leap and a non-leap year")

	assert.Equal(t, []int{2020, 2021}, result.Years, "the touched years should be sorted and distinct")
	require.NoError(t, result.ValidateCoverage(DefaultTolerance), "the timeslice set must tile both years")

	for _, year := range result.Years {
		total := 0.0
		for _, ts := range result.Timeslices {
			total += ts.DurationHours(year)
		}
		assert.InDelta(t, float64(calendar.HoursInYear(year)), total, 1e-6, "durations should sum to the hours in %d", year)
	}
}

func TestToTimeslicesDayBoundaryReading(t *testing.T) {
	t.Parallel()
	// a snapshot in the last microsecond of a day reads finer than the
	// end-of-day sentinel; it must still translate and map
	snap := time.Date(2021, time.July, 1, 23, 59, 59, 999999500, time.UTC)
	result, err := ToTimeslices([]time.Time{snap})
	require.NoError(t, err, "ToTimeslices must not error on a sub-microsecond boundary snapshot")

	require.Len(t, result.Brackets, 1, "a boundary snapshot alone should partition into one bracket")
	assert.True(t, result.Brackets[0].IsFullDay(), "the single bracket should cover the full day")
	require.Contains(t, result.Mapping, snap, "the boundary snapshot must be mapped")
	assert.True(t, result.Mapping[snap][0].Slice.Contains(snap), "the assigned timeslice should contain the boundary snapshot")
}

func TestToTimeslicesDurationConsistency(t *testing.T) {
	t.Parallel()
	// on a uniform hourly grid, the snapshots mapped to a timeslice represent
	// one hour each, so their count must reproduce the timeslice's annual
	// duration
	result, err := ToTimeslices(hourlyYear(2021))
	require.NoError(t, err, "ToTimeslices must not error")

	counts := make(map[string]int)
	for _, assignments := range result.Mapping {
		counts[assignments[0].Slice.Name()]++
	}
	for _, ts := range result.Timeslices {
		represented := float64(counts[ts.Name()]) * time.Hour.Hours()
		assert.Equal(t, ts.DurationHours(2021), represented, "mapped snapshots should recreate the duration of %s", ts.Name())
	}
}

func TestToTimeslicesInputOrder(t *testing.T) {
	t.Parallel()
	ordered := []time.Time{
		time.Date(2021, time.February, 1, 4, 0, 0, 0, time.UTC),
		time.Date(2021, time.July, 15, 16, 0, 0, 0, time.UTC),
		time.Date(2021, time.October, 31, 22, 0, 0, 0, time.UTC),
	}
	shuffled := []time.Time{ordered[2], ordered[0], ordered[1]}

	a, err := ToTimeslices(ordered)
	require.NoError(t, err, "ToTimeslices must not error")
	b, err := ToTimeslices(shuffled)
	require.NoError(t, err, "ToTimeslices must not error on shuffled input")

	require.Equal(t, len(a.Timeslices), len(b.Timeslices), "input order must not change the timeslice set")
	for i := range a.Timeslices {
		assert.Equal(t, a.Timeslices[i].Name(), b.Timeslices[i].Name(), "timeslice %d should match across input orderings", i)
	}
}
