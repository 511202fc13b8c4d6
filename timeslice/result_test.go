package timeslice

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enertrans/timegrid/common/calendar"
)

func fixtureResult(t *testing.T) *TimesliceResult {
	t.Helper()
	snapshots := []time.Time{
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.January, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2020, time.April, 1, 20, 0, 0, 0, time.UTC),
		time.Date(2021, time.April, 1, 8, 0, 0, 0, time.UTC),
	}
	result, err := ToTimeslices(snapshots)
	require.NoError(t, err, "ToTimeslices must not error building the fixture")
	return result
}

func TestValidateCoverageFailure(t *testing.T) {
	t.Parallel()
	// drop a timeslice so the set no longer tiles the year
	result := fixtureResult(t)
	broken := &TimesliceResult{
		Years:      result.Years,
		Seasons:    result.Seasons,
		DayTypes:   result.DayTypes,
		Brackets:   result.Brackets,
		Timeslices: result.Timeslices[1:],
		Mapping:    result.Mapping,
	}

	err := broken.ValidateCoverage(DefaultTolerance)
	require.Error(t, err, "a gappy timeslice set must fail coverage validation")

	assert.ErrorIs(t, err, ErrCoverage, "the failure must unwrap to the coverage sentinel")
	var covErr *CoverageError
	require.ErrorAs(t, err, &covErr, "the failure must be reported as a CoverageError")
	require.Len(t, covErr.Failures, len(result.Years), "every touched year should fail when a slice is missing")
	for _, f := range covErr.Failures {
		assert.Equal(t, float64(calendar.HoursInYear(f.Year)), f.Expected, "the expected total should be the hours in %d", f.Year)
		assert.Less(t, f.Actual, f.Expected, "the gappy set should undercover %d", f.Year)
		assert.Negative(t, f.Discrepancy(), "the discrepancy for %d should be negative", f.Year)
	}
	assert.Contains(t, err.Error(), "does not tile", "the message should describe the failure")
}

func TestTimeslicesForYear(t *testing.T) {
	t.Parallel()
	result := fixtureResult(t)

	for _, year := range result.Years {
		used := result.TimeslicesForYear(year)
		assert.NotEmpty(t, used, "year %d should have mapped timeslices", year)
		assert.LessOrEqual(t, len(used), len(result.Timeslices), "per-year slices should be a subset of the set")
	}
	assert.Nil(t, result.TimeslicesForYear(1999), "a year absent from the input should yield nil")
}

func TestExport(t *testing.T) {
	t.Parallel()
	result := fixtureResult(t)
	tables := result.Export()

	assert.Equal(t, result.Years, tables.Years, "exported years should match the result")
	assert.Equal(t, []string{DefaultSeason}, tables.Seasons, "the season listing should carry the synthesized season")
	assert.Len(t, tables.DayTypes, len(result.DayTypes), "every day type should be listed")
	assert.Len(t, tables.Brackets, len(result.Brackets), "every bracket should be listed")
	assert.Len(t, tables.Timeslices, len(result.Timeslices), "every timeslice should be listed")
	assert.IsIncreasing(t, tables.Timeslices, "timeslice names should be sorted")

	require.Len(t, tables.YearSplit, len(result.Years)*len(result.Timeslices), "the year split should have one row per timeslice per year")
	require.Len(t, tables.DaySplit, len(result.Years)*len(result.Timeslices), "the day split should have one row per timeslice per year")

	for _, year := range result.Years {
		sum := decimal.Zero
		for _, row := range tables.YearSplit {
			if row.Year == year {
				sum = sum.Add(row.Value)
			}
		}
		assert.InDelta(t, 1.0, sum.InexactFloat64(), 1e-9, "year split fractions should sum to one for %d", year)
	}

	require.Len(t, tables.SeasonMembership, len(result.Timeslices), "every timeslice should have a season membership row")
	require.Len(t, tables.DayTypeMembership, len(result.Timeslices), "every timeslice should have a day type membership row")
	require.Len(t, tables.BracketMembership, len(result.Timeslices), "every timeslice should have a bracket membership row")
	for _, row := range tables.SeasonMembership {
		assert.Equal(t, DefaultSeason, row.Member, "each timeslice should belong to the synthesized season")
	}
}

func TestDefinition(t *testing.T) {
	t.Parallel()
	result := fixtureResult(t)
	def := result.Definition()

	require.Len(t, def.Timeslices, len(result.Timeslices), "the definition should carry the full timeslice set")
	for _, year := range result.Years {
		fractions, ok := def.YearSplit[year]
		require.True(t, ok, "the definition must carry fractions for %d", year)
		total := 0.0
		for _, f := range fractions {
			total += f
		}
		assert.InDelta(t, 1.0, total, DefaultTolerance, "fractions should sum to one for %d", year)
	}
}

func TestCoverageErrorUnwrap(t *testing.T) {
	t.Parallel()
	err := error(&CoverageError{Failures: []CoverageFailure{{Year: 2021, Expected: 8760, Actual: 8748}}})
	var covErr *CoverageError
	assert.True(t, errors.As(err, &covErr), "CoverageError should satisfy errors.As")
	assert.Contains(t, err.Error(), "2021", "the message should name the failing year")
	assert.Contains(t, err.Error(), "-12", "the message should carry the discrepancy")
}
