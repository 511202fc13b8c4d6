package timeslice

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"github.com/enertrans/timegrid/common/calendar"
)

// DefaultTolerance is the relative tolerance applied to every duration and
// fraction sum check. It is scaled by the expected magnitude at each check
// site, so the same constant governs fraction sums near 1.0 and duration
// sums near hours-in-year.
const DefaultTolerance = 1e-8

// TimesliceResult is the output of a forward translation: the touched
// years, the partitions, the composed timeslice set and the snapshot
// mapping. It owns no external resources and is never mutated after
// construction.
type TimesliceResult struct {
	Years      []int
	Seasons    []string
	DayTypes   []DayType
	Brackets   []DailyTimeBracket
	Timeslices []Timeslice
	Mapping    SnapshotMap
}

// CoverageFailure records one year whose timeslice durations do not tile
// the calendar.
type CoverageFailure struct {
	Year     int
	Expected float64
	Actual   float64
}

// Discrepancy returns the signed coverage error in hours.
func (f CoverageFailure) Discrepancy() float64 {
	return f.Actual - f.Expected
}

// CoverageError reports every year for which the timeslice set fails to
// tile the calendar, with the numeric discrepancy per year.
type CoverageError struct {
	Failures []CoverageFailure
}

func (e *CoverageError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("year %d covers %.6f of %.0f hours (off by %+.6f)",
			f.Year, f.Actual, f.Expected, f.Discrepancy())
	}
	return ErrCoverage.Error() + ": " + strings.Join(parts, "; ")
}

func (e *CoverageError) Unwrap() error {
	return ErrCoverage
}

// ValidateCoverage checks that for every touched year the summed timeslice
// durations equal the hours in that calendar year within the given relative
// tolerance. This is the central correctness property of the translation;
// failure is always fatal, never advisory.
func (r *TimesliceResult) ValidateCoverage(tol float64) error {
	var failures []CoverageFailure
	durations := make([]float64, len(r.Timeslices))
	for _, year := range r.Years {
		for i, ts := range r.Timeslices {
			durations[i] = ts.DurationHours(year)
		}
		total := floats.Sum(durations)
		expected := float64(calendar.HoursInYear(year))
		if math.Abs(total-expected) > tol*expected {
			failures = append(failures, CoverageFailure{Year: year, Expected: expected, Actual: total})
		}
	}
	if len(failures) > 0 {
		return &CoverageError{Failures: failures}
	}
	return nil
}

// TimeslicesForYear returns the timeslices some snapshot of the given year
// was assigned to, in composed order. Years absent from the input yield nil.
func (r *TimesliceResult) TimeslicesForYear(year int) []Timeslice {
	used := make(map[sliceKey]struct{})
	for _, assignments := range r.Mapping {
		for _, a := range assignments {
			if a.Year == year {
				used[a.Slice.key()] = struct{}{}
			}
		}
	}
	var out []Timeslice
	for _, ts := range r.Timeslices {
		if _, ok := used[ts.key()]; ok {
			out = append(out, ts)
		}
	}
	return out
}

// SplitRow is one duration-fraction entry of the year-split or day-split
// table.
type SplitRow struct {
	Timeslice string
	Year      int
	Value     decimal.Decimal
}

// IncidenceRow marks one timeslice as belonging to one season, day type or
// bracket in a binary membership table.
type IncidenceRow struct {
	Timeslice string
	Member    string
}

// ExportTables is the family of named tables consumed when materializing a
// timeslice-based model configuration: the set listings, the year-split and
// day-split fraction tables and the three binary incidence tables.
type ExportTables struct {
	Years      []int
	Seasons    []string
	DayTypes   []string
	Brackets   []string
	Timeslices []string

	// YearSplit holds each timeslice's fraction of the year, per year.
	YearSplit []SplitRow
	// DaySplit holds the fraction of the year contributed by one day's worth
	// of each timeslice's bracket, per year.
	DaySplit []SplitRow

	SeasonMembership  []IncidenceRow
	DayTypeMembership []IncidenceRow
	BracketMembership []IncidenceRow
}

// Export materializes the tabular form of the result. Fraction values are
// exact decimals so repeated export carries no accumulated float drift.
func (r *TimesliceResult) Export() *ExportTables {
	t := &ExportTables{
		Years:      append([]int(nil), r.Years...),
		Seasons:    sortedNames(len(r.Seasons), func(i int) string { return r.Seasons[i] }),
		DayTypes:   sortedNames(len(r.DayTypes), func(i int) string { return r.DayTypes[i].Name }),
		Brackets:   sortedNames(len(r.Brackets), func(i int) string { return r.Brackets[i].Name }),
		Timeslices: sortedNames(len(r.Timeslices), func(i int) string { return r.Timeslices[i].Name() }),
	}

	for _, year := range r.Years {
		hours := decimal.NewFromInt(int64(calendar.HoursInYear(year)))
		for _, ts := range r.Timeslices {
			name := ts.Name()
			t.YearSplit = append(t.YearSplit, SplitRow{
				Timeslice: name,
				Year:      year,
				Value:     decimal.NewFromFloat(ts.DurationHours(year)).DivRound(hours, 12),
			})
			t.DaySplit = append(t.DaySplit, SplitRow{
				Timeslice: name,
				Year:      year,
				Value:     decimal.NewFromFloat(ts.Bracket.DurationHours()).DivRound(hours, 12),
			})
		}
	}

	for _, ts := range r.Timeslices {
		name := ts.Name()
		t.SeasonMembership = append(t.SeasonMembership, IncidenceRow{Timeslice: name, Member: ts.Season})
		t.DayTypeMembership = append(t.DayTypeMembership, IncidenceRow{Timeslice: name, Member: ts.DayType.Name})
		t.BracketMembership = append(t.BracketMembership, IncidenceRow{Timeslice: name, Member: ts.Bracket.Name})
	}
	return t
}

// Definition bridges the forward result into the structure the inverse
// translator consumes.
func (r *TimesliceResult) Definition() *TimesliceDefinition {
	def := &TimesliceDefinition{
		Timeslices: append([]Timeslice(nil), r.Timeslices...),
		YearSplit:  make(map[int]map[string]float64, len(r.Years)),
	}
	for _, year := range r.Years {
		fractions := make(map[string]float64, len(r.Timeslices))
		for _, ts := range r.Timeslices {
			fractions[ts.Name()] = ts.YearFraction(year)
		}
		def.YearSplit[year] = fractions
	}
	return def
}

func sortedNames(n int, name func(int) string) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := seen[name(i)]; ok {
			continue
		}
		seen[name(i)] = struct{}{}
		out = append(out, name(i))
	}
	sort.Strings(out)
	return out
}
