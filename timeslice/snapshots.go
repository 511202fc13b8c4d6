package timeslice

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/enertrans/timegrid/common/calendar"
)

// TimesliceDefinition is the input to the inverse translation: a timeslice
// set plus the per-year fraction of the year each timeslice occupies, keyed
// by timeslice name.
type TimesliceDefinition struct {
	Timeslices []Timeslice
	YearSplit  map[int]map[string]float64
}

// SnapshotSeries is a chronological grid over one calendar year. Times,
// Names and Weights run in parallel: Names[i] is the timeslice containing
// Times[i], and Weights[i] is the hours of the year that instant represents.
// The weights of all instants sharing a timeslice sum to that timeslice's
// share of the year, so the full series always sums to the hours in the
// year regardless of how uneven the fractions are.
type SnapshotSeries struct {
	Year    int
	Times   []time.Time
	Names   []string
	Weights []float64
}

// ToSnapshots expands a timeslice definition into a snapshot series for one
// year at a fixed step. The grid starts at midnight on January 1 and steps
// through the year; each instant is located in its containing timeslice and
// weighted so the instants of a timeslice together carry exactly its
// year-split share of the year's hours.
//
// The expansion is lossy in general: a timeslice's hours are spread evenly
// across its instants, so any sub-slice variation present in the data the
// definition was derived from is not recovered.
func ToSnapshots(def *TimesliceDefinition, year int, step time.Duration) (*SnapshotSeries, error) {
	if def == nil || len(def.Timeslices) == 0 {
		return nil, fmt.Errorf("%w: no timeslices", ErrBadDefinition)
	}
	fractions, ok := def.YearSplit[year]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	if step <= 0 || 24*time.Hour%step != 0 {
		return nil, fmt.Errorf("%w: %s does not evenly divide a day", ErrInvalidStep, step)
	}

	idx := indexSlices(def.Timeslices)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	count := int(end.Sub(start) / step)

	series := &SnapshotSeries{
		Year:    year,
		Times:   make([]time.Time, 0, count),
		Names:   make([]string, 0, count),
		Weights: make([]float64, count),
	}
	perSlice := make(map[string]int, len(def.Timeslices))
	for t := start; t.Before(end); t = t.Add(step) {
		ts, err := idx.locate(t)
		if err != nil {
			return nil, err
		}
		name := ts.Name()
		series.Times = append(series.Times, t)
		series.Names = append(series.Names, name)
		perSlice[name]++
	}

	hours := float64(calendar.HoursInYear(year))
	for i, name := range series.Names {
		fraction, ok := fractions[name]
		if !ok {
			return nil, fmt.Errorf("%w: no year-split fraction for %s in %d", ErrBadDefinition, name, year)
		}
		series.Weights[i] = fraction * hours / float64(perSlice[name])
	}

	total := floats.Sum(series.Weights)
	if math.Abs(total-hours) > DefaultTolerance*hours {
		return nil, fmt.Errorf("%w: weights sum to %.6f of %.0f hours in %d",
			ErrBadDefinition, total, hours, year)
	}
	return series, nil
}
