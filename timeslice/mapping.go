package timeslice

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Assignment binds one snapshot to the timeslice containing it within a
// concrete calendar year.
type Assignment struct {
	Year  int
	Slice Timeslice
}

// SnapshotMap is the table from each input snapshot to its assignments.
// Every snapshot maps to exactly one assignment; the slice form keeps the
// table shape open for seasonal subdivision layered on top.
type SnapshotMap map[time.Time][]Assignment

// parallelChunkMin is the snapshot count above which mapping fans out across
// worker goroutines. Snapshots are independent, so this changes throughput
// only; results are recombined in input order.
const parallelChunkMin = 4096

// sliceIndex resolves a snapshot to a member of an existing timeslice set:
// containment picks the day type and bracket, then the composed slice is
// fetched by value identity so assignments always reference the set's own
// elements rather than freshly synthesized ones.
type sliceIndex struct {
	seasons  []string
	daytypes []DayType
	brackets []DailyTimeBracket
	byKey    map[sliceKey]Timeslice
}

func indexSlices(slices []Timeslice) *sliceIndex {
	idx := &sliceIndex{byKey: make(map[sliceKey]Timeslice, len(slices))}
	seenSeason := make(map[string]struct{})
	seenDT := make(map[dayTypeKey]struct{})
	seenB := make(map[bracketKey]struct{})
	for _, ts := range slices {
		if _, ok := seenSeason[ts.Season]; !ok {
			seenSeason[ts.Season] = struct{}{}
			idx.seasons = append(idx.seasons, ts.Season)
		}
		if _, ok := seenDT[ts.DayType.key()]; !ok {
			seenDT[ts.DayType.key()] = struct{}{}
			idx.daytypes = append(idx.daytypes, ts.DayType)
		}
		if _, ok := seenB[ts.Bracket.key()]; !ok {
			seenB[ts.Bracket.key()] = struct{}{}
			idx.brackets = append(idx.brackets, ts.Bracket)
		}
		idx.byKey[ts.key()] = ts
	}
	return idx
}

func (idx *sliceIndex) locate(snap time.Time) (Timeslice, error) {
	var dt *DayType
	for i := range idx.daytypes {
		if idx.daytypes[i].ContainsDate(snap) {
			dt = &idx.daytypes[i]
			break
		}
	}
	var b *DailyTimeBracket
	tod := TimeOfDayOf(snap)
	for i := range idx.brackets {
		if idx.brackets[i].Contains(tod) {
			b = &idx.brackets[i]
			break
		}
	}
	if dt != nil && b != nil {
		for _, season := range idx.seasons {
			if ts, ok := idx.byKey[sliceKey{season, dt.key(), b.key()}]; ok {
				return ts, nil
			}
		}
	}
	return Timeslice{}, fmt.Errorf("%w: %s", ErrUnmappedSnapshot, snap.Format(time.RFC3339Nano))
}

// MapSnapshots assigns every snapshot to the timeslice containing it. The
// assignment is a lookup against the supplied timeslice set, never a freshly
// synthesized slice, so assignments compare equal against the set's own
// elements. A snapshot contained by no timeslice yields ErrUnmappedSnapshot:
// the partitioners guarantee total coverage, so with a composed set this is
// an internal consistency failure, not an input error.
func MapSnapshots(snapshots []time.Time, slices []Timeslice) (SnapshotMap, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	idx := indexSlices(slices)
	assignments := make([]Assignment, len(snapshots))
	var err error
	if len(snapshots) < parallelChunkMin {
		err = idx.assignRange(snapshots, assignments)
	} else {
		err = idx.assignParallel(snapshots, assignments)
	}
	if err != nil {
		return nil, err
	}

	mapping := make(SnapshotMap, len(snapshots))
	for i, snap := range snapshots {
		if _, ok := mapping[snap]; ok {
			continue
		}
		mapping[snap] = []Assignment{assignments[i]}
	}
	return mapping, nil
}

func (idx *sliceIndex) assignRange(snapshots []time.Time, out []Assignment) error {
	for i, snap := range snapshots {
		ts, err := idx.locate(snap)
		if err != nil {
			return err
		}
		out[i] = Assignment{Year: snap.Year(), Slice: ts}
	}
	return nil
}

func (idx *sliceIndex) assignParallel(snapshots []time.Time, out []Assignment) error {
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(snapshots) + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(snapshots) {
			break
		}
		hi := lo + chunk
		if hi > len(snapshots) {
			hi = len(snapshots)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = idx.assignRange(snapshots[lo:hi], out[lo:hi])
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
