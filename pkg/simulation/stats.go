package simulation

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// StopRecord accumulates the completed emergency stops of one vehicle.
type StopRecord struct {
	Vehicle       int
	Count         int
	TotalDuration time.Duration
}

// StatsLedger keeps one StopRecord per vehicle.
type StatsLedger struct {
	records []StopRecord
}

func NewStatsLedger(vehicles int) *StatsLedger {
	l := &StatsLedger{}
	l.Reset(vehicles)
	return l
}

// Reset drops all records and sizes the ledger for the given fleet.
func (l *StatsLedger) Reset(vehicles int) {
	l.records = make([]StopRecord, vehicles)
	for i := range l.records {
		l.records[i].Vehicle = i
	}
}

// Add books one completed stop of the given duration for vehicle.
func (l *StatsLedger) Add(vehicle int, d time.Duration) {
	l.records[vehicle].Count++
	l.records[vehicle].TotalDuration += d
}

// Get returns the record of a single vehicle.
func (l *StatsLedger) Get(vehicle int) StopRecord {
	return l.records[vehicle]
}

// Records returns every vehicle that stopped at least once, most stops
// first. Vehicles with equal counts keep their index order.
func (l *StatsLedger) Records() []StopRecord {
	out := lo.Filter(l.records, func(r StopRecord, _ int) bool {
		return r.Count > 0
	})
	slices.SortStableFunc(out, func(a, b StopRecord) int {
		return b.Count - a.Count
	})
	return out
}

func (l *StatsLedger) Empty() bool {
	return !lo.SomeBy(l.records, func(r StopRecord) bool { return r.Count > 0 })
}

// Completed is the number of stops booked across all vehicles.
func (l *StatsLedger) Completed() int {
	return lo.SumBy(l.records, func(r StopRecord) int { return r.Count })
}
