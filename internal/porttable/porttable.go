// Package porttable implements the per-graph, per-interval port-access
// table used by the vertical and horizontal port-scan tests.
package porttable

import "sort"

// Size is the fixed number of port slots, 0..=65535.
const Size = 65536

// Entry is one port's access count for the current interval. PortNum stays
// equal to the entry's index; only Accesses is mutated during an interval.
type Entry struct {
	PortNum  uint16
	Accesses uint32
}

// Table is the fixed 65536-slot array rebuilt every interval.
type Table struct {
	entries [Size]Entry
}

// New returns a zeroed table with PortNum pre-seeded to each slot's index.
func New() *Table {
	t := &Table{}
	for i := range t.entries {
		t.entries[i].PortNum = uint16(i)
	}
	return t
}

// Hit records one access to port.
func (t *Table) Hit(port uint16) {
	t.entries[port].Accesses++
}

// Reset zeroes every access counter; PortNum identity is preserved.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i].Accesses = 0
	}
}

// Distinct counts ports with at least one access, for the vertical
// port-scan test.
func (t *Table) Distinct() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].Accesses > 0 {
			n++
		}
	}
	return n
}

// TopNonWellKnown sorts a copy of the table by descending accesses and
// returns the first entry whose port is absent from wellKnown, for the
// horizontal port-scan test. ok is false if every accessed port is
// well-known.
func (t *Table) TopNonWellKnown(wellKnown map[uint16]bool) (entry Entry, ok bool) {
	sorted := make([]Entry, Size)
	copy(sorted, t.entries[:])
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Accesses > sorted[j].Accesses
	})

	for _, e := range sorted {
		if e.Accesses == 0 {
			break
		}
		if !wellKnown[e.PortNum] {
			return e, true
		}
	}
	return Entry{}, false
}

// Snapshot returns the raw entries for reporting at high verbosity levels.
func (t *Table) Snapshot() [Size]Entry {
	return t.entries
}
