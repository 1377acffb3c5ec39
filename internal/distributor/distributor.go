// Package distributor implements the linear-rate packet-splitting model
// that spreads one flow's SYN packets across the interval slots it spans,
// grounded on the original get_host()'s interval-distribution loop.
package distributor

import "github.com/carriercomm/ddos-detection/internal/host"

// Boundary carries the timing state the distributor needs from the graph:
// the current circular write head, the interval length, and the maximum
// number of slots before indices wrap.
type Boundary struct {
	IntervalIdx int64
	IntervalLast int64
	Interval    int64
	IntvlMax    int64
}

// Distribute adds packets (observed between timeFirst and timeLast) to h's
// circular buffer, splitting across interval boundaries per §4.2. All
// arithmetic is float64; no truncation happens here.
func Distribute(h *host.Record, b Boundary, timeFirst, timeLast int64, packets float64) {
	if timeLast < b.IntervalLast {
		// Entirely within the current interval.
		h.Intervals[b.IntervalIdx] += packets
		return
	}

	diff := timeLast - timeFirst
	if diff <= 0 {
		// Zero-duration flow: treat as entirely in the current interval.
		h.Intervals[b.IntervalIdx] += packets
		return
	}
	pps := packets / float64(diff)

	s0 := b.IntervalLast - timeFirst
	if s0 < 0 {
		s0 = 0
	}
	h.Intervals[b.IntervalIdx] += float64(s0) * pps

	rem := diff - s0
	if rem <= 0 {
		return
	}

	if rem <= b.Interval {
		idx := (b.IntervalIdx + 1) % b.IntvlMax
		h.Intervals[idx] += float64(rem) * pps
		return
	}

	cnt := rem / b.Interval
	var i int64
	for i = 0; i < cnt; i++ {
		idx := (b.IntervalIdx + i + 1) % b.IntvlMax
		h.Intervals[idx] += float64(b.Interval) * pps
	}
	residue := rem % b.Interval
	idx := (b.IntervalIdx + cnt + 1) % b.IntvlMax
	h.Intervals[idx] += float64(residue) * pps
}
