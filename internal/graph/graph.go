// Package graph owns the detector's live state for one run: the host
// index, the port table, and the interval/window timestamps and counters
// that drive the reset policy, grounded on the original
// create_graph/reset_graph (graph.c). Cluster centroids are not kept here;
// each detection pass allocates its own.
package graph

import (
	"github.com/carriercomm/ddos-detection/internal/cluster"
	"github.com/carriercomm/ddos-detection/internal/config"
	"github.com/carriercomm/ddos-detection/internal/hostindex"
	"github.com/carriercomm/ddos-detection/internal/porttable"
)

// Attack bitset bits, mirroring the detection mode bits (spec.md GLOSSARY).
const (
	AttackSynFlooding = config.ModeSynFlooding
	AttackPortscanVer = config.ModePortscanVer
	AttackPortscanHor = config.ModePortscanHor
)

// Graph is the detector's entire live state, owned exclusively by the
// orchestrator; nothing here is touched concurrently with flow updates.
type Graph struct {
	Params *config.Params

	Index *hostindex.Index
	Ports *porttable.Table

	IntervalIdx int64
	// IntervalCnt is the total number of intervals reached in this graph's
	// lifetime; used for the CONVERGENCE gate on SYN clustering. It is never
	// reset short of a full graph flush.
	IntervalCnt int64
	// PortFlushCnt counts intervals since the last full port-detail flush,
	// reset at Params.IterMax (spec.md §4.7, PORT_WINDOW).
	PortFlushCnt int

	WindowCnt uint32
	FlushCnt  int

	IntervalFirst int64
	IntervalLast  int64
	WindowFirst   int64
	WindowLast    int64

	// Attack is the per-interval anomaly bitset, cleared at the start of
	// every detection pass.
	Attack int

	// VerCount and HorCount carry the last detection pass's port-scan
	// metrics, for the reporter.
	VerCount int
	HorCount uint32

	seeded bool
}

// New allocates a fresh graph, not yet seeded with a timestamp; the caller
// seeds IntervalFirst/WindowFirst from the first flow's time_first.
func New(params *config.Params) *Graph {
	return &Graph{
		Params: params,
		Index:  hostindex.New(),
		Ports:  porttable.New(),
	}
}

// dimsV is the active-dimension size v: interval_idx during the first
// window, intvl_max - ARRAY_EXTRA afterwards.
func dimsV(params *config.Params, windowCnt uint32, intervalIdx int64) int {
	if windowCnt == 0 {
		return int(intervalIdx)
	}
	return params.IntvlMax - config.ArrayExtra
}

// Dims computes the cluster engine's active-dimension parameters for the
// graph's current window/interval state.
func (g *Graph) Dims() cluster.Dims {
	v := dimsV(g.Params, g.WindowCnt, g.IntervalIdx)
	offset := 0
	if g.WindowCnt != 0 {
		offset = int(g.IntervalIdx) + config.ArrayExtra
	}
	return cluster.Dims{Offset: offset, V: v, IntvlMax: g.Params.IntvlMax}
}

// Seed sets the graph's initial interval/window timestamps from the first
// flow processed.
func (g *Graph) Seed(timeFirst int64) {
	g.IntervalFirst = timeFirst
	g.IntervalLast = timeFirst + g.Params.Interval
	g.WindowFirst = timeFirst
	g.WindowLast = timeFirst + g.Params.TimeWindow
	g.seeded = true
}

// Seeded reports whether Seed has already run.
func (g *Graph) Seeded() bool {
	return g.seeded
}

// Delayed reports whether timeFirst arrived before the current interval
// began, per the "delayed records are dropped" non-goal (spec.md §1, I6).
func (g *Graph) Delayed(timeFirst int64) bool {
	return timeFirst < g.IntervalFirst
}

// CrossedInterval reports whether timeFirst has reached the current
// interval's end.
func (g *Graph) CrossedInterval(timeFirst int64) bool {
	return timeFirst >= g.IntervalLast
}

// CrossedWindow reports whether timeFirst has reached the current window's
// end; only meaningful once CrossedInterval is true.
func (g *Graph) CrossedWindow(timeFirst int64) bool {
	return timeFirst >= g.WindowLast
}

// AdvanceInterval rotates the circular write head and bumps the
// convergence counter; called once per interval boundary, before
// detection.
func (g *Graph) AdvanceInterval() {
	g.IntervalCnt++
	g.IntervalIdx = (g.IntervalIdx + 1) % int64(g.Params.IntvlMax)
}

// AdvanceWindow bumps the window counter and either signals a full flush
// (flush_cnt reached flush_iter) or extends window_last by one more
// time_window. FlushIter == 0 means "never flush" (spec.md §6 -e default).
func (g *Graph) AdvanceWindow() (flush bool) {
	g.WindowCnt++
	g.FlushCnt++
	if g.Params.FlushIter > 0 && g.FlushCnt == g.Params.FlushIter {
		g.FlushCnt = 0
		return true
	}
	g.WindowLast += g.Params.TimeWindow
	return false
}

// ResetInterval implements the interval reset policy of §4.7: zero the
// port table, clear per-host accesses, vacate the next circular slot, clear
// host stat, and advance the interval (and, past the first window, the
// window-first) timestamps.
func (g *Graph) ResetInterval() {
	g.Ports.Reset()

	synMode := g.Params.Mode&config.ModeSynFlooding == config.ModeSynFlooding
	hosts := g.Index.All()

	if synMode {
		vacate := (g.IntervalIdx + config.ArrayExtra) % int64(g.Params.IntvlMax)
		for _, h := range hosts {
			h.Intervals[vacate] = 0
		}
	}

	for _, h := range hosts {
		h.ResetInterval()
	}

	g.IntervalFirst = g.IntervalLast
	g.IntervalLast += g.Params.Interval
	if g.WindowCnt != 0 {
		g.WindowFirst += g.Params.Interval
	}
}

// MaybeFlushPortDetail increments the port-flush counter and, once it
// reaches Params.IterMax, discards every host's per-port detail map and
// resets the counter — the PORT_WINDOW policy from §4.7.
func (g *Graph) MaybeFlushPortDetail() (flushed bool) {
	if g.Params.Mode&(config.ModePortscanVer|config.ModePortscanHor) == 0 {
		return false
	}
	g.PortFlushCnt++
	if g.PortFlushCnt < g.Params.IterMax {
		return false
	}
	g.PortFlushCnt = 0
	for _, h := range g.Index.All() {
		h.FlushPorts()
	}
	return true
}

// ActiveHosts returns the number of hosts touched during the current
// window (stat != 0), for the report's active-host count.
func (g *Graph) ActiveHosts() int {
	n := 0
	for _, h := range g.Index.All() {
		if h.Active() {
			n++
		}
	}
	return n
}
