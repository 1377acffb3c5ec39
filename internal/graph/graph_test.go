package graph

import (
	"net"
	"testing"

	"github.com/carriercomm/ddos-detection/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	p := &config.Params{
		Mode:       config.ModeAll,
		Clusters:   2,
		Interval:   60,
		TimeWindow: 3600,
		File:       "testdata.csv",
	}
	require.NoError(t, config.Validate(p))
	g := New(p)
	g.Seed(1_700_000_000)
	return g
}

func TestSeedSetsTimestamps(t *testing.T) {
	g := newTestGraph(t)
	assert.True(t, g.Seeded())
	assert.Equal(t, g.IntervalFirst+g.Params.Interval, g.IntervalLast)
	assert.Equal(t, g.WindowFirst+g.Params.TimeWindow, g.WindowLast)
}

func TestCrossedIntervalAndWindow(t *testing.T) {
	g := newTestGraph(t)
	assert.False(t, g.CrossedInterval(g.IntervalLast-1))
	assert.True(t, g.CrossedInterval(g.IntervalLast))
	assert.False(t, g.CrossedWindow(g.WindowLast-1))
	assert.True(t, g.CrossedWindow(g.WindowLast))
}

func TestDelayedRecordDetection(t *testing.T) {
	g := newTestGraph(t)
	assert.True(t, g.Delayed(g.IntervalFirst-10))
	assert.False(t, g.Delayed(g.IntervalFirst))
}

func TestAdvanceIntervalRotatesIndex(t *testing.T) {
	g := newTestGraph(t)
	start := g.IntervalIdx
	g.AdvanceInterval()
	assert.Equal(t, (start+1)%int64(g.Params.IntvlMax), g.IntervalIdx)
	assert.EqualValues(t, 1, g.IntervalCnt)
}

// P1: after ResetInterval every host's accesses is zero.
func TestResetIntervalClearsHostAccesses(t *testing.T) {
	g := newTestGraph(t)
	ip := net.IPv4(10, 0, 0, 1)
	h, _ := g.Index.GetOrCreate(ip, g.Params.IntvlMax, 0)
	h.Touch()
	h.Touch()
	require.EqualValues(t, 3, h.Accesses)

	g.ResetInterval()
	assert.Zero(t, h.Accesses)
	assert.False(t, h.Active())
}

// Resetting twice in a row is not idempotent on the graph's timestamps:
// each reset advances the interval by one more Params.Interval. (Host-level
// reset idempotence, P8, is covered in internal/host.)
func TestDoubleResetIntervalAdvancesTimestampsTwice(t *testing.T) {
	g := newTestGraph(t)
	g.ResetInterval()
	firstFirst, firstLast := g.IntervalFirst, g.IntervalLast

	g.ResetInterval()
	assert.Equal(t, firstLast, g.IntervalFirst)
	assert.Equal(t, firstLast+g.Params.Interval, g.IntervalLast)
	assert.NotEqual(t, firstFirst, g.IntervalFirst)
}

func TestResetIntervalVacatesOnlyOneCircularSlot(t *testing.T) {
	g := newTestGraph(t)
	ip := net.IPv4(10, 0, 0, 1)
	h, _ := g.Index.GetOrCreate(ip, g.Params.IntvlMax, 0)
	for i := range h.Intervals {
		h.Intervals[i] = 42
	}

	g.ResetInterval()

	vacated := (g.IntervalIdx + int64(config.ArrayExtra)) % int64(g.Params.IntvlMax)
	for i, v := range h.Intervals {
		if int64(i) == vacated {
			assert.Zerof(t, v, "slot %d should have been vacated", i)
		} else {
			assert.Equal(t, 42.0, v, "slot %d should be untouched by ResetInterval", i)
		}
	}
}

func TestAdvanceWindowNeverFlushesByDefault(t *testing.T) {
	g := newTestGraph(t)
	require.Zero(t, g.Params.FlushIter)
	for i := 0; i < 5; i++ {
		flush := g.AdvanceWindow()
		assert.False(t, flush, "FlushIter=0 must mean 'never flush'")
	}
}

func TestAdvanceWindowFlushesAtConfiguredIteration(t *testing.T) {
	g := newTestGraph(t)
	g.Params.FlushIter = 2

	assert.False(t, g.AdvanceWindow()) // window_cnt=1, flush_cnt 0->1
	assert.True(t, g.AdvanceWindow())  // window_cnt=2, flush_cnt reaches 2 -> flush
}

func TestMaybeFlushPortDetailFlushesAtIterMax(t *testing.T) {
	g := newTestGraph(t)
	g.Params.IterMax = 2
	ip := net.IPv4(10, 0, 0, 1)
	h, _ := g.Index.GetOrCreate(ip, g.Params.IntvlMax, 1)
	h.RecordPort(80)

	assert.False(t, g.MaybeFlushPortDetail())
	require.NotEmpty(t, h.Ports)
	assert.True(t, g.MaybeFlushPortDetail())
	assert.Empty(t, h.Ports)
}

func TestActiveHostsCountsOnlyStatNonzero(t *testing.T) {
	g := newTestGraph(t)
	g.Index.GetOrCreate(net.IPv4(10, 0, 0, 1), g.Params.IntvlMax, 0)
	idle, _ := g.Index.GetOrCreate(net.IPv4(10, 0, 0, 2), g.Params.IntvlMax, 0)
	idle.ResetInterval()

	assert.Equal(t, 1, g.ActiveHosts())
}
