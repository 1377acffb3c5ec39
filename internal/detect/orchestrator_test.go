package detect

import (
	"fmt"
	"net"
	"testing"

	"github.com/carriercomm/ddos-detection/internal/config"
	"github.com/carriercomm/ddos-detection/internal/flow"
	"github.com/carriercomm/ddos-detection/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyReporter records every call's attack bitset and metrics so tests can
// assert on the final detection state without a real report stream.
type spyReporter struct {
	reports int
	lastAttack int
	lastVerCount int
	lastHorCount uint32
}

func (s *spyReporter) Report(g *graph.Graph, ts int64, level int) error {
	s.reports++
	s.lastAttack = g.Attack
	s.lastVerCount = g.VerCount
	s.lastHorCount = g.HorCount
	return nil
}

func newParams(t *testing.T, mode int) *config.Params {
	t.Helper()
	p := &config.Params{
		Mode:         mode,
		Clusters:     2,
		Interval:     60,
		TimeWindow:   3600,
		VerThreshold: 4096,
		HorThreshold: 1000,
		Level:        1,
		File:         "testdata.csv",
	}
	require.NoError(t, config.Validate(p))
	return p
}

func flowRec(dst string, port uint16, t0, t1 int64, packets uint64, syn uint8) flow.Record {
	return flow.Record{
		DstIP:     net.ParseIP(dst).To4(),
		SrcIP:     net.IPv4(192, 168, 0, 1),
		DstPort:   port,
		SrcPort:   12345,
		Protocol:  6,
		TimeFirst: t0,
		TimeLast:  t1,
		Bytes:     packets * 60,
		Packets:   packets,
		SynFlag:   syn,
	}
}

// S1: a SYN-flood victim's series is flagged only once its packet counts
// exceed SYN_THRESHOLD with enough variance; a quieter series of the same
// shape is not.
func TestSynFloodVictimFlaggedAboveThreshold(t *testing.T) {
	run := func(victimPackets uint64) bool {
		p := newParams(t, config.ModeSynFlooding)
		spy := &spyReporter{}
		orch := New(p, spy, nil)

		const base = int64(1_700_000_000)
		quietHosts := []string{"10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5", "10.0.0.6"}

		for round := int64(0); round <= 6; round++ {
			ts := base + round*p.Interval
			// A single-interval burst (round 5) against an otherwise quiet
			// series is what gives the victim's series the variance the
			// false-positive test actually checks; a flat series at any
			// packet count never has the shape of a flood.
			victim := uint64(1)
			if round == 5 {
				victim = victimPackets
			}
			require.NoError(t, orch.Ingest(flowRec("10.0.0.1", 80, ts, ts, victim, 1)))
			for _, h := range quietHosts {
				require.NoError(t, orch.Ingest(flowRec(h, 80, ts, ts, 1, 1)))
			}
		}

		return spy.lastAttack&graph.AttackSynFlooding != 0
	}

	assert.False(t, run(120), "a 120-packet victim should stay under SYN_THRESHOLD and not be flagged")
	assert.True(t, run(2000), "a 2000-packet victim should exceed SYN_THRESHOLD and be flagged")
}

// S2: a vertical port scan (many distinct ports to one host within one
// interval) sets VER_PORTSCAN once distinct port count exceeds the
// threshold.
func TestVerticalPortScanExceedsThreshold(t *testing.T) {
	p := newParams(t, config.ModePortscanVer)
	p.VerThreshold = 4096
	spy := &spyReporter{}
	orch := New(p, spy, nil)

	const base = int64(1_700_000_000)
	for i := 0; i < 5000; i++ {
		port := uint16(1000 + i)
		require.NoError(t, orch.Ingest(flowRec("10.0.0.5", port, base, base, 1, 0)))
	}
	require.NoError(t, orch.Finish())

	assert.True(t, spy.lastAttack&graph.AttackPortscanVer != 0)
	assert.Equal(t, 5000, spy.lastVerCount)
}

// S3/P10: a horizontal scan landing entirely on a well-known port (80) is
// never flagged, regardless of volume.
func TestHorizontalScanOnWellKnownPortNotFlagged(t *testing.T) {
	p := newParams(t, config.ModePortscanHor)
	p.HorThreshold = 1000
	spy := &spyReporter{}
	orch := New(p, spy, nil)

	const base = int64(1_700_000_000)
	for i := 0; i < 10000; i++ {
		dst := fmt.Sprintf("10.0.%d.%d", (i/254)+1, (i%254)+1)
		require.NoError(t, orch.Ingest(flowRec(dst, 80, base, base, 1, 0)))
	}
	require.NoError(t, orch.Finish())

	assert.False(t, spy.lastAttack&graph.AttackPortscanHor != 0)
	assert.Zero(t, spy.lastHorCount)
}

// S4: the same shape on a non-well-known port is flagged.
func TestHorizontalScanOnUnassignedPortFlagged(t *testing.T) {
	p := newParams(t, config.ModePortscanHor)
	p.HorThreshold = 1000
	spy := &spyReporter{}
	orch := New(p, spy, nil)

	const base = int64(1_700_000_000)
	for i := 0; i < 10000; i++ {
		dst := fmt.Sprintf("10.0.%d.%d", (i/254)+1, (i%254)+1)
		require.NoError(t, orch.Ingest(flowRec(dst, 31337, base, base, 1, 0)))
	}
	require.NoError(t, orch.Finish())

	assert.True(t, spy.lastAttack&graph.AttackPortscanHor != 0)
	assert.EqualValues(t, 10000, spy.lastHorCount)
}

// S5: a flow spanning two intervals distributes its packets proportionally,
// exercised end to end through the orchestrator rather than the
// distributor package directly.
func TestFlowSpanningTwoIntervalsDistributesAcrossBoundary(t *testing.T) {
	p := newParams(t, config.ModeSynFlooding)
	spy := &spyReporter{}
	orch := New(p, spy, nil)

	const t0 = int64(1_700_000_000)
	// Seed the graph 30s ahead of the test flow, so the current interval's
	// boundary sits at t0+30 — reproducing the scenario's stated
	// interval_last, rather than the interval_last a fresh Seed(t0) would
	// give (t0+60).
	require.NoError(t, orch.Ingest(flowRec("10.0.0.250", 80, t0-30, t0-30, 1, 1)))
	require.NoError(t, orch.Ingest(flowRec("10.0.0.9", 80, t0, t0+90, 90, 1)))

	g := orch.Graph()
	h, ok := g.Index.Lookup(net.ParseIP("10.0.0.9"))
	require.True(t, ok)
	assert.InDelta(t, 30.0, h.Intervals[0], 1e-9)
	assert.InDelta(t, 60.0, h.Intervals[1], 1e-9)
}

// S6: a delayed record (time_first before the current interval) is
// dropped, never distributed.
func TestDelayedRecordIsDropped(t *testing.T) {
	p := newParams(t, config.ModeSynFlooding)
	spy := &spyReporter{}
	orch := New(p, spy, nil)

	const t0 = int64(1_700_000_000)
	require.NoError(t, orch.Ingest(flowRec("10.0.0.1", 80, t0, t0, 10, 1)))
	require.NoError(t, orch.Ingest(flowRec("10.0.0.2", 80, t0-10, t0-10, 10, 1)))

	g := orch.Graph()
	_, ok := g.Index.Lookup(net.ParseIP("10.0.0.2"))
	assert.False(t, ok, "a delayed record's host must never be created")
}

func TestFinishIsNoopOnUnseededGraph(t *testing.T) {
	p := newParams(t, config.ModeSynFlooding)
	spy := &spyReporter{}
	orch := New(p, spy, nil)

	require.NoError(t, orch.Finish())
	assert.Zero(t, spy.reports)
}
