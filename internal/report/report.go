// Package report renders one detection pass's findings: the mandatory
// plain-text report file of spec.md §6, in the exact field layout of the
// original print_graph, and a secondary line-protocol egress stream for
// feeding a metrics pipeline, grounded on the teacher's line-protocol wire
// format used the other way around (here as egress, not ingestion).
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/carriercomm/ddos-detection/internal/config"
	"github.com/carriercomm/ddos-detection/internal/graph"
	"github.com/carriercomm/ddos-detection/internal/host"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// padding is the fixed right-aligned field width from spec.md §6.
const padding = 16

const timeLayout = "Mon Jan _2 15:04:05 2006"

// Writer renders reports to the mandatory text stream and, optionally, a
// line-protocol egress stream.
type Writer struct {
	text io.Writer
	egress io.Writer
	enc  *lineprotocol.Encoder
}

// New builds a Writer. egress may be nil to disable the line-protocol
// stream entirely.
func New(text io.Writer, egress io.Writer) *Writer {
	w := &Writer{text: text, egress: egress}
	if egress != nil {
		w.enc = &lineprotocol.Encoder{}
		w.enc.SetPrecision(lineprotocol.Second)
	}
	return w
}

// Report writes one interval's findings. level is the verbosity (1..5,
// spec.md §6 plus the SUPPLEMENTED FEATURES detail levels).
func (w *Writer) Report(g *graph.Graph, ts int64, level int) error {
	p := g.Params
	label := func(s string) string { return fmt.Sprintf("%-24s", s) }
	val := func(format string, v interface{}) string { return fmt.Sprintf(format, v) }
	line := func(l string, v string) {
		fmt.Fprintf(w.text, "%s%*s\n", label(l), padding, v)
	}

	t := time.Unix(ts, 0).UTC()
	line("Time:", t.Format(timeLayout))
	line("Number of active hosts:", val("%d", g.ActiveHosts()))

	if p.Mode&config.ModePortscanVer != 0 {
		line("Number of ports used:", val("%d", g.VerCount))
	}
	if p.Mode&config.ModePortscanHor != 0 {
		line("Maximum port accesses:", val("%d", g.HorCount))
	}

	var counts []int
	if p.Mode&config.ModeSynFlooding != 0 && g.WindowCnt >= 1 {
		counts = clusterCounts(g, p.Clusters)
		line("Number of clusters:", val("%d", p.Clusters))
		for j, c := range counts {
			line(fmt.Sprintf("* Hosts in cluster %d:", j+1), val("%d", c))
		}
	}

	if level >= 3 && p.Mode&config.ModeSynFlooding != 0 {
		writeClusterMembers(w.text, g)
	}
	if level >= 4 {
		writeTopPorts(w.text, g)
	}
	if level >= 5 {
		writeRawIntervals(w.text, g)
	}

	if w.enc != nil {
		w.enc.Reset()
		w.encodeLine(g, ts, counts)
		if err := w.enc.Err(); err != nil {
			return err
		}
		if _, err := w.egress.Write(w.enc.Bytes()); err != nil {
			return err
		}
	}

	return nil
}

func clusterCounts(g *graph.Graph, k int) []int {
	counts := make([]int, k)
	for _, h := range g.Index.All() {
		if h.Active() && h.Cluster >= 0 && h.Cluster < k {
			counts[h.Cluster]++
		}
	}
	return counts
}

func writeClusterMembers(w io.Writer, g *graph.Graph) {
	fmt.Fprintln(w, "Cluster membership:")
	for _, h := range g.Index.All() {
		if !h.Active() {
			continue
		}
		fmt.Fprintf(w, "  %-16s cluster %d\n", h.IP.String(), h.Cluster+1)
	}
}

func writeTopPorts(w io.Writer, g *graph.Graph) {
	snap := g.Ports.Snapshot()
	sorted := snap[:]
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Accesses > sorted[j].Accesses })

	fmt.Fprintln(w, "Top ports:")
	shown := 0
	for _, e := range sorted {
		if e.Accesses == 0 || shown >= 20 {
			break
		}
		fmt.Fprintf(w, "  port %-8d accesses %d\n", e.PortNum, e.Accesses)
		shown++
	}
}

func writeRawIntervals(w io.Writer, g *graph.Graph) {
	fmt.Fprintln(w, "Raw interval counts:")
	for _, h := range g.Index.All() {
		if h.Level != host.LevelTrace {
			continue
		}
		fmt.Fprintf(w, "  %-16s %v\n", h.IP.String(), h.Intervals)
	}
}

func (w *Writer) encodeLine(g *graph.Graph, ts int64, counts []int) {
	w.enc.StartLine("ddos_detection")
	w.enc.AddField("active_hosts", lineprotocol.MustNewValue(int64(g.ActiveHosts())))
	w.enc.AddField("attack", lineprotocol.MustNewValue(int64(g.Attack)))
	if g.Params.Mode&config.ModePortscanVer != 0 {
		w.enc.AddField("ports_ver", lineprotocol.MustNewValue(int64(g.VerCount)))
	}
	if g.Params.Mode&config.ModePortscanHor != 0 {
		w.enc.AddField("ports_hor", lineprotocol.MustNewValue(int64(g.HorCount)))
	}
	if len(counts) > 0 {
		for j, c := range counts {
			w.enc.AddField(fmt.Sprintf("cluster_%d", j+1), lineprotocol.MustNewValue(int64(c)))
		}
	}
	w.enc.EndLine(time.Unix(ts, 0))
}
