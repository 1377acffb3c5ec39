// Package cluster implements the k-means clustering engine shared by the
// batch and online variants: initialization, distance computation, and the
// false-positive suppression pass, grounded on the original cluster.c.
package cluster

import "github.com/carriercomm/ddos-detection/internal/host"

// Cluster is one k-means cluster's state: membership count, sum of squared
// distances of its members (used by the online variant), and its centroid
// over the active dimension.
type Cluster struct {
	HostsCnt int
	Dev      float64
	Centroid []float64
}

// Dims carries the active-dimension parameters derived from the graph's
// current window/interval state (spec.md §4.4): Offset is the circular
// buffer's first sampled slot, V is how many slots are active, IntvlMax is
// the buffer's total length.
type Dims struct {
	Offset   int
	V        int
	IntvlMax int
}

// New allocates k empty clusters, each with a zeroed centroid of length
// d.V.
func New(k int, d Dims) []*Cluster {
	cs := make([]*Cluster, k)
	for i := range cs {
		cs[i] = &Cluster{Centroid: make([]float64, d.V)}
	}
	return cs
}

func valueAt(h *host.Record, d Dims, m int) float64 {
	return h.Intervals[(d.Offset+m)%d.IntvlMax]
}

func squaredDistance(h *host.Record, c *Cluster, d Dims) float64 {
	var sum float64
	for m := 0; m < d.V; m++ {
		x := valueAt(h, d, m) - c.Centroid[m]
		sum += x * x
	}
	return sum
}

// initCentroids scans hosts in order for the first len(clusters) distinct
// active hosts and copies each one's vector as that cluster's initial
// centroid. This is the stat-scanning form: the only one that is correct
// when some hosts are inactive, per the detector's resolved Open Question
// (the alternative — initializing centroid j from host j regardless of
// activity — can seed a centroid from an idle host).
func initCentroids(hosts []*host.Record, clusters []*Cluster, d Dims) int {
	idx := 0
	cnt := 0
	for j := range clusters {
		found := false
		for i := idx; i < len(hosts); i++ {
			if hosts[i].Active() {
				for m := 0; m < d.V; m++ {
					clusters[j].Centroid[m] = valueAt(hosts[i], d, m)
				}
				idx = i + 1
				cnt++
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return cnt
}
