package cluster

import (
	"math"

	"github.com/carriercomm/ddos-detection/internal/ddoserr"
	"github.com/carriercomm/ddos-detection/internal/host"
	"github.com/carriercomm/ddos-detection/pkg/ddoslog"
)

// Batch runs batch k-means to convergence (spec.md §4.4): repeated
// assign/recompute passes until no host changes cluster. Returns
// DataInsufficient if fewer than len(clusters) hosts are active.
func Batch(hosts []*host.Record, clusters []*Cluster, d Dims) error {
	if initCentroids(hosts, clusters, d) != len(clusters) {
		return ddoserr.New(ddoserr.DataInsufficient, "not enough data to start SYN flooding detection")
	}

	assign(hosts, clusters, d)
	snapshotPrevious(hosts)

	for {
		recomputeCentroids(hosts, clusters, d)
		assign(hosts, clusters, d)
		if changed(hosts) == 0 {
			break
		}
		snapshotPrevious(hosts)
	}

	return nil
}

// assign computes each active host's distance to every centroid and picks
// the argmin, ties going to the lowest index.
func assign(hosts []*host.Record, clusters []*Cluster, d Dims) {
	for _, c := range clusters {
		c.HostsCnt = 0
	}

	for _, h := range hosts {
		if !h.Active() {
			continue
		}
		h.EnsureDistances(len(clusters))

		best := 0
		bestDist := math.Inf(1)
		for j, c := range clusters {
			dist := squaredDistance(h, c, d)
			h.Distances[j] = dist
			if dist < bestDist {
				bestDist = dist
				best = j
			}
		}
		h.Cluster = best
		clusters[best].HostsCnt++
	}
}

func snapshotPrevious(hosts []*host.Record) {
	for _, h := range hosts {
		if h.Active() {
			h.PreviousCluster = h.Cluster
		}
	}
}

// recomputeCentroids sets each centroid to the component-wise mean of its
// current members. Empty clusters stay at the origin for this pass.
func recomputeCentroids(hosts []*host.Record, clusters []*Cluster, d Dims) {
	for _, c := range clusters {
		for m := range c.Centroid {
			c.Centroid[m] = 0
		}
	}

	for _, h := range hosts {
		if !h.Active() {
			continue
		}
		c := clusters[h.Cluster]
		for m := 0; m < d.V; m++ {
			c.Centroid[m] += valueAt(h, d, m)
		}
	}

	for j, c := range clusters {
		if c.HostsCnt == 0 {
			ddoslog.Warnf("empty cluster %d", j+1)
			continue
		}
		for m := range c.Centroid {
			c.Centroid[m] /= float64(c.HostsCnt)
		}
	}
}

func changed(hosts []*host.Record) int {
	cnt := 0
	for _, h := range hosts {
		if h.Active() && h.Cluster != h.PreviousCluster {
			cnt++
		}
	}
	return cnt
}
