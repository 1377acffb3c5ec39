package cluster

import (
	"math"

	"github.com/carriercomm/ddos-detection/internal/ddoserr"
	"github.com/carriercomm/ddos-detection/internal/host"
)

// Online runs the incremental k-means variant (spec.md §4.4): one initial
// assignment pass, then single-host reassignments until a full pass moves
// nothing. Unlike Batch it updates centroids incrementally per move instead
// of recomputing them from scratch every pass.
func Online(hosts []*host.Record, clusters []*Cluster, d Dims) error {
	if initCentroids(hosts, clusters, d) != len(clusters) {
		return ddoserr.New(ddoserr.DataInsufficient, "not enough data to start SYN flooding detection")
	}

	for _, c := range clusters {
		c.HostsCnt = 0
	}
	for _, h := range hosts {
		if !h.Active() {
			continue
		}
		best := 0
		bestDist := math.Inf(1)
		for j, c := range clusters {
			dist := squaredDistance(h, c, d)
			if dist < bestDist {
				bestDist = dist
				best = j
			}
		}
		h.Cluster = best
		clusters[best].HostsCnt++
	}

	recenterFromScratch(hosts, clusters, d)

	for _, h := range hosts {
		if !h.Active() {
			continue
		}
		h.EnsureDistances(1)
		sum := squaredDistance(h, clusters[h.Cluster], d)
		h.Distances[0] = sum
		clusters[h.Cluster].Dev += sum
	}

	for _, h := range hosts {
		if !h.Active() {
			continue
		}
		hc := clusters[h.Cluster].HostsCnt
		if hc > 1 {
			h.Distances[0] = h.Distances[0] * float64(hc) / float64(hc-1)
		}
	}

	for {
		moves := 0
		for _, h := range hosts {
			if !h.Active() {
				continue
			}
			q := h.Cluster
			if clusters[q].HostsCnt <= 1 {
				// Moving away would leave the source cluster empty;
				// minimum cluster size is 1.
				continue
			}

			p := q
			dBest := h.Distances[0]
			for j, c := range clusters {
				if j == q {
					continue
				}
				bias := float64(c.HostsCnt) / (float64(c.HostsCnt) + 1.0)
				var y float64
				for m := 0; m < d.V; m++ {
					z := valueAt(h, d, m) - c.Centroid[m]
					y += z * z * bias
				}
				if y < dBest {
					dBest = y
					p = j
				}
			}

			if p == q {
				continue
			}

			hq := float64(clusters[q].HostsCnt)
			hp := float64(clusters[p].HostsCnt)
			for m := 0; m < d.V; m++ {
				x := clusters[q].Centroid[m]*hq - valueAt(h, d, m)
				clusters[q].Centroid[m] = x / (hq - 1)
				y := clusters[p].Centroid[m]*hp + valueAt(h, d, m)
				clusters[p].Centroid[m] = y / (hp + 1)
			}

			clusters[q].Dev -= h.Distances[0]
			clusters[p].Dev += dBest
			clusters[q].HostsCnt--
			clusters[p].HostsCnt++

			h.Cluster = p

			for _, other := range hosts {
				if !other.Active() {
					continue
				}
				if other.Cluster != p && other.Cluster != q {
					continue
				}
				c := clusters[other.Cluster]
				dist := squaredDistance(other, c, d)
				hc := float64(c.HostsCnt)
				if hc > 1 {
					dist = dist * hc / (hc - 1)
				}
				other.Distances[0] = dist
			}

			moves++
		}

		if moves == 0 {
			break
		}
	}

	return nil
}

func recenterFromScratch(hosts []*host.Record, clusters []*Cluster, d Dims) {
	for _, c := range clusters {
		c.Dev = 0
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
	for _, c := range clusters {
		if c.HostsCnt == 0 {
			continue
		}
		for m := range c.Centroid {
			c.Centroid[m] /= float64(c.HostsCnt)
		}
	}
}
