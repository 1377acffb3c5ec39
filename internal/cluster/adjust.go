package cluster

import (
	"math"

	"github.com/carriercomm/ddos-detection/internal/config"
	"github.com/carriercomm/ddos-detection/internal/host"
	"github.com/carriercomm/ddos-detection/pkg/ddoslog"
)

// Adjust implements false-positive suppression (adjust_cluster, spec.md
// §4.5): it finds the smallest cluster, re-tests its members' own SYN-packet
// series for a real attack signature, and reclassifies the ones that don't
// look like one into the safe cluster. Returns true if a SYN flood survives
// the adjustment.
func Adjust(hosts []*host.Record, clusters []*Cluster, d Dims) (attack bool) {
	attackIdx := 0
	min := clusters[0].HostsCnt
	for j := 1; j < len(clusters); j++ {
		if clusters[j].HostsCnt == 0 {
			ddoslog.Warn("empty cluster found after the convergence")
			return false
		}
		if clusters[j].HostsCnt < min {
			min = clusters[j].HostsCnt
			attackIdx = j
		}
	}

	safeIdx := 0
	if attackIdx == 0 {
		safeIdx = 1
	}

	v := d.V
	if v < 2 {
		return false
	}

	for _, h := range hosts {
		if !h.Active() || h.Cluster != attackIdx {
			continue
		}

		var sum, max float64
		for m := 0; m < v; m++ {
			x := valueAt(h, d, m)
			sum += x
			if x > max {
				max = x
			}
		}
		h.Peak = max
		h.Mean = (sum - max) / float64(v-1)
		mean := sum / float64(v)

		var dev float64
		for m := 0; m < v; m++ {
			x := valueAt(h, d, m) - mean
			dev += x * x
		}
		std := math.Sqrt(dev / float64(v-1))

		if std < 2*mean || max < config.SynThreshold {
			h.Cluster = safeIdx
			clusters[attackIdx].HostsCnt--
			clusters[safeIdx].HostsCnt++
		}
	}

	if clusters[attackIdx].HostsCnt > 0 {
		ddoslog.Warn("SYN flooding attack detected")
		return true
	}
	return false
}
