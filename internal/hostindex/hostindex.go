// Package hostindex replaces the original 32-level IPv4 binary trie with an
// integer-keyed hash map, per the detector's re-architecture guidance: since
// addresses are uniformly 32 bits, the trie gains nothing over a map keyed
// by the packed address.
package hostindex

import (
	"encoding/binary"
	"net"

	"github.com/carriercomm/ddos-detection/internal/host"
)

// Index maps an IPv4 address to its host.Record, preserving insertion order
// so per-host arrays align with the cluster engine's host iteration order.
type Index struct {
	byIP  map[uint32]*host.Record
	order []*host.Record
}

// New returns an empty index sized for a typical run.
func New() *Index {
	return &Index{
		byIP: make(map[uint32]*host.Record, 1024),
	}
}

func key(ip net.IP) uint32 {
	v4 := ip.To4()
	return binary.BigEndian.Uint32(v4)
}

// GetOrCreate returns the existing record for ip, or creates one with the
// given interval-array size and level. The created flag mirrors the
// original's create_host path: created hosts start at Stat=1, Accesses=1.
func (x *Index) GetOrCreate(ip net.IP, intvlMax int, level host.Level) (rec *host.Record, created bool) {
	k := key(ip)
	if rec, ok := x.byIP[k]; ok {
		return rec, false
	}

	rec = host.New(ip, intvlMax, level)
	x.byIP[k] = rec
	x.order = append(x.order, rec)
	return rec, true
}

// Lookup returns the record for ip without creating one.
func (x *Index) Lookup(ip net.IP) (*host.Record, bool) {
	rec, ok := x.byIP[key(ip)]
	return rec, ok
}

// Len returns the number of distinct hosts ever created in this graph.
func (x *Index) Len() int {
	return len(x.order)
}

// All returns every host record in insertion order. The slice is owned by
// the index; callers must not retain it across a Reset.
func (x *Index) All() []*host.Record {
	return x.order
}

// Reset discards every host record, for a full graph flush.
func (x *Index) Reset() {
	x.byIP = make(map[uint32]*host.Record, 1024)
	x.order = nil
}
