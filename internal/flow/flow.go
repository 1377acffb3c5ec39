// Package flow implements the external CSV-tokenization collaborator named
// in the detector's system overview: turning one space-separated input line
// into an immutable Flow record. It is a boundary concern, not core
// detection logic — validation failures drop the line, they never abort
// the run.
package flow

import (
	"net"
	"strconv"
	"strings"

	"github.com/carriercomm/ddos-detection/internal/ddoserr"
)

// Record is one parsed, immutable flow line.
//
// Field order on the wire (space separated):
//
//	dst_ip src_ip dst_port src_port protocol time_first unknown time_last bytes packets syn_flag
type Record struct {
	DstIP     net.IP
	SrcIP     net.IP
	DstPort   uint16
	SrcPort   uint16
	Protocol  uint8
	TimeFirst int64
	TimeLast  int64
	Bytes     uint64
	Packets   uint64
	SynFlag   uint8
}

const maxPort = 65535

// Parse tokenizes one input line into a Record. Blank lines and lines
// starting with '#' are the caller's concern to skip before calling Parse;
// any other malformed line yields a ParseError naming the missing or
// invalid field.
func Parse(line string) (Record, error) {
	var rec Record

	fields := strings.Fields(line)
	const wantFields = 11
	if len(fields) < wantFields {
		return rec, ddoserr.Newf(ddoserr.Parse, "flow line has %d fields, want %d", len(fields), wantFields)
	}

	dstIP := net.ParseIP(fields[0]).To4()
	if dstIP == nil {
		return rec, ddoserr.New(ddoserr.Parse, "cannot convert destination IP address, parsing interrupted")
	}
	rec.DstIP = dstIP

	srcIP := net.ParseIP(fields[1]).To4()
	if srcIP == nil {
		return rec, ddoserr.New(ddoserr.Parse, "cannot convert source IP address, parsing interrupted")
	}
	rec.SrcIP = srcIP

	dstPort, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil || dstPort > maxPort {
		return rec, ddoserr.New(ddoserr.Parse, "invalid destination port number, parsing interrupted")
	}
	rec.DstPort = uint16(dstPort)

	srcPort, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil || srcPort > maxPort {
		return rec, ddoserr.New(ddoserr.Parse, "invalid source port number, parsing interrupted")
	}
	rec.SrcPort = uint16(srcPort)

	protocol, err := strconv.ParseUint(fields[4], 10, 8)
	if err != nil {
		return rec, ddoserr.New(ddoserr.Parse, "invalid protocol, parsing interrupted")
	}
	rec.Protocol = uint8(protocol)

	timeFirst, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return rec, ddoserr.New(ddoserr.Parse, "invalid time of the first packet, parsing interrupted")
	}
	rec.TimeFirst = timeFirst

	// fields[6] is the unknown field; skipped per the wire format.

	timeLast, err := strconv.ParseInt(fields[7], 10, 64)
	if err != nil {
		return rec, ddoserr.New(ddoserr.Parse, "invalid time of the last packet, parsing interrupted")
	}
	rec.TimeLast = timeLast

	if timeLast < timeFirst {
		return rec, ddoserr.New(ddoserr.Parse, "time_last precedes time_first, parsing interrupted")
	}

	bytesVal, err := strconv.ParseUint(fields[8], 10, 64)
	if err != nil {
		return rec, ddoserr.New(ddoserr.Parse, "invalid byte count, parsing interrupted")
	}
	rec.Bytes = bytesVal

	packets, err := strconv.ParseUint(fields[9], 10, 64)
	if err != nil {
		return rec, ddoserr.New(ddoserr.Parse, "invalid packet count, parsing interrupted")
	}
	rec.Packets = packets

	synFlag, err := strconv.ParseUint(fields[10], 10, 8)
	if err != nil {
		return rec, ddoserr.New(ddoserr.Parse, "invalid SYN flag, parsing interrupted")
	}
	rec.SynFlag = uint8(synFlag)

	return rec, nil
}

// Skip reports whether a raw input line should be skipped before Parse is
// even attempted: blank lines and comment lines starting with '#'.
func Skip(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// DstIPKey packs an IPv4 destination address into a 32-bit key suitable for
// use as a host-index map key.
func DstIPKey(ip net.IP) uint32 {
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}
