// Package progress implements the original's "-p N" progress-dot output:
// a '.' written to stderr every N processed flows, purely a boundary
// concern of the line-reading loop, never consulted by detection logic.
package progress

import "io"

// Dots counts processed items and writes a '.' to w every N, 0 disables
// output entirely.
type Dots struct {
	w io.Writer
	n int
	cnt int
}

// New returns a Dots counter; n <= 0 disables it.
func New(w io.Writer, n int) *Dots {
	return &Dots{w: w, n: n}
}

// Tick counts one processed item, writing a dot if the interval is reached.
func (d *Dots) Tick() {
	if d.n <= 0 {
		return
	}
	d.cnt++
	if d.cnt%d.n == 0 {
		io.WriteString(d.w, ".")
	}
}

// Done writes a trailing newline if any dots were printed, so the next
// log line doesn't run onto the dot row.
func (d *Dots) Done() {
	if d.n > 0 && d.cnt >= d.n {
		io.WriteString(d.w, "\n")
	}
}
