// Package config resolves the detector's run parameters from CLI flags and
// an optional JSON overlay file, the way the teacher's internal/config
// resolves ProgramConfig: flags set the baseline, a validated JSON file can
// supply defaults for values the flags don't override.
package config

import (
	"encoding/json"
	"os"

	"github.com/carriercomm/ddos-detection/internal/ddoserr"
	"github.com/urfave/cli/v2"
)

// Detection mode bits, see spec §6.
const (
	ModeSynFlooding = 0x01
	ModePortscanVer = 0x02
	ModePortscanHor = 0x04
	ModeAll         = 0x07
)

// Fixed constants from the detector's design (spec §3, §4, §8).
const (
	ArrayExtra        = 4
	ArrayMin          = 32
	Convergence       = 5
	SynThreshold      = 512
	DefaultPortWindow = 300
)

// WellKnownPorts is exempted from horizontal-scan decisions (spec §4.6).
var WellKnownPorts = map[uint16]bool{
	20: true, 21: true, 22: true, 23: true, 25: true, 53: true, 80: true,
	110: true, 143: true, 161: true, 443: true, 3389: true, 4949: true,
	5800: true, 5900: true, 10050: true,
}

// Params holds one run's resolved configuration.
type Params struct {
	Mode           int
	Clusters       int
	FlushIter      int
	Progress       int
	Level          int
	Interval       int64
	TimeWindow     int64
	VerThreshold   int
	HorThreshold   int
	PortWindow     int64
	File           string
	MetricsAddr    string
	Online         bool // use the online k-means variant instead of batch

	// Derived.
	IntvlMax int
	IterMax  int
}

func defaults() Params {
	return Params{
		Mode:         ModeSynFlooding,
		Clusters:     2,
		FlushIter:    0,
		Progress:     0,
		Level:        1,
		Interval:     60,
		TimeWindow:   3600,
		VerThreshold: 8192,
		HorThreshold: 4096,
		PortWindow:   DefaultPortWindow,
	}
}

// App builds the CLI surface with the exact option letters preserved from
// the original tool for compatibility (spec §6). Flags populate p in
// place; overlay defaults from a -c config file are applied first, in
// Action, before flag values are read, so CLI flags always win.
func App(p *Params) *cli.App {
	*p = defaults()

	// Preserve the original tool's -H alias for help alongside cli/v2's
	// default -h/--help.
	cli.HelpFlag = &cli.BoolFlag{Name: "help", Aliases: []string{"h", "H"}, Usage: "show usage"}

	app := &cli.App{
		Name:  "ddos-detect",
		Usage: "detect SYN floods and port scans in a stream of flow records",
		UsageText: "ddos-detect -f FILE [OPTION]...\n\n" +
			"Detection modes (-d):\n" +
			"   1) SYN flooding detection only.\n" +
			"   2) Vertical port scanning detection only.\n" +
			"   3) SYN flooding and vertical port scanning detection.\n" +
			"   4) Horizontal port scanning detection only.\n" +
			"   5) SYN flooding and horizontal port scanning detection.\n" +
			"   6) Vertical and horizontal port scanning detection.\n" +
			"   7) All detections combined.\n",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "optional JSON config overlay, validated against an embedded schema"},
			&cli.IntFlag{Name: "mode", Aliases: []string{"d"}, Value: ModeSynFlooding, Usage: "detection mode bitset, 1..7"},
			&cli.IntFlag{Name: "flush-iter", Aliases: []string{"e"}, Value: 0, Usage: "number of windows before the graph is flushed and rebuilt, 0=never"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "CSV flow file to process"},
			&cli.IntFlag{Name: "clusters", Aliases: []string{"k"}, Value: 2, Usage: "number of k-means clusters, 2..255"},
			&cli.IntFlag{Name: "level", Aliases: []string{"L"}, Value: 1, Usage: "report verbosity level, 1..5"},
			&cli.IntFlag{Name: "ver-threshold", Aliases: []string{"M"}, Value: 8192, Usage: "vertical port-scan threshold"},
			&cli.IntFlag{Name: "hor-threshold", Aliases: []string{"N"}, Value: 4096, Usage: "horizontal port-scan threshold"},
			&cli.IntFlag{Name: "progress", Aliases: []string{"p"}, Value: 0, Usage: "print a progress dot every N flows, 0=off"},
			&cli.Int64Flag{Name: "interval", Aliases: []string{"t"}, Value: 60, Usage: "observation interval in seconds"},
			&cli.Int64Flag{Name: "window", Aliases: []string{"w"}, Value: 3600, Usage: "observation time window in seconds"},
			&cli.StringFlag{Name: "metrics-addr", Aliases: []string{"m"}, Usage: "optional address to serve Prometheus metrics on, e.g. :9469"},
			&cli.BoolFlag{Name: "online", Usage: "use the online (incremental) k-means variant instead of batch"},
		},
		Action: func(c *cli.Context) error {
			if cfgPath := c.String("config"); cfgPath != "" {
				if err := overlay(p, cfgPath); err != nil {
					return err
				}
			}

			p.Mode = c.Int("mode")
			p.FlushIter = c.Int("flush-iter")
			p.File = c.String("file")
			p.Clusters = c.Int("clusters")
			p.Level = c.Int("level")
			p.VerThreshold = c.Int("ver-threshold")
			p.HorThreshold = c.Int("hor-threshold")
			p.Progress = c.Int("progress")
			p.Interval = c.Int64("interval")
			p.TimeWindow = c.Int64("window")
			p.MetricsAddr = c.String("metrics-addr")
			p.Online = c.Bool("online")

			return Validate(p)
		},
	}

	return app
}

// overlay decodes and schema-validates the JSON config file at path, using
// its values only to seed fields the caller hasn't changed via flags yet —
// mirroring the teacher's config.Validate(schema, raw) pattern.
func overlay(p *Params, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ddoserr.Wrap(ddoserr.Config, err, "cannot read config file")
	}

	if err := validateSchema(configSchema, raw); err != nil {
		return err
	}

	var overlay struct {
		PortWindow *int64 `json:"port_window"`
	}
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return ddoserr.Wrap(ddoserr.Config, err, "cannot decode config file")
	}
	if overlay.PortWindow != nil {
		p.PortWindow = *overlay.PortWindow
	}
	return nil
}

// Validate checks the option independence and range rules of spec §6/§7 and
// derives IntvlMax/IterMax. Each option is validated on its own — the
// original source's `-k` fallthrough into `-L` is NOT reproduced; per the
// detector's resolved Open Question, every flag is handled independently.
func Validate(p *Params) error {
	if p.Mode < 1 || p.Mode > ModeAll {
		return ddoserr.Newf(ddoserr.Config, "invalid detection mode %d, want 1..7", p.Mode)
	}
	if p.FlushIter < 0 {
		return ddoserr.Newf(ddoserr.Config, "invalid flush iteration count %d, want >= 0", p.FlushIter)
	}
	if p.File == "" {
		return ddoserr.New(ddoserr.Config, "you must specify a data file")
	}
	if p.Clusters < 2 || p.Clusters > 255 {
		return ddoserr.Newf(ddoserr.Config, "invalid cluster count %d, want 2..255", p.Clusters)
	}
	if p.Level < 1 || p.Level > 5 {
		return ddoserr.Newf(ddoserr.Config, "invalid verbosity level %d, want 1..5", p.Level)
	}
	if p.Interval <= 0 {
		return ddoserr.Newf(ddoserr.Config, "invalid interval %d, want > 0", p.Interval)
	}
	if p.TimeWindow <= 0 {
		return ddoserr.Newf(ddoserr.Config, "invalid time window %d, want > 0", p.TimeWindow)
	}
	if p.Progress < 0 {
		return ddoserr.Newf(ddoserr.Config, "invalid progress interval %d, want >= 0", p.Progress)
	}
	if p.PortWindow <= 0 {
		p.PortWindow = DefaultPortWindow
	}

	p.IntvlMax = int(p.TimeWindow/p.Interval) + ArrayExtra
	if p.IntvlMax <= ArrayMin {
		return ddoserr.Newf(ddoserr.Config, "time window cannot be less than or closely equal to observation interval (intvl_max=%d, want > %d)", p.IntvlMax, ArrayMin)
	}
	p.IterMax = int(p.PortWindow / p.Interval)
	if p.IterMax < 1 {
		p.IterMax = 1
	}

	return nil
}
