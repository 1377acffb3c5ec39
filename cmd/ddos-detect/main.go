// Command ddos-detect reads a stream of flow records from a file and
// reports SYN floods, vertical port scans, and horizontal port scans at
// each observation interval boundary.
package main

import (
	"bufio"
	"context"
	"os"

	"github.com/carriercomm/ddos-detection/internal/config"
	"github.com/carriercomm/ddos-detection/internal/detect"
	"github.com/carriercomm/ddos-detection/internal/flow"
	"github.com/carriercomm/ddos-detection/internal/progress"
	"github.com/carriercomm/ddos-detection/internal/report"
	"github.com/carriercomm/ddos-detection/internal/telemetry"
	"github.com/carriercomm/ddos-detection/pkg/ddoslog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

func main() {
	var params config.Params
	app := config.App(&params)

	ran := false
	app.After = func(c *cli.Context) error {
		ran = true
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		ddoslog.Fatalf("%+v", err)
	}
	if !ran {
		// -h/-H or another non-Action path: nothing to run.
		return
	}

	if err := run(&params); err != nil {
		ddoslog.Fatalf("%+v", err)
	}
}

func run(params *config.Params) error {
	ddoslog.SetLevel(levelName(params.Level))

	f, err := os.Open(params.File)
	if err != nil {
		return err
	}
	defer f.Close()

	var metrics *telemetry.Counters
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if params.MetricsAddr != "" {
		var reg *prometheus.Registry
		metrics, reg = telemetry.NewCounters()
		go telemetry.Serve(ctx, params.MetricsAddr, reg)
	}

	reporter := report.New(os.Stdout, nil)
	orch := detect.New(params, reporter, metrics)
	dots := progress.New(os.Stderr, params.Progress)
	defer dots.Done()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if flow.Skip(line) {
			continue
		}

		rec, err := flow.Parse(line)
		if err != nil {
			ddoslog.Warn(err)
			if metrics != nil {
				metrics.FlowsDropped.Inc()
			}
			continue
		}

		if err := orch.Ingest(rec); err != nil {
			return err
		}
		dots.Tick()
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	return orch.Finish()
}

func levelName(level int) string {
	if level >= 4 {
		return "debug"
	}
	return "info"
}
