package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ezrec/collate/flow"
	"github.com/ezrec/collate/metrics"
	"github.com/ezrec/collate/network"
	"github.com/ezrec/collate/topology"
	"github.com/ezrec/collate/translate"
)

var f = translate.From

const (
	MODE_COOP      = "coop"      // Cooperative scheduler.
	MODE_GOROUTINE = "goroutine" // One goroutine per stage.
)

var ErrMode = errors.New(f("unknown scheduler"))

// options of a single run.
type options struct {
	Mode    string
	Sleep   time.Duration // Sleep between ticks, coop mode only.
	Stats   bool          // Log gathered metrics, coop mode only.
	Verbose bool
}

// run executes the topology. Nothing is written to stdout unless the run
// succeeds.
func run(ctx context.Context, topo topology.Topology, opts options, stdout io.Writer) (err error) {
	output := &bytes.Buffer{}

	switch opts.Mode {
	case MODE_COOP:
		err = runCoop(ctx, topo, opts, output)
	case MODE_GOROUTINE:
		_, err = flow.Run(ctx, topo, output)
	default:
		err = fmt.Errorf("%w: %v", ErrMode, opts.Mode)
	}
	if err != nil {
		return
	}

	_, err = stdout.Write(output.Bytes())
	return
}

func runCoop(ctx context.Context, topo topology.Topology, opts options, output io.Writer) (err error) {
	nw, err := network.NewNetwork(topo, output)
	if err != nil {
		return
	}
	nw.Verbose = opts.Verbose
	if opts.Sleep > 0 {
		sleep := opts.Sleep
		nw.Yield = func() { time.Sleep(sleep) }
	}

	reg := prometheus.NewRegistry()
	if opts.Stats {
		var m *metrics.Metrics
		m, err = metrics.New(reg)
		if err != nil {
			return
		}
		nw.Observe(m)
	}

	err = nw.Run(ctx)
	if err != nil {
		return
	}

	if opts.Stats {
		err = logStats(reg)
	}

	return
}

// logStats logs every gathered sample as `name{labels} value`.
func logStats(reg *prometheus.Registry) (err error) {
	families, err := reg.Gather()
	if err != nil {
		return
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			value := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			log.Printf("%v{%v} %v", mf.GetName(), strings.Join(labels, ","), value)
		}
	}

	return
}
