// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package network wires the four collate stages together with three bounded
// channels and drives them with a cooperative scheduler.
//
//	header source -> A -\
//	                     collator -> C -> sink
//	data source   -> B -/
//
// All stages run in the caller's goroutine. One Tick resumes each stage once,
// sink first, and a stage that would block simply waits for a later tick.
package network

import (
	"context"
	"io"
	"iter"
	"log"

	"github.com/google/uuid"

	"github.com/ezrec/collate/channel"
	"github.com/ezrec/collate/metrics"
	"github.com/ezrec/collate/record"
	"github.com/ezrec/collate/stage"
	"github.com/ezrec/collate/topology"
)

const (
	TICK_COST  = 8  // Bound on ticks per record moved end to end.
	TICK_SLACK = 16 // Ticks for stage start up and shut down.
)

// Network state. Channels + stages + scheduler counters.
type Network struct {
	Verbose  bool              // If set, enables verbose logging.
	ID       uuid.UUID         // Identifies the current run in logs and errors.
	Topology topology.Topology // Network constants.
	Output   io.Writer         // Result and completion lines. Optional.
	MaxTicks int               // Tick limit for Run; zero selects TickLimit().
	Yield    func()            // Called between ticks by Run. Optional.
	Metrics  *metrics.Metrics  // Optional Prometheus export.

	A *channel.Bounded // Headers.
	B *channel.Bounded // Data.
	C *channel.Bounded // Merged.

	Header   *stage.HeaderSource
	Data     *stage.DataSource
	Collator *stage.Collator
	Sink     *stage.Sink

	Ticks int // Scheduler ticks since reset.
}

// NewNetwork creates a network for a topology.
func NewNetwork(topo topology.Topology, output io.Writer) (nw *Network, err error) {
	err = topo.Validate()
	if err != nil {
		return
	}

	nw = &Network{
		Topology: topo,
		Output:   output,
	}

	nw.Reset()

	return
}

// Reset rebuilds the channels and stages, ready for a new run.
func (nw *Network) Reset() {
	topo := nw.Topology

	nw.ID = uuid.New()
	nw.Ticks = 0

	nw.A = channel.NewBounded("A", topo.Capacity)
	nw.B = channel.NewBounded("B", topo.Capacity)
	nw.C = channel.NewBounded("C", topo.Capacity)

	nw.Header = stage.NewHeaderSource(nw.A, topo.Groups)
	nw.Data = stage.NewDataSource(nw.B, topo.Data)
	nw.Collator = stage.NewCollator(nw.A, nw.B, nw.C)
	nw.Sink = stage.NewSink(nw.C)

	nw.Header.Output = nw.Output
	nw.Data.Output = nw.Output
	nw.Collator.Output = nw.Output
	nw.Sink.Output = nw.Output

	if nw.Metrics != nil {
		nw.Observe(nw.Metrics)
	}

	if nw.Verbose {
		log.Printf("network %v: reset, capacity %d, %d groups, %d records",
			nw.ID, topo.Capacity, topo.Groups, len(topo.Data))
	}
}

// Observe mirrors channel and scheduler statistics onto m.
func (nw *Network) Observe(m *metrics.Metrics) {
	nw.Metrics = m
	for _, ch := range nw.Channels() {
		ch.Observer = m
	}
}

// Stages returns the stages in scheduling order.
func (nw *Network) Stages() []stage.Stage {
	return []stage.Stage{nw.Sink, nw.Header, nw.Data, nw.Collator}
}

// Channels returns the channels A, B and C.
func (nw *Network) Channels() []*channel.Bounded {
	return []*channel.Bounded{nw.A, nw.B, nw.C}
}

// Stats returns an iterator over the channel statistics.
func (nw *Network) Stats() iter.Seq2[string, channel.Stats] {
	return func(yield func(name string, stats channel.Stats) bool) {
		for _, ch := range nw.Channels() {
			if !yield(ch.Name, ch.Stats) {
				return
			}
		}
	}
}

// Results returns the records the sink has received so far.
func (nw *Network) Results() []record.Record {
	return nw.Sink.Results
}

// TickLimit returns the number of ticks a valid topology needs at most.
func (nw *Network) TickLimit() int {
	return TICK_COST*nw.Topology.Items() + TICK_SLACK
}

// progress returns the total steps taken by all stages.
func (nw *Network) progress() (steps int) {
	for _, st := range nw.Stages() {
		steps += st.Progress()
	}
	return
}

// Tick performs a single scheduler tick. The run is done once the sink has
// seen the sentinel; the remaining stages are not resumed on that tick.
func (nw *Network) Tick() (done bool, err error) {
	before := nw.progress()
	steps := make(map[string]int, 4)

	for _, st := range nw.Stages() {
		st.SetVerbose(nw.Verbose)

		prior := st.Progress()

		var stageDone bool
		stageDone, err = st.Tick()
		steps[st.Name()] = st.Progress() - prior
		if err != nil {
			err = &ErrTick{ID: nw.ID, Tick: nw.Ticks, Stage: st.Name(), Err: err}
			break
		}

		if st == stage.Stage(nw.Sink) && stageDone {
			done = true
			break
		}
	}

	if nw.Metrics != nil {
		nw.Metrics.Tick(steps)
	}

	if err == nil && !done && nw.progress() == before {
		err = &ErrTick{ID: nw.ID, Tick: nw.Ticks, Err: ErrDeadlock}
	}

	nw.Ticks++

	return
}

// Run ticks the network until the sink is done. ctx is only checked between
// ticks.
func (nw *Network) Run(ctx context.Context) (err error) {
	limit := nw.MaxTicks
	if limit <= 0 {
		limit = nw.TickLimit()
	}

	if nw.Verbose {
		log.Printf("network %v: run, tick limit %d", nw.ID, limit)
	}

	for {
		err = ctx.Err()
		if err != nil {
			return
		}

		if nw.Ticks >= limit {
			err = &ErrTick{ID: nw.ID, Tick: nw.Ticks, Err: ErrTickLimit}
			return
		}

		var done bool
		done, err = nw.Tick()
		if err != nil {
			return
		}
		if done {
			break
		}

		if nw.Yield != nil {
			nw.Yield()
		}
	}

	if nw.Verbose {
		for name, stats := range nw.Stats() {
			log.Printf("network %v: channel %v: %+v", nw.ID, name, stats)
		}
		log.Printf("network %v: done after %d ticks", nw.ID, nw.Ticks)
	}

	return
}
