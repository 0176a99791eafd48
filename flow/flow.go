// Package flow runs the collate topology with one goroutine per stage,
// connected by buffered Go channels of the topology's capacity.
//
// It produces the same results as the cooperative network, with the Go
// runtime providing the suspension on full and empty channels. The order of
// the completion lines is up to the goroutine scheduler.
package flow

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/collate/record"
	"github.com/ezrec/collate/stage"
	"github.com/ezrec/collate/topology"
	"github.com/ezrec/collate/translate"
)

var f = translate.From

// syncWriter serializes writes from the stage goroutines.
type syncWriter struct {
	mutex sync.Mutex
	w     io.Writer
}

func (sw *syncWriter) Write(p []byte) (n int, err error) {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if sw.w == nil {
		return len(p), nil
	}
	return sw.w.Write(p)
}

func finish(output io.Writer, name string) {
	fmt.Fprintln(output, f("end %v", name))
}

func send(ctx context.Context, ch chan<- record.Record, value record.Record) error {
	select {
	case ch <- value:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// receive returns ok false once ch is closed and drained.
func receive(ctx context.Context, ch <-chan record.Record) (value record.Record, ok bool, err error) {
	select {
	case value, ok = <-ch:
		return
	case <-ctx.Done():
		err = ctx.Err()
		return
	}
}

// Headers sends the keys 1..groups, then the sentinel.
func Headers(ctx context.Context, groups int, out chan<- record.Record, output io.Writer) (err error) {
	for key := 1; key <= groups; key++ {
		err = send(ctx, out, record.MakeHeader(key))
		if err != nil {
			return
		}
	}

	err = send(ctx, out, record.Sentinel)
	if err != nil {
		return
	}

	finish(output, "header")
	return
}

// Data sends every record of data, then closes out.
func Data(ctx context.Context, data []record.Record, out chan<- record.Record, output io.Writer) (err error) {
	defer close(out)

	for _, value := range data {
		err = send(ctx, out, value)
		if err != nil {
			return
		}
	}

	finish(output, "data")
	return
}

// Collate merges headers and data into out, each header followed by the data
// records with its key. It fails with *stage.ErrOrdering if a data record
// cannot belong to the open group or to any later header.
func Collate(ctx context.Context, headers <-chan record.Record, data <-chan record.Record, out chan<- record.Record, output io.Writer) (err error) {
	var key int
	var pending record.Record
	var hasPending, exhausted bool

	for {
		var value record.Record
		var ok bool
		value, ok, err = receive(ctx, headers)
		if err != nil {
			return
		}
		if !ok || value.IsSentinel() {
			break
		}

		key = int(value)
		err = send(ctx, out, record.MakeHeader(key))
		if err != nil {
			return
		}

		if hasPending {
			if pending.Key() > key {
				continue
			}
			if pending.Key() < key {
				return &stage.ErrOrdering{Header: key, Record: pending}
			}
			err = send(ctx, out, pending)
			if err != nil {
				return
			}
			hasPending = false
		}

		for !exhausted {
			value, ok, err = receive(ctx, data)
			if err != nil {
				return
			}
			if !ok {
				exhausted = true
				break
			}
			if value.Key() > key {
				pending = value
				hasPending = true
				break
			}
			if value.Key() < key {
				return &stage.ErrOrdering{Header: key, Record: value}
			}
			err = send(ctx, out, value)
			if err != nil {
				return
			}
		}
	}

	if hasPending {
		return &stage.ErrOrdering{Header: key, Record: pending, Trailing: true}
	}

	for !exhausted {
		var value record.Record
		var ok bool
		value, ok, err = receive(ctx, data)
		if err != nil {
			return
		}
		if ok {
			return &stage.ErrOrdering{Header: key, Record: value, Trailing: true}
		}
		exhausted = true
	}

	err = send(ctx, out, record.Sentinel)
	if err != nil {
		return
	}

	finish(output, "collate")
	return
}

// Sink renders records from in until the sentinel, and returns them.
func Sink(ctx context.Context, in <-chan record.Record, output io.Writer) (results []record.Record, err error) {
	for {
		var value record.Record
		var ok bool
		value, ok, err = receive(ctx, in)
		if err != nil {
			return
		}
		if !ok || value.IsSentinel() {
			break
		}
		results = append(results, value)
		fmt.Fprintf(output, "result: %v\n", value)
	}

	finish(output, "sink")
	return
}

// Run executes the topology and returns the records received by the sink.
// The first stage failure cancels the others.
func Run(ctx context.Context, topo topology.Topology, output io.Writer) (results []record.Record, err error) {
	err = topo.Validate()
	if err != nil {
		return
	}

	sw := &syncWriter{w: output}

	a := make(chan record.Record, topo.Capacity)
	b := make(chan record.Record, topo.Capacity)
	c := make(chan record.Record, topo.Capacity)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return Headers(ctx, topo.Groups, a, sw) })
	g.Go(func() error { return Data(ctx, topo.Data, b, sw) })
	g.Go(func() error { return Collate(ctx, a, b, c, sw) })
	g.Go(func() (err error) {
		results, err = Sink(ctx, c, sw)
		return
	})

	err = g.Wait()
	if err != nil {
		results = nil
	}

	return
}
