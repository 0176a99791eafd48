package network

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/collate/channel"
	"github.com/ezrec/collate/metrics"
	"github.com/ezrec/collate/record"
	"github.com/ezrec/collate/stage"
	"github.com/ezrec/collate/topology"
)

func doRun(topo topology.Topology, t *testing.T) (nw *Network, output string, err error) {
	require := require.New(t)

	buf := &bytes.Buffer{}
	nw, err = NewNetwork(topo, buf)
	require.NoError(err)

	err = nw.Run(context.Background())
	output = buf.String()
	return
}

func TestNetwork_Reference(t *testing.T) {
	assert := assert.New(t)

	golden, err := os.ReadFile("testdata/reference.golden")
	assert.NoError(err)

	nw, output, err := doRun(topology.Reference(), t)
	assert.NoError(err)
	assert.Equal(string(golden), output)
	assert.Equal(7, nw.Ticks)
	assert.True(nw.Header.Done())
	assert.True(nw.Data.Done())
	assert.True(nw.Collator.Done())
	assert.True(nw.Sink.Done())

	for name, stats := range nw.Stats() {
		assert.LessOrEqual(stats.HighWater, 5, name)
		assert.Equal(stats.Puts, stats.Gets, name)
	}
}

func TestNetwork_Backpressure(t *testing.T) {
	assert := assert.New(t)

	topo := topology.Reference()
	topo.Capacity = 1

	nw, _, err := doRun(topo, t)
	assert.NoError(err)
	assert.Equal(27, nw.Ticks)
	assert.Len(nw.Results(), 3+22)

	for name, stats := range nw.Stats() {
		assert.Equal(1, stats.HighWater, name)
		assert.Equal(stats.Puts, stats.Gets, name)
		assert.Positive(stats.FullStalls+stats.EmptyStalls, name)
	}

	// Every channel ends drained.
	for _, ch := range nw.Channels() {
		assert.Equal(0, ch.Len(), ch.Name)
	}
}

func TestNetwork_EmptyGroup(t *testing.T) {
	assert := assert.New(t)

	topo := topology.Topology{
		Capacity: 5,
		Groups:   3,
		Data:     topology.Group(3, 1, 2),
	}

	nw, output, err := doRun(topo, t)
	assert.NoError(err)
	assert.Equal([]record.Record{1, 2, 3, 0x3001, 0x3002}, nw.Results())
	assert.Contains(output, "result: Header 1\nresult: Header 2\nresult: Header 3\nresult: Data 3 1\n")
}

func TestNetwork_StrayKey(t *testing.T) {
	assert := assert.New(t)

	topo := topology.Reference()
	topo.Data = slices.Insert(topo.Data, 9, record.MakeData(4, 1))

	nw, output, err := doRun(topo, t)
	assert.ErrorIs(err, stage.ErrOrderingViolation)
	assert.False(nw.Sink.Done())
	assert.NotContains(output, "end sink")

	var et *ErrTick
	if assert.ErrorAs(err, &et) {
		assert.Equal("collate", et.Stage)
		assert.Equal(nw.ID, et.ID)
	}

	var eo *stage.ErrOrdering
	if assert.ErrorAs(err, &eo) {
		assert.Equal(4, eo.Record.Key())
	}
}

func TestNetwork_Deadlock(t *testing.T) {
	assert := assert.New(t)

	nw, err := NewNetwork(topology.Reference(), nil)
	assert.NoError(err)

	// Data that never arrives and never ends.
	nw.Collator.Data = channel.NewBounded("X", 1)

	err = nw.Run(context.Background())
	assert.ErrorIs(err, ErrDeadlock)

	var et *ErrTick
	if assert.ErrorAs(err, &et) {
		assert.Equal("", et.Stage)
	}
}

func TestNetwork_TickLimit(t *testing.T) {
	assert := assert.New(t)

	nw, err := NewNetwork(topology.Reference(), nil)
	assert.NoError(err)
	nw.MaxTicks = 3

	err = nw.Run(context.Background())
	assert.ErrorIs(err, ErrTickLimit)
	assert.Equal(3, nw.Ticks)
}

func TestNetwork_Context(t *testing.T) {
	assert := assert.New(t)

	nw, err := NewNetwork(topology.Reference(), nil)
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	nw.Yield = cancel

	err = nw.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(1, nw.Ticks)
}

func TestNetwork_Yield(t *testing.T) {
	assert := assert.New(t)

	nw, err := NewNetwork(topology.Reference(), nil)
	assert.NoError(err)

	var yields int
	nw.Yield = func() { yields++ }

	assert.NoError(nw.Run(context.Background()))
	assert.Equal(nw.Ticks-1, yields)
}

func TestNetwork_Reset(t *testing.T) {
	assert := assert.New(t)

	nw, first, err := doRun(topology.Reference(), t)
	assert.NoError(err)
	id := nw.ID

	buf := &bytes.Buffer{}
	nw.Output = buf
	nw.Reset()
	assert.NotEqual(id, nw.ID)
	assert.Equal(0, nw.Ticks)
	assert.Empty(nw.Results())

	assert.NoError(nw.Run(context.Background()))
	assert.Equal(first, buf.String())
}

func TestNetwork_Invalid(t *testing.T) {
	assert := assert.New(t)

	nw, err := NewNetwork(topology.Topology{Capacity: 0, Groups: 3}, nil)
	assert.ErrorIs(err, topology.ErrInvalidTopology)
	assert.Nil(nw)
}

func TestNetwork_Metrics(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(err)

	nw, err := NewNetwork(topology.Reference(), nil)
	require.NoError(err)
	nw.Observe(m)

	assert.NoError(nw.Run(context.Background()))

	families, err := reg.Gather()
	assert.NoError(err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(names, "collate_channel_puts_total")
	assert.Contains(names, "collate_scheduler_ticks_total")
	assert.Contains(names, "collate_stage_steps_total")
}

// sample returns the value of the named counter with the given label value.
func sample(reg *prometheus.Registry, name string, label string) (value float64) {
	families, _ := reg.Gather()
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			value += m.GetCounter().GetValue()
		}
	}
	return
}

func TestNetwork_MetricsOnFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(err)

	topo := topology.Reference()
	topo.Data = slices.Insert(topo.Data, 9, record.MakeData(4, 1))

	nw, err := NewNetwork(topo, nil)
	require.NoError(err)
	nw.Observe(m)

	err = nw.Run(context.Background())
	assert.ErrorIs(err, stage.ErrOrderingViolation)

	// The failing tick is counted, with the steps taken before the failure.
	assert.Equal(float64(nw.Ticks), sample(reg, "collate_scheduler_ticks_total", ""))
	assert.Equal(float64(nw.Collator.Steps), sample(reg, "collate_stage_steps_total", "collate"))
	assert.Equal(float64(nw.Sink.Steps), sample(reg, "collate_stage_steps_total", "sink"))
}

func TestNetwork_Properties(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(0x3000))

	for range 200 {
		groups := rng.Intn(record.KEY_MAX + 1)
		topo := topology.Topology{
			Capacity: 1 + rng.Intn(6),
			Groups:   groups,
		}
		for key := 1; key <= groups; key++ {
			for range rng.Intn(4) {
				topo.Data = append(topo.Data, record.MakeData(key, rng.Intn(record.PAYLOAD_MASK+1)))
			}
		}

		nw, _, err := doRun(topo, t)
		if !assert.NoError(err, topo) {
			continue
		}

		// Termination within the bound.
		assert.LessOrEqual(nw.Ticks, nw.TickLimit())

		// Headers in order, each followed by its own group, nothing lost.
		var headers []record.Record
		var data []record.Record
		var key int
		for _, value := range nw.Results() {
			if value.IsHeader() {
				key = int(value)
				headers = append(headers, value)
				continue
			}
			assert.Equal(key, value.Key())
			data = append(data, value)
		}

		want := make([]record.Record, groups)
		for n := range want {
			want[n] = record.MakeHeader(n + 1)
		}
		assert.Equal(want, headers)
		assert.ElementsMatch(topo.Data, data)

		for name, stats := range nw.Stats() {
			assert.LessOrEqual(stats.HighWater, topo.Capacity, name)
		}
	}
}
