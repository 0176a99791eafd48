package flow

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/collate/network"
	"github.com/ezrec/collate/record"
	"github.com/ezrec/collate/stage"
	"github.com/ezrec/collate/topology"
)

// lines splits output into result lines and completion lines.
func lines(output string) (results []string, ends []string) {
	for line := range strings.Lines(output) {
		if strings.HasPrefix(line, "result: ") {
			results = append(results, line)
		} else {
			ends = append(ends, line)
		}
	}
	slices.Sort(ends)
	return
}

func TestRun_MatchesNetwork(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	for capacity := 1; capacity <= 5; capacity++ {
		topo := topology.Reference()
		topo.Capacity = capacity

		coop := &bytes.Buffer{}
		nw, err := network.NewNetwork(topo, coop)
		require.NoError(err)
		require.NoError(nw.Run(context.Background()))

		out := &bytes.Buffer{}
		results, err := Run(context.Background(), topo, out)
		assert.NoError(err)
		assert.Equal(nw.Results(), results)

		wantResults, wantEnds := lines(coop.String())
		gotResults, gotEnds := lines(out.String())
		assert.Equal(wantResults, gotResults)
		assert.Equal(wantEnds, gotEnds)
	}
}

func TestRun_EmptyGroup(t *testing.T) {
	assert := assert.New(t)

	topo := topology.Topology{
		Capacity: 2,
		Groups:   3,
		Data:     append(topology.Group(1, 1), topology.Group(3, 5)...),
	}

	results, err := Run(context.Background(), topo, nil)
	assert.NoError(err)
	assert.Equal([]record.Record{1, 0x1001, 2, 3, 0x3005}, results)
}

func TestRun_StrayKey(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		Data     []record.Record
		Trailing bool
	}{
		{Data: []record.Record{0x1001, 0x4001, 0x2001}, Trailing: true},
		{Data: []record.Record{0x1001, 0x2001, 0x3001, 0x4001}, Trailing: true},
		{Data: []record.Record{0x2001, 0x1001}},
	}

	for n, entry := range table {
		topo := topology.Topology{Capacity: 1, Groups: 3, Data: entry.Data}

		results, err := Run(context.Background(), topo, nil)
		assert.ErrorIs(err, stage.ErrOrderingViolation, n)
		assert.Nil(results, n)

		var eo *stage.ErrOrdering
		if assert.ErrorAs(err, &eo, n) {
			assert.Equal(entry.Trailing, eo.Trailing, n)
		}
	}
}

func TestRun_Invalid(t *testing.T) {
	assert := assert.New(t)

	_, err := Run(context.Background(), topology.Topology{Capacity: 0}, nil)
	assert.ErrorIs(err, topology.ErrInvalidTopology)
}

func TestRun_Canceled(t *testing.T) {
	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered sends cannot complete without a reader, so every stage
	// observes the cancellation.
	a := make(chan record.Record)
	err := Headers(ctx, 3, a, &bytes.Buffer{})
	assert.ErrorIs(err, context.Canceled)

	_, err = Sink(ctx, make(chan record.Record), &bytes.Buffer{})
	assert.ErrorIs(err, context.Canceled)
}

func TestCollate_Direct(t *testing.T) {
	assert := assert.New(t)

	headers := make(chan record.Record, 3)
	data := make(chan record.Record, 3)
	out := make(chan record.Record, 8)

	headers <- 1
	headers <- 2
	headers <- record.Sentinel
	data <- 0x2001
	data <- 0x2002
	close(data)

	buf := &bytes.Buffer{}
	err := Collate(context.Background(), headers, data, out, buf)
	assert.NoError(err)
	close(out)

	assert.Equal([]record.Record{1, 2, 0x2001, 0x2002, record.Sentinel}, slices.Collect(func(yield func(record.Record) bool) {
		for value := range out {
			if !yield(value) {
				return
			}
		}
	}))
	assert.Equal("end collate\n", buf.String())
}
