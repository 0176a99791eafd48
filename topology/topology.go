// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package topology holds the constants of a collate network: the channel
// capacity, the number of header groups, and the data record sequence.
package topology

import (
	"fmt"
	"slices"

	"github.com/ygrebnov/errorc"

	"github.com/ezrec/collate/internal"
	"github.com/ezrec/collate/record"
)

const (
	CAPACITY_DEFAULT = 5 // Reference channel capacity.
	GROUPS_DEFAULT   = 3 // Reference number of header groups.
)

// Topology is the compiled-in configuration of a network.
type Topology struct {
	Capacity int             // Capacity of each channel.
	Groups   int             // Header keys are 1..Groups.
	Data     []record.Record // Data records, expected sorted by key.
}

// Group returns the data records for key, one per payload.
func Group(key int, payloads ...int) []record.Record {
	return slices.Collect(internal.IterSeqMap(slices.Values(payloads), func(payload int) record.Record {
		return record.MakeData(key, payload)
	}))
}

// Reference returns the reference topology: three groups of nine, three,
// and ten records through channels of five.
func Reference() Topology {
	return Topology{
		Capacity: CAPACITY_DEFAULT,
		Groups:   GROUPS_DEFAULT,
		Data: slices.Collect(internal.IterSeqConcat(
			slices.Values(Group(1, 1, 2, 3, 4, 5, 6, 7, 8, 9)),
			slices.Values(Group(2, 6, 7, 8)),
			slices.Values(Group(3, 1, 2, 3, 4, 5, 6, 7, 8, 9, 0)),
		)),
	}
}

// Validate checks the ranges of the topology constants. The data ordering is
// not checked; the collator enforces it while running.
func (topo Topology) Validate() (err error) {
	if topo.Capacity < 1 {
		return errorc.With(ErrInvalidTopology, errorc.String("capacity", fmt.Sprint(topo.Capacity)))
	}

	if topo.Groups < 0 || topo.Groups > record.KEY_MAX {
		return errorc.With(ErrInvalidTopology, errorc.String("groups", fmt.Sprint(topo.Groups)))
	}

	for n, value := range topo.Data {
		if value < 0 || value > 0xffff || value.Key() == 0 {
			return errorc.With(ErrInvalidTopology,
				errorc.String("data", fmt.Sprintf("[%d] 0x%x", n, int(value))))
		}
	}

	return
}

// Items returns the number of records the network moves end to end,
// including the sentinels.
func (topo Topology) Items() int {
	return topo.Groups + 1 + len(topo.Data)
}
