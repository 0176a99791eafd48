// Package channel provides the bounded record FIFO that connects two stages
// of the collate network.
//
// A Bounded channel has exactly one writer stage and one reader stage. It
// never blocks: a Put on a full channel returns ErrChannelFull and a Get on
// an empty channel returns ErrChannelEmpty, leaving the channel untouched.
// The caller is expected to suspend and retry the same call later.
package channel

import (
	"iter"

	"github.com/ezrec/collate/record"
)

const (
	// CAPACITY_DEFAULT is the capacity used when none is configured.
	CAPACITY_DEFAULT = 5
)

// Observer receives channel events, eg for metrics export.
type Observer interface {
	// Put is called after a record is added; size is the new fill level.
	Put(name string, size int)
	// Get is called after a record is removed; size is the new fill level.
	Get(name string, size int)
	// Stall is called when a Put (full is true) or Get is deferred.
	Stall(name string, full bool)
}

// Stats are the counters kept by every channel.
type Stats struct {
	Puts        int // Records written.
	Gets        int // Records read.
	FullStalls  int // Puts deferred on a full channel.
	EmptyStalls int // Gets deferred on an empty channel.
	HighWater   int // Largest fill level observed.
}

// Bounded is a fixed capacity circular buffer of records.
type Bounded struct {
	Name     string
	Capacity int
	Observer Observer // Optional.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []record.Record
	Closed     bool

	Stats Stats
}

// NewBounded creates an empty channel.
func NewBounded(name string, capacity int) (ch *Bounded) {
	ch = &Bounded{
		Name:     name,
		Capacity: capacity,
	}

	ch.Rewind()

	return
}

// Rewind resets the channel to empty and open, and clears its statistics.
func (ch *Bounded) Rewind() {
	if ch.Capacity <= 0 {
		ch.Capacity = CAPACITY_DEFAULT
	}

	ch.ReadIndex = 0
	ch.WriteIndex = 0
	ch.Size = 0
	ch.Data = make([]record.Record, ch.Capacity)
	ch.Closed = false
	ch.Stats = Stats{}
}

// Len returns the number of records available to read.
func (ch *Bounded) Len() int {
	return ch.Size
}

// Free returns the number of slots available to write.
func (ch *Bounded) Free() int {
	return ch.Capacity - ch.Size
}

// Put appends a record at the write position.
// Returns ErrChannelFull if there is no free slot, and ErrChannelClosed if
// the writer has already closed the channel.
func (ch *Bounded) Put(value record.Record) (err error) {
	if ch.Closed {
		err = ErrChannelClosed
		return
	}

	if ch.Size >= ch.Capacity {
		ch.Stats.FullStalls++
		if ch.Observer != nil {
			ch.Observer.Stall(ch.Name, true)
		}
		err = ErrChannelFull
		return
	}

	ch.Data[ch.WriteIndex] = value

	ch.WriteIndex++
	if ch.WriteIndex == ch.Capacity {
		ch.WriteIndex = 0
	}
	ch.Size++

	ch.Stats.Puts++
	ch.Stats.HighWater = max(ch.Stats.HighWater, ch.Size)
	if ch.Observer != nil {
		ch.Observer.Put(ch.Name, ch.Size)
	}

	return
}

// Get removes the oldest record.
// Returns ErrChannelEmpty if nothing is available, or ErrChannelClosed if
// nothing is available and the writer closed the channel.
func (ch *Bounded) Get() (value record.Record, err error) {
	if ch.Size == 0 {
		if ch.Closed {
			err = ErrChannelClosed
			return
		}
		ch.Stats.EmptyStalls++
		if ch.Observer != nil {
			ch.Observer.Stall(ch.Name, false)
		}
		err = ErrChannelEmpty
		return
	}

	value = ch.Data[ch.ReadIndex]

	ch.ReadIndex++
	if ch.ReadIndex == ch.Capacity {
		ch.ReadIndex = 0
	}
	ch.Size--

	ch.Stats.Gets++
	if ch.Observer != nil {
		ch.Observer.Get(ch.Name, ch.Size)
	}

	return
}

// Close marks the end of the writer's stream. Records already in flight can
// still be read.
func (ch *Bounded) Close() {
	ch.Closed = true
}

// Receive returns an iterator that consumes records until the channel is
// empty.
func (ch *Bounded) Receive() iter.Seq[record.Record] {
	return func(yield func(value record.Record) bool) {
		for ch.Size > 0 {
			value, err := ch.Get()
			if err != nil {
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}
