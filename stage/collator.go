package stage

import (
	"cmp"
	"errors"

	"github.com/ezrec/collate/channel"
	"github.com/ezrec/collate/record"
)

// Collator merges the header stream with the data stream. Each header is
// followed on the output by the run of data records sharing its key.
//
// Channels offer no peek, so the first record of the next group is held in
// the Pending lookahead cell until its header arrives.
type Collator struct {
	Base
	Headers *channel.Bounded // Header keys, sentinel terminated.
	Data    *channel.Bounded // Data records, closed at end of data.
	Out     *channel.Bounded // Merged output, sentinel terminated.

	Key        int           // Header of the open group.
	Record     record.Record // Data record waiting to be emitted.
	Pending    record.Record // Lookahead cell.
	HasPending bool          // Pending holds a record.
	Exhausted  bool          // Data is closed and drained.
}

var _ Stage = (*Collator)(nil)

// NewCollator creates a collator from headers and data into out.
func NewCollator(headers, data, out *channel.Bounded) *Collator {
	return &Collator{
		Headers: headers,
		Data:    data,
		Out:     out,
	}
}

func (co *Collator) Name() string {
	return "collate"
}

func (co *Collator) Tick() (done bool, err error) {
	return co.resume(co.Name(), co.step)
}

// getData reads the next data record, noting the end of the data stream.
func (co *Collator) getData() (value record.Record, ok bool, err error) {
	value, err = co.Data.Get()
	if errors.Is(err, channel.ErrChannelClosed) {
		co.Exhausted = true
		err = nil
		return
	}
	ok = err == nil
	return
}

func (co *Collator) step() (err error) {
	switch co.State {
	case STATE_START:
		co.Key = 0
		co.HasPending = false
		co.Exhausted = false
		co.goTo(co.Name(), STATE_GET_KEY)
	case STATE_GET_KEY:
		var value record.Record
		value, err = co.Headers.Get()
		if err != nil {
			return
		}
		if value.IsSentinel() {
			co.goTo(co.Name(), STATE_DRAIN)
			return
		}
		co.Key = int(value)
		co.goTo(co.Name(), STATE_PUT_HEADER)
	case STATE_PUT_HEADER:
		err = co.Out.Put(record.MakeHeader(co.Key))
		if err != nil {
			return
		}
		switch {
		case !co.HasPending:
			if co.Exhausted {
				co.goTo(co.Name(), STATE_GET_KEY)
			} else {
				co.goTo(co.Name(), STATE_GET_DATA)
			}
		case co.Pending.Key() == co.Key:
			co.goTo(co.Name(), STATE_PUT_PENDING)
		case co.Pending.Key() > co.Key:
			// No records for this group; the lookahead waits for its own header.
			co.goTo(co.Name(), STATE_GET_KEY)
		default:
			err = &ErrOrdering{Header: co.Key, Record: co.Pending}
		}
	case STATE_PUT_PENDING:
		err = co.Out.Put(co.Pending)
		if err != nil {
			return
		}
		co.HasPending = false
		co.goTo(co.Name(), STATE_GET_DATA)
	case STATE_GET_DATA:
		var value record.Record
		var ok bool
		value, ok, err = co.getData()
		if err != nil {
			return
		}
		if !ok {
			co.goTo(co.Name(), STATE_GET_KEY)
			return
		}
		switch cmp.Compare(value.Key(), co.Key) {
		case 0:
			co.Record = value
			co.goTo(co.Name(), STATE_PUT_DATA)
		case 1:
			co.Pending = value
			co.HasPending = true
			co.goTo(co.Name(), STATE_GET_KEY)
		default:
			err = &ErrOrdering{Header: co.Key, Record: value}
		}
	case STATE_PUT_DATA:
		err = co.Out.Put(co.Record)
		if err != nil {
			return
		}
		co.goTo(co.Name(), STATE_GET_DATA)
	case STATE_DRAIN:
		// Every data record must have been claimed by a header.
		if co.HasPending {
			err = &ErrOrdering{Header: co.Key, Record: co.Pending, Trailing: true}
			return
		}
		if co.Exhausted {
			co.goTo(co.Name(), STATE_PUT_SENTINEL)
			return
		}
		var value record.Record
		var ok bool
		value, ok, err = co.getData()
		if err != nil {
			return
		}
		if ok {
			err = &ErrOrdering{Header: co.Key, Record: value, Trailing: true}
		}
	case STATE_PUT_SENTINEL:
		err = co.Out.Put(record.Sentinel)
		if err != nil {
			return
		}
		co.finish(co.Name())
	default:
		panic(f("collate: bad state %v", co.State))
	}

	return
}
