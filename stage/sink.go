package stage

import (
	"fmt"

	"github.com/ezrec/collate/channel"
	"github.com/ezrec/collate/record"
)

// Sink drains the merged stream until the sentinel, rendering each record.
type Sink struct {
	Base
	In *channel.Bounded

	Results []record.Record // Records received, in order.
}

var _ Stage = (*Sink)(nil)

// NewSink creates a sink reading from in.
func NewSink(in *channel.Bounded) *Sink {
	return &Sink{
		In: in,
	}
}

func (sk *Sink) Name() string {
	return "sink"
}

func (sk *Sink) Tick() (done bool, err error) {
	return sk.resume(sk.Name(), sk.step)
}

func (sk *Sink) step() (err error) {
	switch sk.State {
	case STATE_START:
		sk.Results = nil
		sk.goTo(sk.Name(), STATE_GET_RESULT)
	case STATE_GET_RESULT:
		var value record.Record
		value, err = sk.In.Get()
		if err != nil {
			return
		}
		if value.IsSentinel() {
			sk.finish(sk.Name())
			return
		}
		sk.Results = append(sk.Results, value)
		if sk.Output != nil {
			fmt.Fprintf(sk.Output, "result: %v\n", value)
		}
	default:
		panic(f("sink: bad state %v", sk.State))
	}

	return
}
