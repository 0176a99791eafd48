package stage

import (
	"github.com/ezrec/collate/channel"
	"github.com/ezrec/collate/record"
)

// DataSource emits a fixed sequence of data records, then closes its
// channel. The sequence is expected to be sorted by key; that is not
// checked here.
type DataSource struct {
	Base
	Out  *channel.Bounded
	Data []record.Record

	Index int // Next record to emit.
}

var _ Stage = (*DataSource)(nil)

// NewDataSource creates a data source writing to out.
func NewDataSource(out *channel.Bounded, data []record.Record) *DataSource {
	return &DataSource{
		Out:  out,
		Data: data,
	}
}

func (ds *DataSource) Name() string {
	return "data"
}

func (ds *DataSource) Tick() (done bool, err error) {
	return ds.resume(ds.Name(), ds.step)
}

func (ds *DataSource) step() (err error) {
	switch ds.State {
	case STATE_START:
		ds.Index = 0
		ds.goTo(ds.Name(), STATE_EMIT_DATA)
	case STATE_EMIT_DATA:
		if ds.Index >= len(ds.Data) {
			ds.goTo(ds.Name(), STATE_CLOSE)
			return
		}
		err = ds.Out.Put(ds.Data[ds.Index])
		if err != nil {
			return
		}
		ds.Index++
	case STATE_CLOSE:
		ds.Out.Close()
		ds.finish(ds.Name())
	default:
		panic(f("data: bad state %v", ds.State))
	}

	return
}
