package stage

import (
	"github.com/ezrec/collate/channel"
	"github.com/ezrec/collate/record"
)

// HeaderSource emits the keys 1..Groups, then the sentinel.
type HeaderSource struct {
	Base
	Out    *channel.Bounded
	Groups int

	Key int // Next key to emit.
}

var _ Stage = (*HeaderSource)(nil)

// NewHeaderSource creates a header source writing to out.
func NewHeaderSource(out *channel.Bounded, groups int) *HeaderSource {
	return &HeaderSource{
		Out:    out,
		Groups: groups,
	}
}

func (hs *HeaderSource) Name() string {
	return "header"
}

func (hs *HeaderSource) Tick() (done bool, err error) {
	return hs.resume(hs.Name(), hs.step)
}

func (hs *HeaderSource) step() (err error) {
	switch hs.State {
	case STATE_START:
		hs.Key = 1
		hs.goTo(hs.Name(), STATE_EMIT_KEY)
	case STATE_EMIT_KEY:
		if hs.Key > hs.Groups {
			hs.goTo(hs.Name(), STATE_EMIT_SENTINEL)
			return
		}
		err = hs.Out.Put(record.MakeHeader(hs.Key))
		if err != nil {
			return
		}
		hs.Key++
	case STATE_EMIT_SENTINEL:
		err = hs.Out.Put(record.Sentinel)
		if err != nil {
			return
		}
		hs.finish(hs.Name())
	default:
		panic(f("header: bad state %v", hs.State))
	}

	return
}
