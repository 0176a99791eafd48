package stage

import (
	"fmt"
	"io"
	"log"

	"github.com/ezrec/collate/channel"
)

// Stage is a resumable unit of work driven by the scheduler.
type Stage interface {
	// Name of the stage, used in completion lines and diagnostics.
	Name() string
	// Tick resumes the stage from its last suspension point and runs it
	// until it would block on a channel or terminates. Once terminal,
	// further ticks are no-ops that keep reporting done.
	Tick() (done bool, err error)
	// Done returns true once the stage has terminated.
	Done() bool
	// Progress returns the number of steps taken since creation.
	Progress() int
	// SetVerbose enables logging of state transitions and stalls.
	SetVerbose(verbose bool)
}

// Base is the persistent state common to all stages.
type Base struct {
	Verbose bool      // If set, enables verbose logging.
	Output  io.Writer // Completion lines and results. Optional.

	State  State // Resumption point.
	Steps  int   // Steps taken.
	Stalls int   // Ticks that ended on a full or empty channel.
}

// Done returns true once the stage has terminated.
func (b *Base) Done() bool {
	return b.State == STATE_DONE
}

// Progress returns the number of steps taken.
func (b *Base) Progress() int {
	return b.Steps
}

// SetVerbose enables logging of state transitions and stalls.
func (b *Base) SetVerbose(verbose bool) {
	b.Verbose = verbose
}

// goTo moves the resumption point.
func (b *Base) goTo(name string, state State) {
	if b.Verbose {
		log.Printf("%v: %v -> %v", name, b.State, state)
	}
	b.State = state
}

// finish announces termination of the stage.
func (b *Base) finish(name string) {
	if b.Output != nil {
		fmt.Fprintln(b.Output, f("end %v", name))
	}
	b.goTo(name, STATE_DONE)
}

// resume runs step until it reports a flow control deferral, fails, or the
// stage terminates. A deferred step must leave the stage state untouched so
// it is retried unchanged on the next tick.
func (b *Base) resume(name string, step func() error) (done bool, err error) {
	for b.State != STATE_DONE {
		err = step()
		if channel.Deferred(err) {
			b.Stalls++
			if b.Verbose {
				log.Printf("%v: %v: %v", name, b.State, err)
			}
			err = nil
			return
		}
		if err != nil {
			return
		}
		b.Steps++
	}

	done = true
	return
}
