package channel

import (
	"errors"

	"github.com/ezrec/collate/translate"
)

var f = translate.From

var (
	// Flow control. A stage that sees one of these suspends and retries.
	ErrChannelFull  = errors.New(f("channel full"))
	ErrChannelEmpty = errors.New(f("channel empty"))

	// End of stream.
	ErrChannelClosed = errors.New(f("channel closed"))
)

// Deferred returns true if err is a flow control deferral rather than a
// failure.
func Deferred(err error) bool {
	return errors.Is(err, ErrChannelFull) || errors.Is(err, ErrChannelEmpty)
}
