package topology

import (
	"errors"

	"github.com/ezrec/collate/translate"
)

var f = translate.From

var (
	ErrInvalidTopology = errors.New(f("invalid topology"))
)

// ErrScript reports a failure evaluating a topology script.
type ErrScript struct {
	Filename string
	Err      error
}

func (err *ErrScript) Error() string {
	return f("%v: %v", err.Filename, err.Err)
}

func (err *ErrScript) Unwrap() error {
	return err.Err
}
