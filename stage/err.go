package stage

import (
	"errors"

	"github.com/ezrec/collate/record"
	"github.com/ezrec/collate/translate"
)

var f = translate.From

var (
	// ErrOrderingViolation is the only failure of the network: a data record
	// that cannot belong to the group currently open in the collator.
	ErrOrderingViolation = errors.New(f("ordering violation"))
)

// ErrOrdering describes an ordering violation.
type ErrOrdering struct {
	Header   int           // Header open when the record was seen.
	Record   record.Record // Offending data record.
	Trailing bool          // Record arrived after the last header.
}

func (err *ErrOrdering) Error() string {
	if err.Trailing {
		return f("%v: data key %d has no header", ErrOrderingViolation, err.Record.Key())
	}
	return f("%v: data key %d under header %d", ErrOrderingViolation, err.Record.Key(), err.Header)
}

func (err *ErrOrdering) Unwrap() error {
	return ErrOrderingViolation
}
