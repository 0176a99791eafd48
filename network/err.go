package network

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ezrec/collate/translate"
)

var f = translate.From

var (
	ErrDeadlock  = errors.New(f("deadlock: no stage can make progress"))
	ErrTickLimit = errors.New(f("tick limit exceeded"))
)

// ErrTick indicates the run, tick and stage of a failure.
type ErrTick struct {
	ID    uuid.UUID
	Tick  int
	Stage string // Empty for scheduler failures.
	Err   error
}

func (err *ErrTick) Error() string {
	if err.Stage == "" {
		return f("run %v tick %d: %v", err.ID, err.Tick, err.Err)
	}
	return f("run %v tick %d %v: %v", err.ID, err.Tick, err.Stage, err.Err)
}

func (err *ErrTick) Unwrap() error {
	return err.Err
}
