// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package record defines the integer records exchanged by the collate
// network's stages.
//
// Header and data records share one representation. A data record carries a
// key in bits 12..15 and a payload in bits 0..11. A header is a small
// positive key, so its upper nibble is zero. The sentinel marks the end of a
// stream.
package record

import (
	"fmt"
)

// Record is a single value on a channel.
type Record int

const (
	KEY_SHIFT    = 12     // Bit position of the data key.
	KEY_MASK     = 0xf    // Mask of the data key, after shifting.
	KEY_MAX      = 15     // Largest data key.
	PAYLOAD_MASK = 0x0fff // Mask of the data payload.

	Sentinel = Record(-1) // End of stream.
)

// MakeHeader creates a header record for a key.
func MakeHeader(key int) Record {
	return Record(key)
}

// MakeData creates a data record from a key and a payload.
func MakeData(key int, payload int) Record {
	return Record(((key & KEY_MASK) << KEY_SHIFT) | (payload & PAYLOAD_MASK))
}

// IsSentinel returns true for the end of stream marker.
func (r Record) IsSentinel() bool {
	return r == Sentinel
}

// IsHeader returns true if the record is a header, ie has a zero key nibble.
func (r Record) IsHeader() bool {
	return !r.IsSentinel() && r.Key() == 0
}

// Key returns the data key nibble.
func (r Record) Key() int {
	return int(r>>KEY_SHIFT) & KEY_MASK
}

// Payload returns the data payload bits.
func (r Record) Payload() int {
	return int(r) & PAYLOAD_MASK
}

// String renders the record as it appears on the result output.
func (r Record) String() string {
	switch {
	case r.IsSentinel():
		return "Sentinel"
	case r.IsHeader():
		return fmt.Sprintf("Header %d", int(r))
	default:
		return fmt.Sprintf("Data %d %d", r.Key(), r.Payload())
	}
}
