package stage

// State is the resumption point of a stage.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_START         = State(iota) // start
	STATE_EMIT_KEY                    // emit-key
	STATE_EMIT_SENTINEL               // emit-sentinel
	STATE_EMIT_DATA                   // emit-data
	STATE_CLOSE                       // close
	STATE_GET_KEY                     // get-key
	STATE_PUT_HEADER                  // put-header
	STATE_PUT_PENDING                 // put-pending
	STATE_GET_DATA                    // get-data
	STATE_PUT_DATA                    // put-data
	STATE_DRAIN                       // drain
	STATE_PUT_SENTINEL                // put-sentinel
	STATE_GET_RESULT                  // get-result
	STATE_DONE                        // done
)
