// Package stage implements the four cooperating stages of the collate
// network: the header source, the data source, the collator and the sink.
//
// Each stage is an explicit state machine. Its resumption point (State) and
// its loop-carried values are fields of the stage, so a stage can suspend in
// the middle of a loop when a channel is full or empty, and continue from
// exactly that point on its next Tick. A Tick never blocks.
package stage
