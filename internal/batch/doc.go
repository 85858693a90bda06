// Package batch owns the lifecycle of one conversion batch.
//
// Controller moves a batch through Idle → Preparing → Converting →
// Completed, with Cancelled and Error as the other terminal phases. Submit
// admits files into the current queue (starting a fresh batch after a
// terminal phase), Start launches the scheduler in the background, and the
// settle check that runs after every job settlement flips the batch to
// Completed exactly once.
//
// Cancel swaps in an empty queue with a new session ID. Lanes that were mid
// conversion still report back, but their results carry the old session and
// are dropped, so a cancelled batch never repopulates.
package batch
