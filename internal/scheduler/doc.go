// Package scheduler drains a job queue with a bounded pool of lanes.
//
// Run spawns K lanes (K = LaneCount of the configured parallelism, 1..6). Each
// lane loops: check the cancellation flag, pop the oldest pending job, yield
// briefly, invoke the conversion primitive, and write the outcome back to the
// queue before popping again. A lane exits when no pending job remains, so Run
// returns once every lane is idle and nothing is mid-conversion.
//
// Primitive failures, panics, and per-job timeouts become Failed jobs; they
// never stop other lanes. Cancel only stops new pops. Conversions already in
// flight finish (or hit their context) and report to the queue they came from,
// which the batch controller may already have discarded.
package scheduler
