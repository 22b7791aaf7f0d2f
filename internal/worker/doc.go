// Package worker drains the batch processor. Each Worker runs a claim loop
// in its own goroutine: claim the most eligible pending job, drive the
// external pipeline over every item, report per-item progress, and finalize
// the job. Workers are symmetric; a Pool starts a configured number of them
// against one processor.
package worker
