// Package batch owns the in-memory job registry at the heart of the
// processing engine. The Processor is the single source of truth for every
// job: it enforces priority ordering and status transitions, aggregates
// progress, evicts old terminal jobs, and fans updates out to subscribers.
// All mutation flows through the Processor under one mutex so that two
// workers can never claim the same job.
package batch
