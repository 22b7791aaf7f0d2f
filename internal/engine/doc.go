// Package engine is the composition root of the batch platform: it owns the
// catalog, the job registry, the scanner, and the worker pool, and wires
// progress updates to push notifications. The registry is an explicitly
// constructed instance passed by handle to every collaborator; there is no
// process-global state. A flock-based lock enforces single-instance
// execution per data directory.
package engine
