package batch

import "errors"

var (
	// ErrNotFound is returned when a job id is not present in the registry.
	ErrNotFound = errors.New("job not found")

	// ErrNotCancellable is returned when cancellation is requested for a job
	// that is no longer pending. Once claimed, a job runs to completion.
	ErrNotCancellable = errors.New("job is not pending and cannot be cancelled")

	// ErrShuttingDown is returned for submissions and claims after Shutdown
	// has begun.
	ErrShuttingDown = errors.New("processor is shutting down")

	// ErrInvalidTransition is returned when an operation targets a job whose
	// status does not permit it.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrProgressOverflow is returned when a progress update would push
	// processed+failed past the job's total item count.
	ErrProgressOverflow = errors.New("progress update exceeds total items")
)
