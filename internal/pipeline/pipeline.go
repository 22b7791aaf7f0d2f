package pipeline

import (
	"context"
	"fmt"

	"lightbox/internal/batch"
)

// Result is the opaque outcome of processing one item. The engine never
// inspects Detail; it is carried for the application's benefit.
type Result struct {
	Path   string
	Detail map[string]string
}

// ItemProcessor is the per-item pipeline supplied by the surrounding
// application. Process blocks for the duration of the item's analysis; a
// returned error marks the item failed without aborting the rest of its batch.
type ItemProcessor interface {
	Process(ctx context.Context, path string) (Result, error)
}

// Func adapts a plain function to ItemProcessor.
type Func func(ctx context.Context, path string) (Result, error)

// Process implements ItemProcessor.
func (f Func) Process(ctx context.Context, path string) (Result, error) {
	return f(ctx, path)
}

// Map routes each job type to its pipeline. A nil entry or missing type
// falls back to Default.
type Map struct {
	Default ItemProcessor
	ByType  map[batch.JobType]ItemProcessor
}

// Resolve returns the pipeline for a job type.
func (m Map) Resolve(jobType batch.JobType) (ItemProcessor, error) {
	if proc, ok := m.ByType[jobType]; ok && proc != nil {
		return proc, nil
	}
	if m.Default != nil {
		return m.Default, nil
	}
	return nil, fmt.Errorf("no pipeline registered for job type %q", jobType)
}
