package batch

import (
	"strings"
	"time"
)

// JobType identifies which external pipeline a job's items are routed to.
type JobType string

const (
	JobTypeImageProcessing   JobType = "image_processing"
	JobTypeFaceDetection     JobType = "face_detection"
	JobTypeObjectDetection   JobType = "object_detection"
	JobTypeSmartAlbumRebuild JobType = "smart_album_rebuild"
)

var jobTypeSet = map[JobType]struct{}{
	JobTypeImageProcessing:   {},
	JobTypeFaceDetection:     {},
	JobTypeObjectDetection:   {},
	JobTypeSmartAlbumRebuild: {},
}

// ParseJobType converts a string into a known JobType.
func ParseJobType(value string) (JobType, bool) {
	normalized := JobType(strings.ToLower(strings.TrimSpace(value)))
	_, ok := jobTypeSet[normalized]
	return normalized, ok
}

// Priority orders claim eligibility. Higher values are dequeued first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// String returns the lowercase name used in config and CLI output.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "normal"
	}
}

// ParsePriority converts a string into a known Priority.
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return PriorityLow, true
	case "normal", "":
		return PriorityNormal, true
	case "high":
		return PriorityHigh, true
	case "urgent":
		return PriorityUrgent, true
	default:
		return PriorityNormal, false
	}
}

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status never transitions again except by eviction.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Payload carries the opaque per-type job data. For file batches it is the
// ordered list of paths the worker iterates.
type Payload struct {
	FilePaths []string
	// MaxConcurrentFiles is an advisory hint consumed by the pipeline,
	// never enforced by the registry.
	MaxConcurrentFiles int
}

// Job is one unit of queued batch work.
type Job struct {
	ID       string
	Type     JobType
	Priority Priority
	Status   Status
	Payload  Payload

	Progress       int
	TotalItems     int
	ProcessedItems int
	FailedItems    int
	Errors         []string

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	// EstimatedTimeRemaining is derived from elapsed time and progress.
	// Recomputed on every progress update; not authoritative.
	EstimatedTimeRemaining time.Duration
}

// Clone returns a deep copy safe to hand outside the registry lock.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Payload.FilePaths = append([]string(nil), j.Payload.FilePaths...)
	cp.Errors = append([]string(nil), j.Errors...)
	if j.StartedAt != nil {
		started := *j.StartedAt
		cp.StartedAt = &started
	}
	if j.CompletedAt != nil {
		completed := *j.CompletedAt
		cp.CompletedAt = &completed
	}
	return &cp
}

// recomputeDerived refreshes Progress and EstimatedTimeRemaining from the
// item counters. Progress is floor(100*(processed+failed)/total), clamped.
func (j *Job) recomputeDerived(now time.Time) {
	done := j.ProcessedItems + j.FailedItems
	if j.TotalItems > 0 {
		progress := 100 * done / j.TotalItems
		if progress > 100 {
			progress = 100
		}
		if progress > j.Progress {
			j.Progress = progress
		}
	}

	j.EstimatedTimeRemaining = 0
	if j.Status == StatusRunning && j.StartedAt != nil && done > 0 && done < j.TotalItems {
		elapsed := now.Sub(*j.StartedAt)
		if elapsed > 0 {
			perItem := elapsed / time.Duration(done)
			j.EstimatedTimeRemaining = perItem * time.Duration(j.TotalItems-done)
		}
	}
}

// QueueStats is a snapshot of aggregate registry counts by status.
type QueueStats struct {
	TotalJobs     int
	PendingJobs   int
	RunningJobs   int
	CompletedJobs int
	FailedJobs    int
	CancelledJobs int
}
