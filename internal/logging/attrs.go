package logging

import "log/slog"

type Attr = slog.Attr

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Common field names shared across components so log output stays greppable.
const (
	FieldComponent = "component"
	FieldJobID     = "job_id"
	FieldJobType   = "job_type"
	FieldWorkerID  = "worker_id"
)
