package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyProject    = "project"
	KeyTrigger    = "trigger"
	KeyCondition  = "build_condition"
	KeyRequestID  = "request_id"
	KeyJobID      = "job_id"
	KeyJobStatus  = "job_status"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyWorker     = "worker"
	KeySubject    = "subject"
	KeyDurationMS = "duration_ms"
	KeyViolations = "violations"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Project(name string) slog.Attr   { return slog.String(KeyProject, name) }
func Trigger(name string) slog.Attr   { return slog.String(KeyTrigger, name) }
func Condition(c string) slog.Attr    { return slog.String(KeyCondition, c) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func JobStatus(s string) slog.Attr    { return slog.String(KeyJobStatus, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Worker(w string) slog.Attr       { return slog.String(KeyWorker, w) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Violations(n int) slog.Attr      { return slog.Int(KeyViolations, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
