package log

import (
	"sort"
	"time"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldRecordID   = "record_id"
	FieldDay        = "day"
	FieldAttend     = "attend"
	FieldLeave      = "leave"
	FieldRangeKey   = "range_key"
	FieldExportRef  = "export_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentCache    = "cache"
	ComponentSecurity = "security"
	ComponentBackend  = "backend"
	ComponentCLI      = "cli"
)

// Operations on the ledger and around it
const (
	OpClockIn  = "clock_in"
	OpClockOut = "clock_out"
	OpBackfill = "backfill"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpRepair   = "repair"
	OpRead     = "read"
	OpExport   = "export"
	OpProfile  = "profile"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields is a builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the identifying fields of an attendance record. A zero
// leave is logged as an empty string.
func (f LogFields) WithRecord(id, day string, attend, leave time.Time) LogFields {
	f[FieldRecordID] = id
	f[FieldDay] = day
	f[FieldAttend] = attend.Format("2006-01-02 15:04")
	if leave.IsZero() {
		f[FieldLeave] = ""
	} else {
		f[FieldLeave] = leave.Format("2006-01-02 15:04")
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts the fields to slog key/value pairs, sorted by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
