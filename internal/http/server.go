package http

import (
	"context"
	"net/http"
	"time"

	"presenze/internal/core"
	"presenze/internal/ledger"
	applog "presenze/internal/log"
	"presenze/internal/middleware/security"
	"presenze/internal/middleware/trace"
	"presenze/internal/report"
	"presenze/internal/services"
)

type (
	// Ledger is everything the API does with the attendance ledger.
	Ledger interface {
		ClockIn(ctx context.Context, now time.Time) (core.Record, error)
		ClockOut(ctx context.Context, id string, now time.Time) (core.Record, error)
		Backfill(ctx context.Context, date, attendTime, leaveTime string) (core.Record, error)
		EditTimes(ctx context.Context, id, attendTime, leaveTime string) (core.Record, error)
		Delete(ctx context.Context, id string) (core.Record, error)
		Repair(ctx context.Context) (ledger.RepairResult, error)
		Records() []core.Record
		ListNewestFirst() []core.Record
		DateBounds() (first, last core.DayKey, ok bool)
		User() string
		SetUser(ctx context.Context, name string) (string, error)
		Rules() core.ShiftRules
		Location() *time.Location
		Now() time.Time
	}

	// Exporter previews and delivers range exports.
	Exporter interface {
		Preview(ctx context.Context, req services.ExportRequest) (report.Sheet, error)
		Export(ctx context.Context, req services.ExportRequest) (services.ExportResult, error)
	}

	// ReadyCheck reports whether a dependency can serve traffic.
	ReadyCheck func(ctx context.Context) error
)

type Server struct {
	http.Server
	ledger    Ledger
	exports   Exporter
	checks    map[string]ReadyCheck
	logger    *applog.Logger
	startedAt time.Time
}

type Option func(*Server)

// WithReadyCheck adds a named dependency probe to /readyz.
func WithReadyCheck(name string, check ReadyCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

func WithLogger(logger *applog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer builds the API server listening on addr.
func NewServer(addr string, l Ledger, exports Exporter, opts ...Option) *Server {
	s := &Server{
		ledger:    l,
		exports:   exports,
		checks:    make(map[string]ReadyCheck),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/records", s.handleListRecords)
	mux.HandleFunc("POST /api/records", s.handleBackfill)
	mux.HandleFunc("PATCH /api/records/{id}", s.handleEditRecord)
	mux.HandleFunc("DELETE /api/records/{id}", s.handleDeleteRecord)
	mux.HandleFunc("POST /api/records/{id}/clock-out", s.handleClockOut)
	mux.HandleFunc("POST /api/clock-in", s.handleClockIn)
	mux.HandleFunc("POST /api/repair", s.handleRepair)

	mux.HandleFunc("GET /api/months/recent", s.handleRecentMonths)
	mux.HandleFunc("GET /api/months/{year}/{month}", s.handleMonth)

	mux.HandleFunc("GET /api/export/options", s.handleExportOptions)
	mux.HandleFunc("GET /api/export/bounds", s.handleExportBounds)
	mux.HandleFunc("GET /api/export/rows", s.handleExportRows)
	mux.HandleFunc("POST /api/export", s.handleExport)

	mux.HandleFunc("GET /api/user", s.handleGetUser)
	mux.HandleFunc("PUT /api/user", s.handlePutUser)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = headers.Middleware(h)
	h = applog.AccessLog(h)
	h = applog.RequestIDMiddleware(trace.FromRequest)(h)
	h = applog.Middleware(s.logger)(h)
	h = trace.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"ledger": "ok"}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// fail writes err as a response, logging the ones that end up as a 5xx.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, nil)
	}
	resp.Write(w)
}
