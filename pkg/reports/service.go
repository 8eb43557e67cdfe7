// Package reports holds one query service per reporting domain.
//
// Every report is a definition that pairs a query template with the row
// shape of its records and the filters it echoes back. Running a report
// validates the filters, acquires a session, streams and maps the rows,
// and releases the session before the envelope is returned:
//
//	svc := reports.NewService(mgr, reports.WithLogger(logger))
//	env, err := svc.OpenOrderLines(ctx, reports.OpenOrderLinesParams{DC: 84})
//
// Filter validation happens before a session is acquired, so an invalid
// request never touches the database.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atdtech/dcdash"
	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/rowmap"
	"github.com/atdtech/dcdash/pkg/session"
)

// Sessions hands out ready sessions. *session.Manager implements it.
type Sessions interface {
	WithSession(ctx context.Context, fn func(*session.Session) error) error
	Config() session.Config
}

var _ Sessions = (*session.Manager)(nil)

// Recorder observes finished report runs. err is nil on success.
type Recorder interface {
	ReportCompleted(report string, rows int, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ReportCompleted(string, int, time.Duration, error) {}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for report events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder registers an observer for finished runs.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Service runs reports. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	sessions Sessions
	logger   *slog.Logger
	recorder Recorder
}

// NewService creates a Service drawing sessions from sessions.
func NewService(sessions Sessions, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		logger:   slog.New(slog.DiscardHandler),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the named report with caller filters. It serves callers
// that hold untyped input, such as the HTTP and CLI layers; the typed
// methods are thin wrappers over the same path.
func (s *Service) Run(ctx context.Context, name string, fs query.FilterSet) (Result, error) {
	r, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown report %q", dcdash.ErrInvalidFilter, name)
	}
	return r.run(ctx, s, fs)
}

// definition binds a template to the record shape its rows map into.
type definition[T any] struct {
	tmpl  query.Template
	shape rowmap.Shape[T]
	// echo lists the filters copied into the envelope. An absent filter
	// is echoed as null.
	echo []string
}

func (d definition[T]) name() string { return d.tmpl.ID }

func (d definition[T]) template() query.Template { return d.tmpl }

func (d definition[T]) run(ctx context.Context, s *Service, fs query.FilterSet) (Result, error) {
	env, err := d.execute(ctx, s, fs)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// execute is the whole life of one report invocation.
func (d definition[T]) execute(ctx context.Context, s *Service, fs query.FilterSet) (Envelope[T], error) {
	start := time.Now()
	log := s.logger.With("request_id", dcdash.RequestID(ctx), "report", d.tmpl.ID)

	spec, err := query.Build(d.tmpl, fs)
	if err != nil {
		log.Warn("report rejected", "error", err)
		s.recorder.ReportCompleted(d.tmpl.ID, 0, time.Since(start), err)
		return Envelope[T]{}, err
	}
	log.Info("report started", "filters", spec.Params)

	var data []T
	err = s.sessions.WithSession(ctx, func(sess *session.Session) error {
		rows, err := sess.Query(ctx, spec)
		if err != nil {
			return err
		}
		data, err = rowmap.MapAll(d.shape, rowmap.Rows(rows))
		return err
	})
	elapsed := time.Since(start)
	if err != nil {
		s.recorder.ReportCompleted(d.tmpl.ID, 0, elapsed, err)
		log.Error("report failed", "elapsed", elapsed, "error", err)
		return Envelope[T]{}, err
	}

	s.recorder.ReportCompleted(d.tmpl.ID, len(data), elapsed, nil)
	log.Info("report completed", "rows", len(data), "elapsed", elapsed)

	params := make(map[string]any, len(d.echo))
	for _, name := range d.echo {
		params[name] = spec.Params[name]
	}
	return Envelope[T]{Data: data, Total: len(data), Params: params}, nil
}

// runner is the type-erased view of a definition kept in the registry.
type runner interface {
	name() string
	template() query.Template
	run(ctx context.Context, s *Service, fs query.FilterSet) (Result, error)
}
