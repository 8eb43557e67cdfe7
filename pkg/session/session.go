// Package session owns the database connection lifecycle of a report.
//
// Every Session is one connection on which the EBS session context has
// already been set: Acquire connects, runs the setup block and only then
// hands the Session out. A connection whose setup failed is discarded,
// never returned. WithSession binds acquire, use and release together so
// the release runs on every exit path.
package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	// Oracle driver, registered as "oracle".
	_ "github.com/sijms/go-ora/v2"

	"github.com/atdtech/dcdash"
	"github.com/atdtech/dcdash/pkg/query"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sql.Open function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver registers an observer for lifecycle events.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// Manager hands out Sessions. It is safe for concurrent use; the *sql.DB
// and the config are the only state shared between sessions.
type Manager struct {
	db       *sql.DB
	cfg      Config
	setupSQL string
	logger   *slog.Logger
	observer Observer

	acquired      atomic.Int64
	released      atomic.Int64
	connectFailed atomic.Int64
	setupFailed   atomic.Int64
}

// Open validates cfg and prepares the connection handle. No connection is
// made until the first Acquire or Ping.
func Open(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	openMu.Lock()
	db, err := sqlOpen(DefaultDriver, cfg.DSN)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", dcdash.ErrConnection, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	m := &Manager{
		db:       db,
		cfg:      cfg,
		setupSQL: cfg.SetupSQL(),
		logger:   slog.New(slog.DiscardHandler),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Acquire connects and runs the setup block. On any failure no Session is
// returned and the connection, if one was made, is discarded. Errors wrap
// dcdash.ErrConnection or dcdash.ErrSessionSetup.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	log := m.logger.With("request_id", dcdash.RequestID(ctx))

	setupCtx := ctx
	if m.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		setupCtx, cancel = context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		defer cancel()
	}

	log.Info("connecting to oracle", "target", m.cfg.Target)
	conn, err := m.db.Conn(setupCtx)
	if err != nil {
		m.connectFailed.Add(1)
		m.observer.SessionFailed(StageConnect)
		log.Error("oracle connection failed", "target", m.cfg.Target, "ora_code", dcdash.OracleCode(err), "error", err)
		return nil, fmt.Errorf("%w: %w", dcdash.ErrConnection, err)
	}

	if _, err := conn.ExecContext(setupCtx, m.setupSQL); err != nil {
		discard(conn)
		m.setupFailed.Add(1)
		m.observer.SessionFailed(StageSetup)
		log.Error("oracle session setup failed", "schema", m.cfg.schema(), "ora_code", dcdash.OracleCode(err), "error", err)
		return nil, fmt.Errorf("%w: %w", dcdash.ErrSessionSetup, err)
	}

	m.acquired.Add(1)
	m.observer.SessionAcquired()
	log.Info("oracle session context configured", "schema", m.cfg.schema())

	return &Session{
		m:          m,
		conn:       conn,
		log:        log,
		ready:      true,
		acquiredAt: time.Now(),
	}, nil
}

// WithSession acquires a Session, passes it to fn and releases it when fn
// returns, fails or panics. The Session must not escape fn.
func (m *Manager) WithSession(ctx context.Context, fn func(*Session) error) error {
	s, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := s.Release(); relErr != nil {
			s.log.Warn("session release reported an error", "error", relErr)
		}
	}()
	return fn(s)
}

// Ping verifies that the database is reachable without running setup.
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", dcdash.ErrConnection, err)
	}
	return nil
}

// Stats returns the lifetime counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Acquired:      m.acquired.Load(),
		Released:      m.released.Load(),
		ConnectFailed: m.connectFailed.Load(),
		SetupFailed:   m.setupFailed.Load(),
	}
}

// Close closes the underlying handle. Sessions still held are closed as
// they are released.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Session is one ready connection. It belongs to a single unit of work and
// is not safe for concurrent use.
type Session struct {
	m          *Manager
	conn       *sql.Conn
	log        *slog.Logger
	acquiredAt time.Time

	mu       sync.Mutex
	ready    bool
	broken   bool
	released bool
	cancels  []context.CancelFunc
}

// Query runs spec on the session. Engine failures wrap
// dcdash.ErrEngineQuery; cancellation returns the context error.
// The rows must be closed before the session is released.
func (s *Session) Query(ctx context.Context, spec query.QuerySpec) (*sql.Rows, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	qctx := ctx
	if s.m.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, s.m.cfg.QueryTimeout)
		s.mu.Lock()
		s.cancels = append(s.cancels, cancel)
		s.mu.Unlock()
	}

	rows, err := s.conn.QueryContext(qctx, spec.SQL, spec.Args()...)
	if err != nil {
		return nil, s.classify(qctx, spec.Template, err)
	}
	return rows, nil
}

// QueryRow runs a single-row statement, typically a health probe.
func (s *Session) QueryRow(ctx context.Context, text string, args ...any) (*sql.Row, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.conn.QueryRowContext(ctx, text, args...), nil
}

func (s *Session) checkReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready || s.released {
		return dcdash.ErrSessionNotReady
	}
	return nil
}

func (s *Session) classify(ctx context.Context, template string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.log.Warn("query cancelled", "template", template, "error", err)
		return fmt.Errorf("session: %s: %w", template, ctxErr)
	}
	if dcdash.IsCancelled(err) {
		s.log.Warn("query cancelled by server", "template", template, "error", err)
		return fmt.Errorf("session: %s: %w: %w", template, context.Canceled, err)
	}
	code := dcdash.OracleCode(err)
	if dcdash.IsConnectionLoss(err) || errors.Is(err, driver.ErrBadConn) {
		s.mu.Lock()
		s.broken = true
		s.mu.Unlock()
	}
	s.log.Error("query failed", "template", template, "ora_code", code, "error", err)
	return fmt.Errorf("%w: %s: %w", dcdash.ErrEngineQuery, template, err)
}

// Release closes the session. It is safe to call more than once; only the
// first call has an effect.
func (s *Session) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.ready = false
	broken := s.broken
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	var err error
	if broken {
		discard(s.conn)
	} else {
		err = s.conn.Close()
	}

	held := time.Since(s.acquiredAt)
	s.m.released.Add(1)
	s.m.observer.SessionReleased(held)
	s.log.Debug("oracle session released", "held", held)
	return err
}

// discard closes conn and keeps the pool from reusing it.
func discard(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}
