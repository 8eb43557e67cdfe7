// Package sqltest provides an in-process database/sql driver for tests of
// the session and report layers. Every connection it hands out is counted,
// every statement is recorded with its named binds, and query results are
// scripted by substring match.
package sqltest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// Result is a scripted result set.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Statement is one recorded statement.
type Statement struct {
	SQL  string
	Args map[string]any
	Conn int
}

type rule struct {
	contains string
	result   Result
	err      error
}

// Stub is a scripted database. Set the failure fields before the code
// under test runs; they are read under the stub's lock.
type Stub struct {
	mu sync.Mutex

	// ConnectErr fails every new physical connection and ping.
	ConnectErr error
	// ExecErr fails every ExecContext, which is how session setup runs.
	ExecErr error
	// QueryErr fails every QueryContext that no rule matches with an error.
	QueryErr error
	// RowsErr is returned after the last scripted row.
	RowsErr error
	// Block makes QueryContext wait for its context to end.
	Block bool

	rules   []rule
	opens   int
	closes  int
	nextID  int
	execs   []Statement
	queries []Statement
}

var seq atomic.Int64

// New returns an empty stub.
func New() *Stub {
	return &Stub{}
}

// Open registers a fresh driver bound to this stub and opens a *sql.DB on
// it. Its signature matches sql.Open so it can replace the opener used by
// the session package; the driver name and DSN are ignored.
func (s *Stub) Open(_, _ string) (*sql.DB, error) {
	name := fmt.Sprintf("dcdash-stub-%d", seq.Add(1))
	sql.Register(name, &stubDriver{stub: s})
	return sql.Open(name, "stub")
}

// DB opens a *sql.DB on the stub, panicking on failure.
func (s *Stub) DB() *sql.DB {
	db, err := s.Open("", "")
	if err != nil {
		panic(err)
	}
	return db
}

// On scripts the result for queries whose text contains substr. Rules are
// matched in registration order.
func (s *Stub) On(substr string, res Result) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{contains: substr, result: res})
	return s
}

// Fail scripts an error for queries whose text contains substr.
func (s *Stub) Fail(substr string, err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{contains: substr, err: err})
	return s
}

// Set updates failure fields under the stub's lock.
func (s *Stub) Set(fn func(s *Stub)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Opens is the number of physical connections opened.
func (s *Stub) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Closes is the number of physical connections closed.
func (s *Stub) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Execs returns the recorded ExecContext statements.
func (s *Stub) Execs() []Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Statement(nil), s.execs...)
}

// Queries returns the recorded QueryContext statements.
func (s *Stub) Queries() []Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Statement(nil), s.queries...)
}

type stubDriver struct {
	stub *Stub
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	s := d.stub
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}
	s.opens++
	s.nextID++
	return &stubConn{stub: s, id: s.nextID}, nil
}

type stubConn struct {
	stub   *Stub
	id     int
	closed bool
}

// Prepare implements driver.Conn.
func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("sqltest: prepare not supported")
}

// Close implements driver.Conn.
func (c *stubConn) Close() error {
	c.stub.mu.Lock()
	defer c.stub.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.stub.closes++
	}
	return nil
}

// Begin implements driver.Conn.
func (c *stubConn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("sqltest: transactions not supported")
}

// Ping implements driver.Pinger.
func (c *stubConn) Ping(context.Context) error {
	c.stub.mu.Lock()
	defer c.stub.mu.Unlock()
	return c.stub.ConnectErr
}

// CheckNamedValue implements driver.NamedValueChecker so named binds reach
// the stub unchanged.
func (c *stubConn) CheckNamedValue(nv *driver.NamedValue) error {
	if _, ok := nv.Value.(driver.Valuer); ok {
		return driver.ErrSkip
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	s := c.stub
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs = append(s.execs, Statement{SQL: query, Args: namedArgs(args), Conn: c.id})
	if s.ExecErr != nil {
		return nil, s.ExecErr
	}
	return driver.RowsAffected(0), nil
}

// QueryContext implements driver.QueryerContext.
func (c *stubConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	s := c.stub
	s.mu.Lock()
	s.queries = append(s.queries, Statement{SQL: query, Args: namedArgs(args), Conn: c.id})
	block := s.Block
	res, err := s.match(query)
	rowsErr := s.RowsErr
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	values := make([][]driver.Value, len(res.Rows))
	for i, row := range res.Rows {
		vals := make([]driver.Value, len(res.Columns))
		for j := range vals {
			if j < len(row) {
				vals[j] = row[j]
			}
		}
		values[i] = vals
	}
	return &stubRows{cols: res.Columns, rows: values, err: rowsErr}, nil
}

// match must be called with the lock held.
func (s *Stub) match(query string) (Result, error) {
	for _, r := range s.rules {
		if strings.Contains(query, r.contains) {
			return r.result, r.err
		}
	}
	if s.QueryErr != nil {
		return Result{}, s.QueryErr
	}
	return Result{}, nil
}

func namedArgs(args []driver.NamedValue) map[string]any {
	out := make(map[string]any, len(args))
	for _, a := range args {
		key := a.Name
		if key == "" {
			key = fmt.Sprintf("%d", a.Ordinal)
		}
		out[key] = a.Value
	}
	return out
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
