package dcdash

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sijms/go-ora/v2/network"
)

// Sentinel errors for the failure modes of one report invocation.
// Every error returned by the session, query, rowmap and reports packages
// wraps exactly one of these, so callers can classify failures with
// errors.Is or the Is*Err helpers without knowing the concrete type.
//
// None of these are retried by the library. A caller that wants retries
// wraps the whole invocation.
var (
	// ErrConnection is returned when a physical connection to the engine
	// could not be obtained (dial, auth, listener or pool failure).
	ErrConnection = errors.New("dcdash: database connection failed")

	// ErrSessionSetup is returned when a connection was obtained but the
	// mandatory session context block failed. The connection is closed
	// before this error is returned.
	ErrSessionSetup = errors.New("dcdash: session setup failed")

	// ErrInvalidFilter is returned when a caller-supplied filter is unknown,
	// missing, of the wrong type, or out of bounds. No connection is
	// attempted when this error is returned.
	ErrInvalidFilter = errors.New("dcdash: invalid filter")

	// ErrMapping is returned when a result row no longer matches the record
	// shape it is mapped into. This indicates drift between a query and its
	// model.
	ErrMapping = errors.New("dcdash: result mapping failed")

	// ErrEngineQuery is returned when the engine rejected or failed a
	// statement at execution time.
	ErrEngineQuery = errors.New("dcdash: query execution failed")

	// ErrQuerySpec is returned when a built query fails its own consistency
	// check: a placeholder without a bind value, a bind value without a
	// placeholder, or a supplied filter that the SQL never references.
	ErrQuerySpec = errors.New("dcdash: inconsistent query spec")

	// ErrSessionNotReady is returned when a query is attempted on a session
	// whose setup has not completed or which was already released.
	ErrSessionNotReady = errors.New("dcdash: session not ready")
)

// IsConnectionErr returns true if err is or wraps ErrConnection.
func IsConnectionErr(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsSessionSetupErr returns true if err is or wraps ErrSessionSetup.
func IsSessionSetupErr(err error) bool {
	return errors.Is(err, ErrSessionSetup)
}

// IsInvalidFilterErr returns true if err is or wraps ErrInvalidFilter.
func IsInvalidFilterErr(err error) bool {
	return errors.Is(err, ErrInvalidFilter)
}

// IsMappingErr returns true if err is or wraps ErrMapping.
func IsMappingErr(err error) bool {
	return errors.Is(err, ErrMapping)
}

// IsEngineQueryErr returns true if err is or wraps ErrEngineQuery.
func IsEngineQueryErr(err error) bool {
	return errors.Is(err, ErrEngineQuery)
}

// IsBackendUnavailableErr reports whether err means the data backend could
// not be used at all (connection or session setup failure).
func IsBackendUnavailableErr(err error) bool {
	return IsConnectionErr(err) || IsSessionSetupErr(err)
}

// FilterError describes a rejected filter value.
type FilterError struct {
	Filter string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidFilter, e.Filter, e.Reason)
}

func (e *FilterError) Unwrap() error {
	return ErrInvalidFilter
}

// NewFilterError returns a FilterError for the named filter.
func NewFilterError(filter, format string, args ...any) *FilterError {
	return &FilterError{Filter: filter, Reason: fmt.Sprintf(format, args...)}
}

// MappingError describes a row that could not be mapped into a record shape.
type MappingError struct {
	Shape  string
	Column string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s.%s: %v", ErrMapping, e.Shape, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %s.%s", ErrMapping, e.Shape, e.Column)
}

// Unwrap exposes both ErrMapping and the underlying cause.
func (e *MappingError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMapping, e.Err}
	}
	return []error{ErrMapping}
}

// Oracle error codes that influence classification.
const (
	oraNotConnected     = 3114  // ORA-03114: not connected to ORACLE
	oraEndOfFile        = 3113  // ORA-03113: end-of-file on communication channel
	oraInvalidUserPass  = 1017  // ORA-01017: invalid username/password
	oraUserCancelled    = 1013  // ORA-01013: user requested cancel of current operation
	oraListenerNoServer = 12514 // ORA-12514: listener does not know of service
)

// OracleCode extracts the ORA- error number from err.
//
// Supported error types:
//   - go-ora: *network.OracleError (ErrCode field)
//   - any error exposing an ErrCode() int method
//
// Falls back to parsing an "ORA-NNNNN" token from the message.
// Returns 0 if the error carries no Oracle code.
func OracleCode(err error) int {
	if err == nil {
		return 0
	}

	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return oraErr.ErrCode
	}

	type codeErr interface{ ErrCode() int }
	var ce codeErr
	if errors.As(err, &ce) {
		return ce.ErrCode()
	}

	// Fallback: "ORA-01017: invalid username/password; logon denied"
	msg := err.Error()
	idx := strings.Index(msg, "ORA-")
	if idx < 0 {
		return 0
	}
	start := idx + len("ORA-")
	end := start
	for end < len(msg) && msg[end] >= '0' && msg[end] <= '9' {
		end++
	}
	code, convErr := strconv.Atoi(msg[start:end])
	if convErr != nil {
		return 0
	}
	return code
}

// IsConnectionLoss reports whether err carries an Oracle code meaning the
// connection itself is gone or was never authorized.
func IsConnectionLoss(err error) bool {
	switch OracleCode(err) {
	case oraNotConnected, oraEndOfFile, oraInvalidUserPass, oraListenerNoServer:
		return true
	}
	return false
}

// IsCancelled reports whether err carries the Oracle user-cancel code.
func IsCancelled(err error) bool {
	return OracleCode(err) == oraUserCancelled
}
