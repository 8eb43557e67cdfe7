package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Defaults for the EBS session context.
const (
	DefaultSchema           = "APPS"
	DefaultContextProcedure = "apps.XXATD_ORG_ACCESS_UTILS_PKG.SET_multi_ORG_CONTEXT"
	DefaultDriver           = "oracle"
)

// Config holds everything the manager needs. It is read-only after Open.
type Config struct {
	// DSN is passed to the driver unchanged.
	DSN string
	// Target names the database in log lines (host:port/service).
	// It must not carry credentials.
	Target string

	// Schema becomes CURRENT_SCHEMA for every session. Empty means APPS.
	Schema string
	// ContextProcedure is called after the schema switch. Empty omits the
	// call.
	ContextProcedure string

	// ConnectTimeout bounds physical connect plus setup. Zero means the
	// caller's context alone applies.
	ConnectTimeout time.Duration
	// QueryTimeout bounds each query. Zero means no extra bound.
	QueryTimeout time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a config with the EBS defaults filled in.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:              dsn,
		Schema:           DefaultSchema,
		ContextProcedure: DefaultContextProcedure,
		ConnectTimeout:   30 * time.Second,
		QueryTimeout:     300 * time.Second,
		MaxOpenConns:     10,
	}
}

var (
	schemaRe    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]{0,127}$`)
	procedureRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]*(\.[A-Za-z][A-Za-z0-9_$#]*){0,2}$`)
)

// Validate checks the identifiers that are spliced into the setup block.
// They cannot travel as binds, so only plain identifiers are accepted.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("session: DSN is required")
	}
	if c.Schema != "" && !schemaRe.MatchString(c.Schema) {
		return fmt.Errorf("session: invalid schema identifier %q", c.Schema)
	}
	if c.ContextProcedure != "" && !procedureRe.MatchString(c.ContextProcedure) {
		return fmt.Errorf("session: invalid context procedure %q", c.ContextProcedure)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 {
		return fmt.Errorf("session: connection limits must not be negative")
	}
	return nil
}

func (c Config) schema() string {
	if c.Schema == "" {
		return DefaultSchema
	}
	return c.Schema
}

// SetupSQL renders the setup block run on every new session.
func (c Config) SetupSQL() string {
	var sb strings.Builder
	sb.WriteString("BEGIN\n")
	sb.WriteString("    EXECUTE IMMEDIATE 'ALTER SESSION SET CURRENT_SCHEMA = " + c.schema() + "';\n")
	if c.ContextProcedure != "" {
		sb.WriteString("    " + c.ContextProcedure + ";\n")
	}
	sb.WriteString("END;")
	return sb.String()
}
