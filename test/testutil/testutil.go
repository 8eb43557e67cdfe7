// Package testutil provides shared test utilities for dcdash integration tests.
//
// Tests get an Oracle Free database from a singleton testcontainers
// container, or from DCDASH_TEST_ORACLE_URL when it is set. The scratch
// schema in testdata is applied once per test binary.
package testutil

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	go_ora "github.com/sijms/go-ora/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/atdtech/dcdash/pkg/session"
)

//go:embed testdata/scratch_schema.sql
var scratchSchemaSQL string

const (
	oracleImage = "gvenzl/oracle-free:23-slim-faststart"
	oraclePort  = "1521/tcp"
	pdbService  = "FREEPDB1"

	appUser     = "DCDASH"
	appPassword = "dcdash"

	// ContextProcedure is the scratch procedure standing in for the EBS
	// org context call. It sets the session module to ContextModule.
	ContextProcedure = "dcdash_ctx_init"
	ContextModule    = "dcdash"
)

// Singleton container state
var (
	singletonOnce sync.Once
	singletonCfg  DatabaseConfig
	singletonErr  error

	schemaOnce sync.Once
	schemaErr  error
)

// ensureSingleton lazily starts the Oracle Free container unless the
// environment points at an existing database.
// Safe for concurrent access via sync.Once.
func ensureSingleton() (DatabaseConfig, error) {
	singletonOnce.Do(func() {
		if cfg := GetDatabaseConfig(); cfg.URL != "" {
			singletonCfg = cfg
			return
		}

		ctx := context.Background()
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        oracleImage,
				ExposedPorts: []string{oraclePort},
				Env: map[string]string{
					"ORACLE_PASSWORD":   appPassword,
					"APP_USER":          appUser,
					"APP_USER_PASSWORD": appPassword,
				},
				WaitingFor: wait.ForLog("DATABASE IS READY TO USE!").
					WithStartupTimeout(5 * time.Minute),
			},
			Started: true,
		})
		if err != nil {
			singletonErr = fmt.Errorf("failed to start Oracle container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get Oracle host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, oraclePort)
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get Oracle port: %w", err)
			return
		}
		portNum, err := strconv.Atoi(port.Port())
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("unexpected Oracle port %q: %w", port.Port(), err)
			return
		}

		singletonCfg = DatabaseConfig{
			URL:    go_ora.BuildUrl(host, portNum, pdbService, appUser, appPassword, nil),
			Schema: appUser,
		}
		// Container is not stored - ryuk will handle cleanup automatically
	})

	return singletonCfg, singletonErr
}

// ensureSchema applies the scratch schema once.
func ensureSchema(dsn string) error {
	schemaOnce.Do(func() {
		schemaErr = applyScratchSchema(dsn)
	})
	return schemaErr
}

// applyScratchSchema creates the scratch objects. Objects left over from
// an earlier run against an external database are replaced.
func applyScratchSchema(dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open(session.DefaultDriver, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	// ORA-00942: table or view does not exist
	_, _ = db.ExecContext(ctx, "DROP TABLE oe_holds_history_v PURGE")

	for _, stmt := range splitStatements(scratchSchemaSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply scratch schema: %w\n%s", err, stmt)
		}
	}
	return nil
}

// splitStatements splits a script on lines holding a single slash.
// Comment lines are dropped.
func splitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "/":
			if stmt := strings.TrimSpace(cur.String()); stmt != "" {
				out = append(out, stmt)
			}
			cur.Reset()
		case strings.HasPrefix(trimmed, "--"):
		default:
			cur.WriteString(line)
			cur.WriteByte('\n')
		}
	}
	if stmt := strings.TrimSpace(cur.String()); stmt != "" {
		out = append(out, stmt)
	}
	return out
}

// SessionConfig returns a session configuration for the scratch schema,
// with the scratch context procedure.
// Works with both *testing.T and *testing.B.
func SessionConfig(tb testing.TB) session.Config {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping integration test in short mode")
	}

	cfg, err := ensureSingleton()
	require.NoError(tb, err, "failed to start Oracle container")
	require.NoError(tb, ensureSchema(cfg.URL), "failed to apply scratch schema")

	sc := session.DefaultConfig(cfg.URL)
	sc.Target = "testcontainer/" + pdbService
	sc.Schema = cfg.Schema
	sc.ContextProcedure = ContextProcedure
	sc.ConnectTimeout = time.Minute
	sc.QueryTimeout = time.Minute
	return sc
}

// Manager opens a session manager on the scratch schema and closes it
// when the test completes.
func Manager(tb testing.TB, opts ...session.Option) *session.Manager {
	tb.Helper()
	mgr, err := session.Open(SessionConfig(tb), opts...)
	require.NoError(tb, err, "failed to open session manager")
	tb.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// DB returns a plain connection to the scratch schema for seeding data.
// It is closed when the test completes.
func DB(tb testing.TB) *sql.DB {
	tb.Helper()
	sc := SessionConfig(tb)

	db, err := sql.Open(session.DefaultDriver, sc.DSN)
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping(), "failed to ping test database")
	tb.Cleanup(func() { _ = db.Close() })
	return db
}
