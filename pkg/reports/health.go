package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atdtech/dcdash"
	"github.com/atdtech/dcdash/pkg/session"
)

// unknownProbe is reported when a probe returns no row.
const unknownProbe = "Unknown"

// Health probes run on a configured session.
const (
	versionProbe = "SELECT banner FROM v$version WHERE ROWNUM = 1"
	schemaProbe  = "SELECT SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA') FROM DUAL"
)

// DBHealth is the outcome of a database round trip through a fully
// configured session.
type DBHealth struct {
	Status          string    `json:"status"`
	DatabaseVersion string    `json:"database_version"`
	ConnectionInfo  string    `json:"connection_info"`
	SessionContext  string    `json:"session_context"`
	Timestamp       time.Time `json:"timestamp"`
}

// DBHealth acquires a session, which runs the context setup, and reads
// the database banner and the current schema on it.
func (s *Service) DBHealth(ctx context.Context) (DBHealth, error) {
	log := s.logger.With("request_id", dcdash.RequestID(ctx))

	var h DBHealth
	err := s.sessions.WithSession(ctx, func(sess *session.Session) error {
		banner, err := scalarText(ctx, sess, versionProbe)
		if err != nil {
			return err
		}
		schema, err := scalarText(ctx, sess, schemaProbe)
		if err != nil {
			return err
		}
		h = DBHealth{
			Status:          "healthy",
			DatabaseVersion: banner,
			ConnectionInfo:  s.sessions.Config().Target,
			SessionContext:  schema,
			Timestamp:       time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		log.Error("database health check failed", "error", err)
		return DBHealth{}, err
	}
	log.Debug("database health check passed", "version", h.DatabaseVersion)
	return h, nil
}

func scalarText(ctx context.Context, sess *session.Session, text string) (string, error) {
	row, err := sess.QueryRow(ctx, text)
	if err != nil {
		return "", err
	}
	var out string
	err = row.Scan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return unknownProbe, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", dcdash.ErrEngineQuery, text, err)
	}
	return out, nil
}
