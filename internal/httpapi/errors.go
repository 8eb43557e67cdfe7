package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/atdtech/dcdash"
)

type errorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id"`
}

// classify maps an error to its status and public body. Engine text is
// never part of the body.
func classify(err error) (int, errorResponse) {
	switch {
	case dcdash.IsInvalidFilterErr(err):
		return http.StatusBadRequest, errorResponse{Error: "Invalid input", Detail: err.Error()}
	case dcdash.IsBackendUnavailableErr(err):
		return http.StatusServiceUnavailable, errorResponse{
			Error:  "Data backend unavailable",
			Detail: "The database could not be reached",
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, errorResponse{
			Error:  "Request timed out",
			Detail: "The query did not finish in time",
		}
	case dcdash.IsEngineQueryErr(err):
		return http.StatusInternalServerError, errorResponse{
			Error:  "Database operation failed",
			Detail: "An error occurred while accessing the database",
		}
	case dcdash.IsMappingErr(err):
		return http.StatusInternalServerError, errorResponse{
			Error:  "Result mapping failed",
			Detail: "The database returned rows in an unexpected shape",
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			Error:  "Internal server error",
			Detail: "An unexpected error occurred",
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	body.RequestID = dcdash.RequestID(r.Context())

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	s.logger.Log(r.Context(), level, "request failed",
		"request_id", body.RequestID,
		"status", status,
		"ora_code", dcdash.OracleCode(err),
		"error", err,
	)
	writeJSON(w, status, body)
}
