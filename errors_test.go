package dcdash_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sijms/go-ora/v2/network"

	"github.com/atdtech/dcdash"
)

func TestErrorHelpers(t *testing.T) {
	t.Run("IsConnectionErr", func(t *testing.T) {
		err := fmt.Errorf("%w: dial tcp: refused", dcdash.ErrConnection)
		if !dcdash.IsConnectionErr(err) {
			t.Error("IsConnectionErr should return true for wrapped ErrConnection")
		}
		if !dcdash.IsBackendUnavailableErr(err) {
			t.Error("IsBackendUnavailableErr should return true for wrapped ErrConnection")
		}
		if dcdash.IsConnectionErr(errors.New("other error")) {
			t.Error("IsConnectionErr should return false for other errors")
		}
	})

	t.Run("IsSessionSetupErr", func(t *testing.T) {
		err := fmt.Errorf("%w: ORA-06550", dcdash.ErrSessionSetup)
		if !dcdash.IsSessionSetupErr(err) {
			t.Error("IsSessionSetupErr should return true for wrapped ErrSessionSetup")
		}
		if !dcdash.IsBackendUnavailableErr(err) {
			t.Error("IsBackendUnavailableErr should return true for wrapped ErrSessionSetup")
		}
		if dcdash.IsSessionSetupErr(dcdash.ErrConnection) {
			t.Error("IsSessionSetupErr should return false for ErrConnection")
		}
	})

	t.Run("FilterError", func(t *testing.T) {
		err := dcdash.NewFilterError("days_back", "must be between %d and %d", 1, 365)
		if !dcdash.IsInvalidFilterErr(err) {
			t.Error("FilterError should unwrap to ErrInvalidFilter")
		}
		if dcdash.IsBackendUnavailableErr(err) {
			t.Error("FilterError is a client error, not a backend failure")
		}
		want := "dcdash: invalid filter: days_back must be between 1 and 365"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("MappingError", func(t *testing.T) {
		cause := errors.New("column missing")
		err := &dcdash.MappingError{Shape: "dc_location", Column: "organization_id", Err: cause}
		if !dcdash.IsMappingErr(err) {
			t.Error("MappingError should unwrap to ErrMapping")
		}
		if !errors.Is(err, cause) {
			t.Error("MappingError should unwrap to its cause")
		}
	})

	t.Run("IsEngineQueryErr", func(t *testing.T) {
		err := fmt.Errorf("%w: ORA-00942: table or view does not exist", dcdash.ErrEngineQuery)
		if !dcdash.IsEngineQueryErr(err) {
			t.Error("IsEngineQueryErr should return true for wrapped ErrEngineQuery")
		}
	})
}

func TestOracleCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"go-ora error", &network.OracleError{ErrCode: 942, ErrMsg: "ORA-00942: table or view does not exist"}, 942},
		{"wrapped go-ora error", fmt.Errorf("%w: %w", dcdash.ErrEngineQuery, &network.OracleError{ErrCode: 1017}), 1017},
		{"message fallback", errors.New("ORA-12514: TNS:listener does not currently know of service"), 12514},
		{"no code", errors.New("connection reset by peer"), 0},
		{"malformed", errors.New("ORA-: nothing"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dcdash.OracleCode(tt.err); got != tt.want {
				t.Errorf("OracleCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsConnectionLoss(t *testing.T) {
	if !dcdash.IsConnectionLoss(errors.New("ORA-03113: end-of-file on communication channel")) {
		t.Error("ORA-03113 should be a connection loss")
	}
	if dcdash.IsConnectionLoss(errors.New("ORA-00942: table or view does not exist")) {
		t.Error("ORA-00942 should not be a connection loss")
	}
	if !dcdash.IsCancelled(errors.New("ORA-01013: user requested cancel of current operation")) {
		t.Error("ORA-01013 should be a cancellation")
	}
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := dcdash.RequestID(ctx); got != dcdash.UnknownRequestID {
		t.Errorf("RequestID() = %q, want %q", got, dcdash.UnknownRequestID)
	}

	ctx = dcdash.WithRequestID(ctx, "a1b2c3d4")
	if got := dcdash.RequestID(ctx); got != "a1b2c3d4" {
		t.Errorf("RequestID() = %q, want %q", got, "a1b2c3d4")
	}

	if got := dcdash.RequestID(dcdash.WithRequestID(ctx, "")); got != dcdash.UnknownRequestID {
		t.Errorf("empty id should read back as %q, got %q", dcdash.UnknownRequestID, got)
	}
}
