package api

import (
	"errors"
	"net/http"

	sim "github.com/epochworks/worldgrid-simulator/internal/sim/state"
)

var (
	// ErrLoopRunning reports a start request while the tick loop is live.
	ErrLoopRunning = errors.New("simulation already running")
	// ErrLoopStopped reports a stop request when no tick loop is live.
	ErrLoopStopped = errors.New("simulation not running")
	// ErrLoopUnavailable reports a control request against a server that
	// was wired without a tick loop.
	ErrLoopUnavailable = errors.New("tick loop not configured")
	// ErrLedgerUnavailable reports a distribution request against a server
	// that was wired without a ledger.
	ErrLedgerUnavailable = errors.New("ledger not configured")
)

// ToHTTPStatus maps common simulator errors onto HTTP status codes for
// API handlers.
func ToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, sim.ErrUnknownCategory):
		return http.StatusBadRequest

	case errors.Is(err, ErrLoopRunning),
		errors.Is(err, ErrLoopStopped):
		return http.StatusConflict

	case errors.Is(err, ErrLoopUnavailable),
		errors.Is(err, ErrLedgerUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
