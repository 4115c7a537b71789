// Package ledger settles asset projections against a wallet. The grid
// only ever runs the simulated implementation: it mints transaction
// records and logs what a real settlement would have sent, without
// touching a chain.
package ledger

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/epochworks/worldgrid-simulator/internal/logging"
	"github.com/epochworks/worldgrid-simulator/model"
)

// Ledger is the settlement surface the binaries talk to.
type Ledger interface {
	// EnsureWallet creates or loads the payout wallet.
	EnsureWallet(ctx context.Context) error
	// FundWallet tops the wallet up when its balance cannot cover a
	// distribution.
	FundWallet(ctx context.Context) error
	// WarmUp prepares the wallet for spending, mining maturity blocks
	// on a real regtest backend.
	WarmUp(ctx context.Context) error
	// Distribute settles the given projection and returns the minted
	// transaction record.
	Distribute(ctx context.Context, proj model.Projection, totalEnergyMWh, oilBarrels float64) (model.Transaction, error)
}

var _ Ledger = (*Simulated)(nil)

// Simulated is a Ledger that fabricates transactions instead of
// broadcasting them.
type Simulated struct {
	log logging.Logger

	// idSource feeds transaction UUIDs. Seeded runs wire the engine's
	// random stream here so transaction IDs reproduce too.
	idSource io.Reader
	now      func() time.Time
}

// SimOption customises the simulated ledger.
type SimOption func(*Simulated)

// WithIDSource sets the randomness behind transaction IDs.
func WithIDSource(r io.Reader) SimOption {
	return func(l *Simulated) {
		if r != nil {
			l.idSource = r
		}
	}
}

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) SimOption {
	return func(l *Simulated) {
		if now != nil {
			l.now = now
		}
	}
}

// NewSimulated returns a simulated ledger.
func NewSimulated(log logging.Logger, opts ...SimOption) *Simulated {
	if log == nil {
		log = logging.Noop()
	}
	l := &Simulated{
		log:      log,
		idSource: rand.Reader,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// EnsureWallet is a no-op beyond logging; the simulated wallet always
// exists.
func (l *Simulated) EnsureWallet(ctx context.Context) error {
	l.log.Info(ctx, "creating or loading wallet", logging.String("mode", "simulated"))
	return nil
}

// FundWallet is a no-op; the simulated wallet never runs dry.
func (l *Simulated) FundWallet(ctx context.Context) error {
	l.log.Info(ctx, "funding wallet if needed", logging.String("mode", "simulated"))
	return nil
}

// WarmUp is a no-op; simulated funds are always mature.
func (l *Simulated) WarmUp(ctx context.Context) error {
	l.log.Info(ctx, "warming up wallet", logging.String("mode", "simulated"))
	return nil
}

// Distribute mints a transaction for the projection. The note carries the
// human-readable settlement line the dashboards display.
func (l *Simulated) Distribute(ctx context.Context, proj model.Projection, totalEnergyMWh, oilBarrels float64) (model.Transaction, error) {
	id, err := uuid.NewRandomFromReader(l.idSource)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("minting transaction id: %w", err)
	}

	tx := model.Transaction{
		ID:         id.String(),
		Timestamp:  l.now().UTC(),
		Recipient:  proj.Recipient,
		BCPUnits:   proj.BCPUnits,
		BTCAmount:  proj.BTCEquivalent,
		EnergyMWh:  totalEnergyMWh,
		OilBarrels: oilBarrels,
		Note: fmt.Sprintf("[DISTRIBUTE - SIMULATED] Would send %.8f BTC to %s (based on %.2f MWh, %.2f barrels oil)",
			proj.BTCEquivalent, proj.Recipient, totalEnergyMWh, oilBarrels),
	}

	l.log.Info(ctx, "bcp distribution simulated",
		logging.String("tx_id", tx.ID),
		logging.String("recipient", tx.Recipient),
		logging.Float64("bcp_units", tx.BCPUnits),
		logging.Float64("btc", tx.BTCAmount))
	return tx, nil
}
