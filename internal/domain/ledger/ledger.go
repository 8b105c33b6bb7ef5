// Package ledger adjusts the shared remote inventory counter for cart
// operations. It is a best-effort accounting primitive, not a guard: the
// cart pre-checks against its cached view before calling Reserve.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/freshkart/pos/internal/domain/catalog"
	"github.com/freshkart/pos/internal/infra/metrics"
)

type Ledger struct {
	gw  catalog.Gateway
	log *slog.Logger
	m   *metrics.Set
}

func New(gw catalog.Gateway, log *slog.Logger, m *metrics.Set) *Ledger {
	return &Ledger{gw: gw, log: log, m: m}
}

// Reserve applies deltaKg to the product's remote inventory: negative
// reserves stock, positive releases it. One remote read plus one remote
// write, no transaction; newInventory = max(current+deltaKg, 0). Two
// concurrent calls on the same product race with last-write-wins.
func (l *Ledger) Reserve(ctx context.Context, productID int64, deltaKg float64) error {
	if deltaKg == 0 {
		return nil
	}
	current, err := l.gw.GetInventory(ctx, productID)
	if err != nil {
		l.m.LedgerFail()
		return fmt.Errorf("read inventory: %w", err)
	}
	next := current + deltaKg
	if next < 0 {
		next = 0
	}
	if err := l.gw.SetInventory(ctx, productID, next); err != nil {
		l.m.LedgerFail()
		return fmt.Errorf("write inventory: %w", err)
	}
	if deltaKg < 0 {
		l.m.AddReserved(-deltaKg)
	} else {
		l.m.AddReleased(deltaKg)
	}
	l.log.Debug("inventory adjusted", "product_id", productID, "delta_kg", deltaKg, "inventory_kg", next)
	return nil
}
