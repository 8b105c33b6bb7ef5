package ledger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freshkart/pos/internal/domain/catalog"
	"github.com/freshkart/pos/internal/domain/ledger"
)

func TestReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	gw := catalog.NewMemory()
	id, err := gw.Insert(ctx, catalog.Product{Name: "Rice", PricePerKg: 60, InventoryKg: 5})
	require.NoError(t, err)

	l := ledger.New(gw, slog.Default(), nil)

	require.NoError(t, l.Reserve(ctx, id, -1.0))
	kg, err := gw.GetInventory(ctx, id)
	require.NoError(t, err)
	require.InDelta(t, 4.0, kg, 1e-9)

	require.NoError(t, l.Reserve(ctx, id, 0.5))
	kg, err = gw.GetInventory(ctx, id)
	require.NoError(t, err)
	require.InDelta(t, 4.5, kg, 1e-9)
}

func TestReserveClampsAtZero(t *testing.T) {
	ctx := context.Background()
	gw := catalog.NewMemory()
	id, err := gw.Insert(ctx, catalog.Product{Name: "Dal", InventoryKg: 0.25})
	require.NoError(t, err)

	l := ledger.New(gw, slog.Default(), nil)

	// Over-reserving clamps instead of rejecting; pre-checks are the
	// caller's job.
	require.NoError(t, l.Reserve(ctx, id, -2.0))
	kg, err := gw.GetInventory(ctx, id)
	require.NoError(t, err)
	require.Zero(t, kg)
}

func TestReserveZeroDeltaSkipsRemote(t *testing.T) {
	gw := catalog.NewMemory()
	l := ledger.New(gw, slog.Default(), nil)
	// Product 42 does not exist; a zero delta must not even look it up.
	require.NoError(t, l.Reserve(context.Background(), 42, 0))
}

func TestReserveUnknownProduct(t *testing.T) {
	gw := catalog.NewMemory()
	l := ledger.New(gw, slog.Default(), nil)
	require.Error(t, l.Reserve(context.Background(), 42, -1))
}
