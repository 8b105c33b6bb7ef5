package cart_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freshkart/pos/internal/domain/cart"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateCartRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := cart.OpenState(path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	// Fresh file: no cart yet.
	lines, err := st.LoadCart()
	require.NoError(t, err)
	require.Empty(t, lines)

	saved := []cart.Line{
		{Product: "Rice", PricePerKg: 60, WeightGrams: 500, Quantity: 2},
		{Product: "Dal", PricePerKg: 120, WeightGrams: 1000, Quantity: 1},
	}
	require.NoError(t, st.SaveCart(saved))

	lines, err = st.LoadCart()
	require.NoError(t, err)
	require.Equal(t, saved, lines)
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := cart.OpenState(path)
	require.NoError(t, err)
	require.NoError(t, st.SaveCart([]cart.Line{{Product: "Atta", PricePerKg: 45, WeightGrams: 1000, Quantity: 3}}))
	require.NoError(t, st.SetCustomer("Asha"))
	require.NoError(t, st.Close())

	st, err = cart.OpenState(path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	lines, err := st.LoadCart()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "Atta", lines[0].Product)

	name, err := st.Customer()
	require.NoError(t, err)
	require.Equal(t, "Asha", name)
}

func TestStoreRestoresFromState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := cart.OpenState(path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	require.NoError(t, st.SaveCart([]cart.Line{{Product: "Rice", PricePerKg: 60, WeightGrams: 250, Quantity: 2}}))

	store := cart.New(nil, st, nil, discardLogger())
	lines := store.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 250, lines[0].WeightGrams)
	require.Equal(t, 2, lines[0].Quantity)
}
