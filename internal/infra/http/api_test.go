package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/freshkart/pos/internal/domain/admin"
	"github.com/freshkart/pos/internal/domain/billing"
	"github.com/freshkart/pos/internal/domain/cart"
	"github.com/freshkart/pos/internal/domain/catalog"
	"github.com/freshkart/pos/internal/domain/ledger"
	"github.com/freshkart/pos/internal/domain/view"
	"github.com/freshkart/pos/internal/infra/assets"
)

func newTestAPI(t *testing.T) (*API, *catalog.Memory, *mux.Router) {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	gw := catalog.NewMemory()
	for _, p := range []catalog.Product{
		{Name: "Rice", PricePerKg: 60, InventoryKg: 5},
		{Name: "Toor Dal", PricePerKg: 120, InventoryKg: 3},
	} {
		_, err := gw.Insert(ctx, p)
		require.NoError(t, err)
	}

	v := view.New(gw, log)
	require.NoError(t, v.Reload(ctx))

	led := ledger.New(gw, log, nil)
	store := cart.New(led, nil, v.ByName, log)
	rec := billing.NewRecorder(gw, log, nil)
	gate := admin.NewGate("admin")
	images, err := assets.NewStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	api := NewAPI(v, store, rec, gw, gate, images, nil, log)
	r := mux.NewRouter()
	api.routes(r)
	return api, gw, r
}

func do(t *testing.T, r *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProductsPageAndSearch(t *testing.T) {
	_, _, r := newTestAPI(t)

	w := do(t, r, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Products []catalog.Product `json:"products"`
		Page     int               `json:"page"`
		Pages    int               `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Products, 2)
	require.Equal(t, 1, out.Page)
	require.Equal(t, 1, out.Pages)

	w = do(t, r, http.MethodGet, "/api/products?search=dal", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Products, 1)
	require.Equal(t, "Toor Dal", out.Products[0].Name)
}

func TestCartFlowOverHTTP(t *testing.T) {
	_, gw, r := newTestAPI(t)
	ctx := context.Background()

	w := do(t, r, http.MethodPost, "/api/cart/lines", map[string]string{"product": "Rice"})
	require.Equal(t, http.StatusOK, w.Code)

	kg, err := gw.GetInventory(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 4.0, kg, 1e-9)

	// Duplicate add warns and changes nothing.
	w = do(t, r, http.MethodPost, "/api/cart/lines", map[string]string{"product": "RICE"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "already in cart")

	weight := 500
	w = do(t, r, http.MethodPatch, "/api/cart/lines/Rice", map[string]*int{"weight_grams": &weight})
	require.Equal(t, http.StatusOK, w.Code)
	kg, _ = gw.GetInventory(ctx, 1)
	require.InDelta(t, 4.5, kg, 1e-9)

	qty := 2
	w = do(t, r, http.MethodPatch, "/api/cart/lines/rice", map[string]*int{"quantity": &qty})
	require.Equal(t, http.StatusOK, w.Code)
	kg, _ = gw.GetInventory(ctx, 1)
	require.InDelta(t, 4.0, kg, 1e-9)

	// Both knobs at once is rejected.
	w = do(t, r, http.MethodPatch, "/api/cart/lines/rice", map[string]*int{"quantity": &qty, "weight_grams": &weight})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodDelete, "/api/cart/lines/Rice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	kg, _ = gw.GetInventory(ctx, 1)
	require.InDelta(t, 5.0, kg, 1e-9)
}

func TestCheckoutClearsCartAndRecordsBills(t *testing.T) {
	api, gw, r := newTestAPI(t)
	ctx := context.Background()

	do(t, r, http.MethodPost, "/api/cart/lines", map[string]string{"product": "Rice"})
	do(t, r, http.MethodPost, "/api/cart/lines", map[string]string{"product": "Toor Dal"})

	w := do(t, r, http.MethodPost, "/api/checkout", map[string]string{"customer_name": "Asha"})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Receipt billing.Receipt `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, 2, out.Receipt.Records)

	require.Empty(t, api.cart.Lines())

	bills, err := gw.ListBills(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	require.Equal(t, "Asha", bills[0].CustomerName)
}

type billFailGateway struct {
	*catalog.Memory
}

func (billFailGateway) InsertBills(context.Context, []catalog.Bill) error {
	return errors.New("insert refused")
}

func TestCheckoutClearsCartEvenWhenInsertFails(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	mem := catalog.NewMemory()
	_, err := mem.Insert(ctx, catalog.Product{Name: "Rice", PricePerKg: 60, InventoryKg: 5})
	require.NoError(t, err)
	gw := billFailGateway{Memory: mem}

	v := view.New(gw, log)
	require.NoError(t, v.Reload(ctx))
	store := cart.New(ledger.New(gw, log, nil), nil, v.ByName, log)
	api := NewAPI(v, store, billing.NewRecorder(gw, log, nil), gw, admin.NewGate("admin"), nil, nil, log)
	r := mux.NewRouter()
	api.routes(r)

	do(t, r, http.MethodPost, "/api/cart/lines", map[string]string{"product": "Rice"})
	require.Len(t, store.Lines(), 1)

	w := do(t, r, http.MethodPost, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "warning")
	// Fire-and-forget: the cart is gone regardless.
	require.Empty(t, store.Lines())
}

func TestBillsHistoryBehindGate(t *testing.T) {
	_, _, r := newTestAPI(t)

	w := do(t, r, http.MethodGet, "/api/bills", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/admin/unlock", map[string]string{"password": "wrong"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/admin/unlock", map[string]string{"password": "admin"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/api/bills", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateProductDuplicateWarns(t *testing.T) {
	_, _, r := newTestAPI(t)

	w := do(t, r, http.MethodPost, "/api/products", map[string]any{
		"name": "rice", "price_per_kg": 55.0, "inventory_kg": 2.0,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "already exists")

	w = do(t, r, http.MethodPost, "/api/products", map[string]any{
		"name": "Jaggery", "price_per_kg": 80.0, "inventory_kg": 4.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestExportEndpoints(t *testing.T) {
	_, _, r := newTestAPI(t)
	do(t, r, http.MethodPost, "/api/cart/lines", map[string]string{"product": "Rice"})

	w := do(t, r, http.MethodGet, "/api/checkout/receipt.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Rice")
	require.True(t, strings.HasSuffix(
		strings.TrimSuffix(w.Header().Get("Content-Disposition"), `"`), "_cart.txt"))

	w = do(t, r, http.MethodGet, "/api/checkout/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Body.Bytes())
}
