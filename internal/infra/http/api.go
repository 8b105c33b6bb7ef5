package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/freshkart/pos/internal/domain/admin"
	"github.com/freshkart/pos/internal/domain/billing"
	"github.com/freshkart/pos/internal/domain/cart"
	"github.com/freshkart/pos/internal/domain/catalog"
	"github.com/freshkart/pos/internal/domain/view"
	"github.com/freshkart/pos/internal/infra/assets"
)

const maxImageBytes = 10 << 20

// API is the storefront surface: one terminal's browse/cart/checkout
// operations over JSON. Remote catalog failures come back as 200s with a
// "warning" field; the local mutation has been applied optimistically and
// the terminal keeps working.
type API struct {
	view     *view.View
	cart     *cart.Store
	recorder *billing.Recorder
	gw       catalog.Gateway
	gate     *admin.Gate
	assets   *assets.Store
	state    *cart.State
	log      *slog.Logger
}

func NewAPI(v *view.View, c *cart.Store, r *billing.Recorder, gw catalog.Gateway,
	gate *admin.Gate, as *assets.Store, state *cart.State, log *slog.Logger) *API {
	return &API{view: v, cart: c, recorder: r, gw: gw, gate: gate, assets: as, state: state, log: log}
}

func (a *API) routes(r *mux.Router) {
	r.HandleFunc("/api/products", a.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products", a.createProduct).Methods(http.MethodPost)
	r.HandleFunc("/api/products/{id:[0-9]+}", a.gated(a.updateProduct)).Methods(http.MethodPatch)
	r.HandleFunc("/api/products/{id:[0-9]+}/image", a.gated(a.uploadImage)).Methods(http.MethodPost)

	r.HandleFunc("/api/cart", a.getCart).Methods(http.MethodGet)
	r.HandleFunc("/api/cart/lines", a.addLine).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/lines/{name}", a.resizeLine).Methods(http.MethodPatch)
	r.HandleFunc("/api/cart/lines/{name}", a.removeLine).Methods(http.MethodDelete)

	r.HandleFunc("/api/checkout", a.checkout).Methods(http.MethodPost)
	r.HandleFunc("/api/checkout/export.xlsx", a.exportExcel).Methods(http.MethodGet)
	r.HandleFunc("/api/checkout/receipt.txt", a.exportReceipt).Methods(http.MethodGet)

	r.HandleFunc("/api/bills", a.gated(a.listBills)).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/unlock", a.unlock).Methods(http.MethodPost)
	r.HandleFunc("/api/admin/lock", a.lock).Methods(http.MethodPost)

	r.HandleFunc("/api/customer", a.getCustomer).Methods(http.MethodGet)
	r.HandleFunc("/api/customer", a.setCustomer).Methods(http.MethodPut)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func warnJSON(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"warning": msg})
}

func (a *API) gated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.gate.Unlocked() {
			warnJSON(w, http.StatusForbidden, "admin gate is locked")
			return
		}
		next(w, r)
	}
}

/* products */

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("search") && q.Get("search") != a.view.Filter() {
		if err := a.view.SetFilter(r.Context(), q.Get("search")); err != nil {
			warnJSON(w, http.StatusBadGateway, "catalog unreachable: "+err.Error())
			return
		}
	} else if err := a.view.Reload(r.Context()); err != nil {
		warnJSON(w, http.StatusBadGateway, "catalog unreachable: "+err.Error())
		return
	}
	if p := q.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			a.view.SetPage(n)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": a.view.PageItems(),
		"page":     a.view.Page(),
		"pages":    a.view.Pages(),
	})
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string  `json:"name"`
		PricePerKg  float64 `json:"price_per_kg"`
		InventoryKg float64 `json:"inventory_kg"`
		ImageURL    string  `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		warnJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	if in.Name == "" || in.PricePerKg < 0 || in.InventoryKg < 0 {
		warnJSON(w, http.StatusUnprocessableEntity, "name required, price and inventory must be non-negative")
		return
	}
	// Advisory duplicate check against the cached view; the backing store
	// does not enforce name uniqueness.
	if _, exists := a.view.ByName(in.Name); exists {
		warnJSON(w, http.StatusConflict, "product already exists")
		return
	}
	id, err := a.gw.Insert(r.Context(), catalog.Product{
		Name: in.Name, PricePerKg: in.PricePerKg, InventoryKg: in.InventoryKg, ImageURL: in.ImageURL,
	})
	if err != nil {
		warnJSON(w, http.StatusBadGateway, "insert failed: "+err.Error())
		return
	}
	a.reload(r)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var in struct {
		Name        *string  `json:"name"`
		PricePerKg  *float64 `json:"price_per_kg"`
		InventoryKg *float64 `json:"inventory_kg"`
		ImageURL    *string  `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		warnJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	patch := catalog.Patch{Name: in.Name, PricePerKg: in.PricePerKg, InventoryKg: in.InventoryKg, ImageURL: in.ImageURL}
	if err := a.gw.Update(r.Context(), id, patch); err != nil {
		warnJSON(w, http.StatusBadGateway, "update failed: "+err.Error())
		return
	}
	a.reload(r)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		warnJSON(w, http.StatusBadRequest, "bad multipart body")
		return
	}
	file, hdr, err := r.FormFile("image")
	if err != nil {
		warnJSON(w, http.StatusBadRequest, "image file missing")
		return
	}
	defer func() { _ = file.Close() }()
	blob, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		warnJSON(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}
	url, err := a.assets.Save(hdr.Filename, blob)
	if err != nil {
		// Aborts only the image step; any prior field edits stand.
		warnJSON(w, http.StatusBadGateway, "image upload failed: "+err.Error())
		return
	}
	if err := a.gw.Update(r.Context(), id, catalog.Patch{ImageURL: &url}); err != nil {
		warnJSON(w, http.StatusBadGateway, "image url update failed: "+err.Error())
		return
	}
	a.reload(r)
	writeJSON(w, http.StatusOK, map[string]string{"image_url": url})
}

/* cart */

func (a *API) getCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"lines": a.cart.Lines(),
		"total": a.cart.Total(),
	})
}

func (a *API) addLine(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Product string `json:"product"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		warnJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	p, ok := a.view.ByName(in.Product)
	if !ok {
		warnJSON(w, http.StatusNotFound, "no such product")
		return
	}
	a.finishCartOp(w, r, a.cart.Add(r.Context(), p))
}

func (a *API) resizeLine(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var in struct {
		WeightGrams *int `json:"weight_grams"`
		Quantity    *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		warnJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	var err error
	switch {
	case in.WeightGrams != nil && in.Quantity == nil:
		err = a.cart.ResizeWeight(r.Context(), name, *in.WeightGrams)
	case in.Quantity != nil && in.WeightGrams == nil:
		err = a.cart.ResizeQuantity(r.Context(), name, *in.Quantity)
	default:
		warnJSON(w, http.StatusUnprocessableEntity, "exactly one of weight_grams or quantity required")
		return
	}
	a.finishCartOp(w, r, err)
}

func (a *API) removeLine(w http.ResponseWriter, r *http.Request) {
	a.finishCartOp(w, r, a.cart.Remove(r.Context(), mux.Vars(r)["name"]))
}

// finishCartOp maps the cart error taxonomy: validation rejections abort
// with the line untouched, remote failures warn but the change stood.
func (a *API) finishCartOp(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		a.reload(r)
		a.getCart(w, r)
	case errors.Is(err, cart.ErrRemote):
		a.reload(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"lines":   a.cart.Lines(),
			"total":   a.cart.Total(),
			"warning": err.Error(),
		})
	case errors.Is(err, cart.ErrNotInCart):
		warnJSON(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrBadWeight), errors.Is(err, cart.ErrBadQuantity):
		warnJSON(w, http.StatusUnprocessableEntity, err.Error())
	default:
		// duplicate line, out of stock, insufficient stock
		warnJSON(w, http.StatusConflict, err.Error())
	}
}

/* checkout */

func (a *API) checkout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CustomerName string `json:"customer_name"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&in)
	}
	if in.CustomerName == "" && a.state != nil {
		in.CustomerName, _ = a.state.Customer()
	}

	receipt, err := a.recorder.Checkout(r.Context(), in.CustomerName, a.cart.Lines(), a.view.ByName)
	// Fire-and-forget: the cart empties whatever happened to the batch.
	a.cart.Clear()
	a.reload(r)

	out := map[string]any{"receipt": receipt}
	if err != nil {
		out["warning"] = "billing batch not recorded: " + err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) exportExcel(w http.ResponseWriter, _ *http.Request) {
	name := ""
	if a.state != nil {
		name, _ = a.state.Customer()
	}
	blob, err := billing.ExportExcel(a.cart.Lines(), name)
	if err != nil {
		warnJSON(w, http.StatusInternalServerError, "export failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+billing.ExportFilename(time.Now(), "xlsx")+`"`)
	_, _ = w.Write(blob)
}

func (a *API) exportReceipt(w http.ResponseWriter, _ *http.Request) {
	name := ""
	if a.state != nil {
		name, _ = a.state.Customer()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+billing.ExportFilename(time.Now(), "txt")+`"`)
	_, _ = w.Write(billing.ExportReceipt(a.cart.Lines(), name))
}

/* admin + bills history */

func (a *API) listBills(w http.ResponseWriter, r *http.Request) {
	bills, err := a.gw.ListBills(r.Context())
	if err != nil {
		warnJSON(w, http.StatusBadGateway, "bills unavailable: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

func (a *API) unlock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		warnJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	if !a.gate.Unlock(in.Password) {
		warnJSON(w, http.StatusForbidden, "access denied")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) lock(w http.ResponseWriter, _ *http.Request) {
	a.gate.Lock()
	w.WriteHeader(http.StatusNoContent)
}

/* customer name */

func (a *API) getCustomer(w http.ResponseWriter, _ *http.Request) {
	name := ""
	if a.state != nil {
		name, _ = a.state.Customer()
	}
	writeJSON(w, http.StatusOK, map[string]string{"customer_name": name})
}

func (a *API) setCustomer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CustomerName string `json:"customer_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		warnJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	if a.state != nil {
		if err := a.state.SetCustomer(in.CustomerName); err != nil {
			warnJSON(w, http.StatusInternalServerError, "persist failed: "+err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// reload refreshes the view after a mutation that could have moved stock;
// failures only log, the push feed will catch the cache up.
func (a *API) reload(r *http.Request) {
	if err := a.view.Reload(r.Context()); err != nil {
		a.log.Warn("view reload after mutation failed", "err", err)
	}
}
