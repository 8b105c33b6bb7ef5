// Package view keeps a locally cached, paginated projection of the remote
// catalog for display and cart validation.
package view

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/freshkart/pos/internal/domain/catalog"
)

const PageSize = 8

type View struct {
	gw  catalog.Gateway
	log *slog.Logger

	mu       sync.Mutex
	products []catalog.Product
	filter   string
	page     int // 1-indexed
}

func New(gw catalog.Gateway, log *slog.Logger) *View {
	return &View{gw: gw, log: log, page: 1}
}

// Reload replaces the whole cache with the remote result. Always a full
// replace, never a merge: a reload racing with a push tick must not leave a
// partially updated list behind. The result is re-sorted by id so repeated
// reloads do not reorder the page a user is looking at.
func (v *View) Reload(ctx context.Context) error {
	v.mu.Lock()
	filter := v.filter
	v.mu.Unlock()

	var (
		products []catalog.Product
		err      error
	)
	if filter == "" {
		products, err = v.gw.ListAll(ctx)
	} else {
		products, err = v.gw.Search(ctx, filter)
	}
	if err != nil {
		return err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	v.mu.Lock()
	v.products = products
	v.mu.Unlock()
	return nil
}

// SetFilter changes the remote substring filter and resets to page 1.
func (v *View) SetFilter(ctx context.Context, term string) error {
	v.mu.Lock()
	v.filter = term
	v.page = 1
	v.mu.Unlock()
	return v.Reload(ctx)
}

func (v *View) Filter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// ByName resolves a product from the cache by case-insensitive name.
func (v *View) ByName(name string) (catalog.Product, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range v.products {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return catalog.Product{}, false
}

// All returns a copy of the cached catalog.
func (v *View) All() []catalog.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]catalog.Product, len(v.products))
	copy(out, v.products)
	return out
}

func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Pages is ceil(len/PageSize).
func (v *View) Pages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return (len(v.products) + PageSize - 1) / PageSize
}

// SetPage jumps to a page; out-of-range values are ignored.
func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if page < 1 || (page-1)*PageSize >= len(v.products) {
		return
	}
	v.page = page
}

// Next advances one page; a no-op on the last page.
func (v *View) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page*PageSize >= len(v.products) {
		return
	}
	v.page++
}

// Prev goes back one page; a no-op on the first.
func (v *View) Prev() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page > 1 {
		v.page--
	}
}

// PageItems returns the current page slice.
func (v *View) PageItems() []catalog.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	first := (v.page - 1) * PageSize
	if first >= len(v.products) {
		return nil
	}
	last := first + PageSize
	if last > len(v.products) {
		last = len(v.products)
	}
	out := make([]catalog.Product, last-first)
	copy(out, v.products[first:last])
	return out
}

// Watch consumes the gateway change feed and reloads on every tick until
// ctx is done. Runs as a goroutine from main.
func (v *View) Watch(ctx context.Context) {
	ticks, cancel := v.gw.Subscribe(ctx)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			if err := v.Reload(ctx); err != nil {
				v.log.Warn("catalog reload failed", "err", err)
			}
		}
	}
}
