// Package billing turns the current cart into immutable billing records at
// checkout and renders the export variants.
package billing

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/freshkart/pos/internal/domain/cart"
	"github.com/freshkart/pos/internal/domain/catalog"
	"github.com/freshkart/pos/internal/infra/metrics"
)

type Recorder struct {
	gw  catalog.Gateway
	log *slog.Logger
	m   *metrics.Set
}

func NewRecorder(gw catalog.Gateway, log *slog.Logger, m *metrics.Set) *Recorder {
	return &Recorder{gw: gw, log: log, m: m}
}

// Receipt summarizes a checkout batch.
type Receipt struct {
	BatchID string  `json:"batch_id"`
	Records int     `json:"records"`
	Dropped int     `json:"dropped"`
	Total   float64 `json:"total"`
}

// Checkout resolves each cart line to a product id through resolve
// (normally the catalog view cache) and batch-inserts one Bill per resolved
// line. Lines whose product no longer resolves are dropped from the batch,
// not fatal to the checkout. The caller clears the cart unconditionally
// afterwards, whatever came back from here.
func (r *Recorder) Checkout(ctx context.Context, customerName string, lines []cart.Line,
	resolve func(name string) (catalog.Product, bool)) (Receipt, error) {

	rec := Receipt{BatchID: uuid.NewString()}
	var bills []catalog.Bill
	for _, l := range lines {
		p, ok := resolve(l.Product)
		if !ok {
			rec.Dropped++
			r.log.Warn("cart line no longer resolves, dropped from billing batch",
				"batch_id", rec.BatchID, "product", l.Product)
			continue
		}
		bills = append(bills, catalog.Bill{
			ProductID:    p.ID,
			CustomerName: customerName,
			Quantity:     l.Quantity,
			PricePerKg:   l.PricePerKg,
			WeightGrams:  l.WeightGrams,
			TotalPrice:   l.Total(),
		})
		rec.Total += l.Total()
	}
	rec.Records = len(bills)

	if err := r.gw.InsertBills(ctx, bills); err != nil {
		r.log.Error("billing batch insert failed", "batch_id", rec.BatchID, "records", rec.Records, "err", err)
		return rec, err
	}
	r.m.Checkout(rec.Records)
	r.log.Info("checkout recorded", "batch_id", rec.BatchID,
		"records", rec.Records, "dropped", rec.Dropped, "total", rec.Total)
	return rec, nil
}
