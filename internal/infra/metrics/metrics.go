package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set holds the counters exposed on /metrics. A nil *Set is valid and
// records nothing, so core packages can run without metrics in tests.
type Set struct {
	ReservedKg  prometheus.Counter
	ReleasedKg  prometheus.Counter
	LedgerFails prometheus.Counter
	Checkouts   prometheus.Counter
	BillsTotal  prometheus.Counter
}

func New() *Set {
	s := &Set{
		ReservedKg: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_inventory_reserved_kg_total",
			Help: "Kilograms reserved from the catalog by cart operations.",
		}),
		ReleasedKg: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_inventory_released_kg_total",
			Help: "Kilograms released back to the catalog by cart operations.",
		}),
		LedgerFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_ledger_failures_total",
			Help: "Failed remote inventory read/write round trips.",
		}),
		Checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_checkouts_total",
			Help: "Completed checkouts.",
		}),
		BillsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_billing_records_total",
			Help: "Billing records written at checkout.",
		}),
	}
	prometheus.MustRegister(s.ReservedKg, s.ReleasedKg, s.LedgerFails, s.Checkouts, s.BillsTotal)
	return s
}

func (s *Set) AddReserved(kg float64) {
	if s == nil {
		return
	}
	s.ReservedKg.Add(kg)
}

func (s *Set) AddReleased(kg float64) {
	if s == nil {
		return
	}
	s.ReleasedKg.Add(kg)
}

func (s *Set) LedgerFail() {
	if s == nil {
		return
	}
	s.LedgerFails.Inc()
}

func (s *Set) Checkout(records int) {
	if s == nil {
		return
	}
	s.Checkouts.Inc()
	s.BillsTotal.Add(float64(records))
}
