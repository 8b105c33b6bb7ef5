package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Gateway with the same observable contract as PG,
// including the coalesced change feed. Used by tests and by demo mode.
type Memory struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]Product
	bills    []Bill
	nextBill int64
	subs     map[int64]chan struct{}
	nextSub  int64
}

func NewMemory() *Memory {
	return &Memory{
		nextID:   1,
		nextBill: 1,
		products: map[int64]Product{},
		subs:     map[int64]chan struct{}{},
	}
}

func (m *Memory) ListAll(_ context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(""), nil
}

func (m *Memory) Search(_ context.Context, substring string) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(substring), nil
}

// snapshot returns matching products ordered by id. Callers hold mu.
func (m *Memory) snapshot(substring string) []Product {
	needle := strings.ToLower(substring)
	var out []Product
	for _, p := range m.products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) GetInventory(_ context.Context, id int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return 0, fmt.Errorf("product %d not found", id)
	}
	return p.InventoryKg, nil
}

func (m *Memory) SetInventory(_ context.Context, id int64, kg float64) error {
	m.mu.Lock()
	p, ok := m.products[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("product %d not found", id)
	}
	p.InventoryKg = kg
	m.products[id] = p
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Memory) Insert(_ context.Context, p Product) (int64, error) {
	m.mu.Lock()
	p.ID = m.nextID
	m.nextID++
	m.products[p.ID] = p
	m.mu.Unlock()
	m.notify()
	return p.ID, nil
}

func (m *Memory) Update(_ context.Context, id int64, patch Patch) error {
	m.mu.Lock()
	p, ok := m.products[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("product %d not found", id)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.PricePerKg != nil {
		p.PricePerKg = *patch.PricePerKg
	}
	if patch.InventoryKg != nil {
		p.InventoryKg = *patch.InventoryKg
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	m.products[id] = p
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Memory) Subscribe(ctx context.Context) (<-chan struct{}, func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan struct{}, 1)
	m.subs[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
		m.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

func (m *Memory) notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (m *Memory) InsertBills(_ context.Context, bills []Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, b := range bills {
		b.ID = m.nextBill
		m.nextBill++
		b.CreatedAt = now
		m.bills = append(m.bills, b)
	}
	return nil
}

func (m *Memory) ListBills(_ context.Context) ([]Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Bill, len(m.bills))
	copy(out, m.bills)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
