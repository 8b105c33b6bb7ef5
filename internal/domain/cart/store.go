package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/freshkart/pos/internal/domain/catalog"
	"github.com/freshkart/pos/internal/domain/ledger"
)

// Validation rejections. Checked before any remote call is made; the line
// is left untouched when one of these comes back.
var (
	ErrAlreadyInCart     = errors.New("item already in cart")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("not enough inventory for additional quantity")
	ErrNotInCart         = errors.New("item not in cart")
	ErrBadWeight         = errors.New("weight is not one of the selectable options")
	ErrBadQuantity       = errors.New("quantity must be at least 1")
)

// ErrRemote wraps ledger failures. By the time it is returned the local
// cart mutation has already been applied (optimistic, per the original
// behavior); callers surface it as a non-blocking warning.
var ErrRemote = errors.New("remote inventory update failed")

// LocalState persists the cart between restarts, the localStorage analog.
type LocalState interface {
	SaveCart(lines []Line) error
	LoadCart() ([]Line, error)
}

// Store holds the session's cart lines, keyed case-insensitively by product
// name, insertion-ordered. All four mutators below are the only writers of
// cart state, and each settles its inventory delta through the ledger
// before (or while) touching local state.
type Store struct {
	ledger  *ledger.Ledger
	state   LocalState // optional
	resolve func(name string) (catalog.Product, bool)
	log     *slog.Logger

	mu    sync.Mutex
	lines []Line
}

// New builds a Store. resolve maps a product name to the last cached
// catalog row (normally view.ByName); it may miss after upstream deletes,
// in which case mutations skip the ledger but still apply locally.
func New(l *ledger.Ledger, state LocalState, resolve func(string) (catalog.Product, bool), log *slog.Logger) *Store {
	s := &Store{ledger: l, state: state, resolve: resolve, log: log}
	if state != nil {
		lines, err := state.LoadCart()
		if err != nil {
			log.Warn("cart restore failed", "err", err)
		} else {
			s.lines = lines
		}
	}
	return s
}

// Add puts a product into the cart with the default weight and quantity 1
// and reserves 1000 g against the catalog.
func (s *Store) Add(ctx context.Context, p catalog.Product) error {
	s.mu.Lock()
	if s.indexOf(p.Name) >= 0 {
		s.mu.Unlock()
		return ErrAlreadyInCart
	}
	if p.InventoryKg <= 0 {
		s.mu.Unlock()
		return ErrOutOfStock
	}
	s.lines = append(s.lines, Line{
		Product:     p.Name,
		PricePerKg:  p.PricePerKg,
		WeightGrams: DefaultWeightGrams,
		Quantity:    1,
	})
	s.persistLocked()
	s.mu.Unlock()

	return s.settle(ctx, p.ID, -float64(DefaultWeightGrams)/1000)
}

// ResizeWeight switches the line to another pack weight. The inventory
// delta is settled first, then the weight is updated unconditionally; the
// two steps are deliberately not atomic with each other.
func (s *Store) ResizeWeight(ctx context.Context, name string, grams int) error {
	if !validWeight(grams) {
		return ErrBadWeight
	}
	s.mu.Lock()
	i := s.indexOf(name)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotInCart
	}
	old := s.lines[i].WeightGrams
	s.lines[i].WeightGrams = grams
	s.persistLocked()
	s.mu.Unlock()

	p, ok := s.resolve(name)
	if !ok {
		s.log.Warn("cart line no longer resolves, weight changed without reservation", "product", name)
		return nil
	}
	return s.settle(ctx, p.ID, -float64(grams-old)/1000)
}

// ResizeQuantity changes the unit count. An increase is pre-checked against
// the cached inventory and rejected outright when it does not fit, with no
// remote call in that case. A decrease releases unconditionally.
func (s *Store) ResizeQuantity(ctx context.Context, name string, quantity int) error {
	if quantity < 1 {
		return ErrBadQuantity
	}
	s.mu.Lock()
	i := s.indexOf(name)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotInCart
	}
	line := s.lines[i]
	diff := quantity - line.Quantity

	p, resolved := s.resolve(name)
	if resolved && diff > 0 {
		neededKg := float64(diff) * float64(line.WeightGrams) / 1000
		if p.InventoryKg < neededKg {
			s.mu.Unlock()
			return ErrInsufficientStock
		}
	}
	s.lines[i].Quantity = quantity
	s.persistLocked()
	s.mu.Unlock()

	if !resolved || diff == 0 {
		return nil
	}
	return s.settle(ctx, p.ID, -float64(diff)*float64(line.WeightGrams)/1000)
}

// Remove drops the line and releases everything it had reserved.
func (s *Store) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	i := s.indexOf(name)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotInCart
	}
	released := s.lines[i].ReservedKg()
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persistLocked()
	s.mu.Unlock()

	p, ok := s.resolve(name)
	if !ok {
		return nil
	}
	return s.settle(ctx, p.ID, released)
}

// Clear empties the cart without touching the ledger. Checkout calls this
// after recording bills; the reserved stock stays sold.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.persistLocked()
	s.mu.Unlock()
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total is the cart grand total across all lines.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, l := range s.lines {
		sum += l.Total()
	}
	return sum
}

func (s *Store) indexOf(name string) int {
	key := foldName(name)
	for i, l := range s.lines {
		if foldName(l.Product) == key {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if s.state == nil {
		return
	}
	if err := s.state.SaveCart(s.lines); err != nil {
		s.log.Warn("cart persist failed", "err", err)
	}
}

func (s *Store) settle(ctx context.Context, productID int64, deltaKg float64) error {
	if err := s.ledger.Reserve(ctx, productID, deltaKg); err != nil {
		s.log.Warn("inventory adjustment failed", "product_id", productID, "delta_kg", deltaKg, "err", err)
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return nil
}
