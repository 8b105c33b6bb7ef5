package catalog

import "context"

// Gateway is the contract against the remote product catalog. The core
// consumes it; the Postgres implementation lives in pg.go and an in-memory
// one in memory.go.
//
// There is deliberately no transaction around GetInventory/SetInventory:
// the ledger does an optimistic read-modify-write and concurrent writers
// race with last-write-wins. Acceptable for a single small store.
type Gateway interface {
	// ListAll returns every product ordered by id ascending.
	ListAll(ctx context.Context) ([]Product, error)
	// Search returns products whose name contains the substring,
	// case-insensitive, ordered by id ascending.
	Search(ctx context.Context, substring string) ([]Product, error)

	GetInventory(ctx context.Context, id int64) (float64, error)
	SetInventory(ctx context.Context, id int64, kg float64) error

	Insert(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, id int64, patch Patch) error

	// Subscribe returns a channel that ticks whenever any client changes
	// the catalog, and a func to cancel the subscription. Ticks carry no
	// payload: the consumer reloads the whole catalog.
	Subscribe(ctx context.Context) (<-chan struct{}, func())

	InsertBills(ctx context.Context, bills []Bill) error
	// ListBills returns billing records ordered by creation time descending.
	ListBills(ctx context.Context) ([]Bill, error)
}
