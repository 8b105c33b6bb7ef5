package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is the Postgres-backed Gateway. Change notifications ride on
// LISTEN/NOTIFY: a trigger installed by the migrations fires
// 'products_changed' on any write to the products table.
type PG struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPG(pool *pgxpool.Pool, log *slog.Logger) *PG {
	return &PG{pool: pool, log: log}
}

const productCols = `id, product_name, price, inventory, image_url`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PricePerKg, &p.InventoryKg, &p.ImageURL)
	return p, err
}

func (g *PG) ListAll(ctx context.Context) ([]Product, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT `+productCols+`
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (g *PG) Search(ctx context.Context, substring string) ([]Product, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT `+productCols+`
		FROM products
		WHERE product_name ILIKE '%' || $1 || '%'
		ORDER BY id
	`, substring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (g *PG) GetInventory(ctx context.Context, id int64) (float64, error) {
	var kg float64
	err := g.pool.
		QueryRow(ctx, `SELECT inventory FROM products WHERE id = $1`, id).
		Scan(&kg)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("product %d not found", id)
	}
	return kg, err
}

func (g *PG) SetInventory(ctx context.Context, id int64, kg float64) error {
	tag, err := g.pool.Exec(ctx, `UPDATE products SET inventory = $2 WHERE id = $1`, id, kg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d not found", id)
	}
	return nil
}

func (g *PG) Insert(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := g.pool.QueryRow(ctx, `
		INSERT INTO products (product_name, price, inventory, image_url)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, p.Name, p.PricePerKg, p.InventoryKg, p.ImageURL).Scan(&id)
	return id, err
}

func (g *PG) Update(ctx context.Context, id int64, patch Patch) error {
	tag, err := g.pool.Exec(ctx, `
		UPDATE products SET
			product_name = COALESCE($2, product_name),
			price        = COALESCE($3, price),
			inventory    = COALESCE($4, inventory),
			image_url    = COALESCE($5, image_url)
		WHERE id = $1
	`, id, patch.Name, patch.PricePerKg, patch.InventoryKg, patch.ImageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d not found", id)
	}
	return nil
}

func (g *PG) Subscribe(ctx context.Context) (<-chan struct{}, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan struct{}, 1)
	go g.listen(ctx, ch)
	return ch, cancel
}

func (g *PG) listen(ctx context.Context, ch chan<- struct{}) {
	defer close(ch)
	for {
		err := g.waitForChanges(ctx, ch)
		if ctx.Err() != nil {
			return
		}
		g.log.Warn("catalog listener dropped, reconnecting", "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (g *PG) waitForChanges(ctx context.Context, ch chan<- struct{}) error {
	// A dedicated connection: LISTEN is per-session.
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN products_changed`); err != nil {
		return err
	}
	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			return err
		}
		// Coalesce bursts: one pending tick is enough, the consumer
		// reloads the whole catalog anyway.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (g *PG) InsertBills(ctx context.Context, bills []Bill) error {
	if len(bills) == 0 {
		return nil
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, b := range bills {
		if _, err := tx.Exec(ctx, `
			INSERT INTO bills (product_id, customer_name, quantity, price_per_kg, weight, total_price)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, b.ProductID, b.CustomerName, b.Quantity, b.PricePerKg, b.WeightGrams, b.TotalPrice); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (g *PG) ListBills(ctx context.Context) ([]Bill, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT id, product_id, customer_name, quantity, price_per_kg, weight, total_price, created_at
		FROM bills
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.ProductID, &b.CustomerName, &b.Quantity,
			&b.PricePerKg, &b.WeightGrams, &b.TotalPrice, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
