package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria/internal/domain/catalog"
)

const (
	pizzaColumns = `id, name, description, price_small, price_medium, price_large, price_extra_large`

	listPizzasSQL = `SELECT ` + pizzaColumns + ` FROM pizzas ORDER BY created_at, id`

	getPizzaSQL = `SELECT ` + pizzaColumns + ` FROM pizzas WHERE id = $1`

	createPizzaSQL = `INSERT INTO pizzas (` + pizzaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updatePizzaSQL = `UPDATE pizzas SET name = $2, description = $3,
		price_small = $4, price_medium = $5, price_large = $6, price_extra_large = $7
		WHERE id = $1`

	deletePizzaSQL = `DELETE FROM pizzas WHERE id = $1`

	upsertPizzaSQL = createPizzaSQL + `
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
		price_small = EXCLUDED.price_small, price_medium = EXCLUDED.price_medium,
		price_large = EXCLUDED.price_large, price_extra_large = EXCLUDED.price_extra_large`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns every pizza in creation order.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listPizzasSQL)
	if err != nil {
		return nil, fmt.Errorf("listing pizzas: %w", err)
	}
	return pgx.CollectRows(rows, scanPizza)
}

// Get returns a single pizza by its identifier.
func (r *CatalogRepository) Get(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getPizzaSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting pizza %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanPizza)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting pizza %q: %w", id, err)
	}
	return &item, nil
}

// Create inserts a new pizza.
func (r *CatalogRepository) Create(ctx context.Context, item *catalog.Item) error {
	_, err := r.pool.Exec(ctx, createPizzaSQL, pizzaArgs(item)...)
	if err != nil {
		return fmt.Errorf("creating pizza %q: %w", item.ID, err)
	}
	return nil
}

// Update overwrites every column of an existing pizza.
func (r *CatalogRepository) Update(ctx context.Context, item *catalog.Item) error {
	tag, err := r.pool.Exec(ctx, updatePizzaSQL, pizzaArgs(item)...)
	if err != nil {
		return fmt.Errorf("updating pizza %q: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes a pizza.
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deletePizzaSQL, id)
	if err != nil {
		return fmt.Errorf("deleting pizza %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Upsert inserts a pizza or overwrites the one with the same id.
func (r *CatalogRepository) Upsert(ctx context.Context, item *catalog.Item) error {
	if _, err := r.pool.Exec(ctx, upsertPizzaSQL, pizzaArgs(item)...); err != nil {
		return fmt.Errorf("upserting pizza %q: %w", item.ID, err)
	}
	return nil
}

func pizzaArgs(item *catalog.Item) []any {
	return []any{
		item.ID, item.Name, item.Description,
		item.Prices[catalog.SizeSmall],
		item.Prices[catalog.SizeMedium],
		item.Prices[catalog.SizeLarge],
		item.Prices[catalog.SizeExtraLarge],
	}
}

func scanPizza(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		item                          catalog.Item
		small, medium, large, xlarge decimal.Decimal
	)
	err := row.Scan(&item.ID, &item.Name, &item.Description, &small, &medium, &large, &xlarge)
	item.Prices = catalog.Prices{
		catalog.SizeSmall:      small,
		catalog.SizeMedium:     medium,
		catalog.SizeLarge:      large,
		catalog.SizeExtraLarge: xlarge,
	}
	return item, err
}
