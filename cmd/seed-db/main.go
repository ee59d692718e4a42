package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pizzeria/db"
	"github.com/xenking/pizzeria/internal/domain/catalog"
	"github.com/xenking/pizzeria/internal/storage/postgres"
)

const upsertWorkers = 4

type pizzaJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prices      struct {
		Small      decimal.Decimal `json:"small"`
		Medium     decimal.Decimal `json:"medium"`
		Large      decimal.Decimal `json:"large"`
		ExtraLarge decimal.Decimal `json:"extra-large"`
	} `json:"prices"`
}

func (p pizzaJSON) item() catalog.Item {
	return catalog.Item{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Prices: catalog.Prices{
			catalog.SizeSmall:      p.Prices.Small,
			catalog.SizeMedium:     p.Prices.Medium,
			catalog.SizeLarge:      p.Prices.Large,
			catalog.SizeExtraLarge: p.Prices.ExtraLarge,
		},
	}
}

func main() {
	var (
		databaseURL string
		pizzasFile  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&pizzasFile, "pizzas-file", "", "path to a pizzas JSON file, optionally .gz (defaults to the built-in menu)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, pizzasFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, pizzasFile string) error {
	items, err := loadPizzas(pizzasFile)
	if err != nil {
		return errors.Wrap(err, "load pizzas")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedPizzas(ctx, postgres.NewCatalogRepository(pool), items)
}

// loadPizzas reads and validates the menu. An empty path selects the
// embedded default; a .gz suffix is decompressed with pgzip.
func loadPizzas(path string) ([]catalog.Item, error) {
	var r io.Reader = bytes.NewReader(db.Pizzas)
	if path != "" {
		slog.Info("reading pizzas file", slog.String("path", path))

		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open pizzas file")
		}
		defer f.Close()
		r = f

		if strings.HasSuffix(path, ".gz") {
			gz, err := pgzip.NewReader(f)
			if err != nil {
				return nil, errors.Wrap(err, "open gzip reader")
			}
			defer gz.Close()
			r = gz
		}
	}

	var raw []pizzaJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse pizzas JSON")
	}

	items := make([]catalog.Item, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, p := range raw {
		if p.ID == "" {
			return nil, errors.Errorf("pizza %q has no id", p.Name)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, errors.Errorf("duplicate pizza id %q", p.ID)
		}
		seen[p.ID] = struct{}{}

		item := p.item()
		if err := item.Validate(); err != nil {
			return nil, errors.Wrapf(err, "pizza %s", p.ID)
		}
		items = append(items, item)
	}
	return items, nil
}

func seedPizzas(ctx context.Context, repo *postgres.CatalogRepository, items []catalog.Item) error {
	slog.Info("upserting pizzas", slog.Int("count", len(items)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertWorkers)
	for i := range items {
		item := &items[i]
		g.Go(func() error {
			if err := repo.Upsert(ctx, item); err != nil {
				return errors.Wrapf(err, "upsert pizza %s", item.ID)
			}
			slog.Info("upserted pizza", slog.String("id", item.ID), slog.String("name", item.Name))
			return nil
		})
	}
	return g.Wait()
}
