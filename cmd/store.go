package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/circularity-cli/internal/catalog"
	"github.com/sells-group/circularity-cli/internal/config"
	"github.com/sells-group/circularity-cli/internal/resilience"
	"github.com/sells-group/circularity-cli/internal/service"
	"github.com/sells-group/circularity-cli/internal/store"
)

// initStore opens the configured store. Postgres connections are retried
// while the server is unreachable.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "circularity.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		retry := resilience.DefaultRetryConfig()
		retry.OnRetry = resilience.RetryLogger("postgres connect")
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
			pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
			if err != nil {
				return nil, err
			}
			return pg, nil
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openMigratedStore opens the store and applies pending migrations.
func openMigratedStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck,gosec
		return nil, err
	}
	return st, nil
}

func loadCatalog(c config.CatalogConfig) (*catalog.Catalog, error) {
	if c.Path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(c.Path)
}

// initService validates the config for mode and wires a service over a
// migrated store. The caller closes the returned store.
func initService(ctx context.Context, mode string) (*service.Service, store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, nil, err
	}

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load catalog")
	}

	st, err := openMigratedStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return service.New(st, cat, service.OptionsFromConfig(cfg)), st, nil
}
