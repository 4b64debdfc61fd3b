package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/unitdesk/internal/audit"
	audithttp "github.com/odyssey-erp/unitdesk/internal/audit/http"
	"github.com/odyssey-erp/unitdesk/internal/auth"
	"github.com/odyssey-erp/unitdesk/internal/inventory"
	"github.com/odyssey-erp/unitdesk/internal/masterdata/products"
	"github.com/odyssey-erp/unitdesk/internal/observability"
	"github.com/odyssey-erp/unitdesk/internal/sales/customers"
	"github.com/odyssey-erp/unitdesk/internal/sales/invoices"
)

// Stores groups the persistence ports of every component.
type Stores struct {
	Units     inventory.Store
	Customers customers.Repository
	Products  products.Repository
	Audit     audit.Store
}

// PostgresStores returns pgx-backed stores sharing pool.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Units:     inventory.NewRepository(pool),
		Customers: customers.NewRepository(pool),
		Products:  products.NewRepository(pool),
		Audit:     audit.NewRepository(pool),
	}
}

// MemoryStores returns in-process stores. Data is lost on restart.
func MemoryStores() Stores {
	return Stores{
		Units:     inventory.NewMemoryStore(),
		Customers: customers.NewMemoryRepository(),
		Products:  products.NewMemoryRepository(),
		Audit:     audit.NewMemoryStore(),
	}
}

// Services holds the wired domain services.
type Services struct {
	Gate      *auth.Gate
	Products  *products.Service
	Customers *customers.Service
	Audit     *audit.Service
	Inventory *inventory.Service
	Invoices  *invoices.Service
}

// NewServices wires services over stores. A nil redis client disables the
// status-count cache.
func NewServices(cfg *Config, logger *slog.Logger, metrics *observability.Metrics, stores Stores, redisClient *redis.Client) *Services {
	gate := auth.NewGate(metrics, cfg.OverridePairs()...)
	catalog := products.NewService(stores.Products)
	resolver := customers.NewService(stores.Customers, logger, cfg.SuggestLimit)
	auditService := audit.NewService(stores.Audit)

	var statusCache *inventory.StatusCache
	if redisClient != nil {
		statusCache = inventory.NewStatusCache(redisClient, cfg.StatusCacheTTL)
	}
	units := inventory.NewService(stores.Units, catalog, resolver, gate, auditService, inventory.ServiceConfig{
		ChunkSize: cfg.UnitChunkSize,
		Cache:     statusCache,
		Metrics:   metrics,
		Logger:    logger,
	})
	return &Services{
		Gate:      gate,
		Products:  catalog,
		Customers: resolver,
		Audit:     auditService,
		Inventory: units,
		Invoices:  invoices.NewService(units, catalog),
	}
}

// Handlers builds the HTTP handlers of every service.
func (s *Services) Handlers(logger *slog.Logger) Handlers {
	return Handlers{
		Products:  products.NewHandler(logger, s.Products),
		Customers: customers.NewHandler(logger, s.Customers),
		Inventory: inventory.NewHandler(logger, s.Inventory),
		Invoices:  invoices.NewHandler(logger, s.Invoices),
		Audit:     audithttp.NewHandler(logger, s.Audit),
	}
}

// Handlers groups the API handlers mounted under /api/v1.
type Handlers struct {
	Products  *products.Handler
	Customers *customers.Handler
	Inventory *inventory.Handler
	Invoices  *invoices.Handler
	Audit     *audithttp.Handler
}
