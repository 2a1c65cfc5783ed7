package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/staffdesk/internal/logger"
	"github.com/wolfeidau/staffdesk/internal/store"
	memorystore "github.com/wolfeidau/staffdesk/internal/store/memory"
	postgresstore "github.com/wolfeidau/staffdesk/internal/store/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

// setupLogging installs the configured logger as both the global logger and
// the context fallback, so packages logging through either honour --debug.
func setupLogging(debug bool) zerolog.Logger {
	l := logger.Setup(debug)
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// StoreFlags selects and configures the persistence backend.
type StoreFlags struct {
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"STAFFDESK_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns           int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns           int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime    int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime    int32 `help:"maximum connection idle time in seconds" default:"1800"`
	ConnectRetryWindow int32 `help:"how long to retry the initial connection in seconds" default:"30" env:"STAFFDESK_POSTGRES_CONNECT_RETRY"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"STAFFDESK_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// stores is the set of stores used by the directory, plus whatever is needed
// to release and health check them.
type stores struct {
	users       store.UserStore
	departments store.DepartmentStore
	employees   store.EmployeeStore
	audit       store.AuditStore

	ping  func(ctx context.Context) error
	close func()
}

func (f *StoreFlags) open(ctx context.Context) (*stores, error) {
	switch f.StoreType {
	case "postgres":
		pool, err := f.openPool(ctx)
		if err != nil {
			return nil, err
		}

		if f.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")
		return &stores{
			users:       postgresstore.NewUserStore(pool),
			departments: postgresstore.NewDepartmentStore(pool),
			employees:   postgresstore.NewEmployeeStore(pool),
			audit:       postgresstore.NewAuditStore(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	default:
		log.Info().Msg("Using in-memory stores")
		return &stores{
			users:       memorystore.NewUserStore(),
			departments: memorystore.NewDepartmentStore(),
			employees:   memorystore.NewEmployeeStore(),
			audit:       memorystore.NewAuditStore(),
			ping:        func(context.Context) error { return nil },
			close:       func() {},
		}, nil
	}
}

func (f *StoreFlags) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := f.PostgresStore.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
	}

	pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
		ConnString:         f.PostgresStore.ConnString,
		MaxConns:           f.PostgresStore.MaxConns,
		MinConns:           f.PostgresStore.MinConns,
		MaxConnLifetime:    f.PostgresStore.MaxConnLifetime,
		MaxConnIdleTime:    f.PostgresStore.MaxConnIdleTime,
		ConnectRetryWindow: f.PostgresStore.ConnectRetryWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return pool, nil
}
