// Package backend opens the unlock-state persister selected by configuration.
package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/unlock"
	"github.com/cory-johannsen/choiceman/internal/observability"
	"github.com/cory-johannsen/choiceman/internal/storage/postgres"
	"github.com/cory-johannsen/choiceman/internal/storage/redis"
)

const pingTimeout = 5 * time.Second

// Handle is an open storage backend.
type Handle struct {
	// Backend is the configured backend name.
	Backend string
	// Account is the account the default persister is scoped to.
	Account string

	forAccount func(account string) (unlock.Persister, error)
	accounts   func(ctx context.Context) ([]string, error)
	close      func()
	timeout    time.Duration
}

// Persister returns the persister for the configured account.
func (h *Handle) Persister() (unlock.Persister, error) {
	return h.ForAccount(h.Account)
}

// ForAccount returns a persister scoped to account. The file backend keeps
// one account per directory; account names a subdirectory of storage.dir
// unless it equals the configured account.
func (h *Handle) ForAccount(account string) (unlock.Persister, error) {
	p, err := h.forAccount(account)
	if err != nil {
		return nil, err
	}
	return unlock.WithTimeout(p, h.timeout), nil
}

// Accounts lists the accounts with saved state.
func (h *Handle) Accounts(ctx context.Context) ([]string, error) {
	return h.accounts(ctx)
}

// Close releases the backend's connections.
func (h *Handle) Close() {
	if h.close != nil {
		h.close()
	}
}

// Open connects to the backend named by cfg.Storage.Backend.
//
// Precondition: cfg must have passed Validate.
// Postcondition: on nil error the caller must Close the handle.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Handle, error) {
	logger = observability.Component(logger, "storage")
	h := &Handle{Backend: cfg.Storage.Backend, Account: cfg.Storage.Account, timeout: cfg.Storage.Timeout}

	switch cfg.Storage.Backend {
	case config.BackendFile:
		root := cfg.Storage.Dir
		h.forAccount = func(account string) (unlock.Persister, error) {
			if account == "" || account == cfg.Storage.Account {
				return unlock.NewFilePersister(root), nil
			}
			if filepath.Base(account) != account || account == "." || account == ".." {
				return nil, fmt.Errorf("backend: invalid account %q", account)
			}
			return unlock.NewFilePersister(filepath.Join(root, account)), nil
		}
		h.accounts = func(context.Context) ([]string, error) {
			return []string{cfg.Storage.Account}, nil
		}
		logger.Info("using file storage", zap.String("dir", root))

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		db := pool.DB()
		h.forAccount = func(account string) (unlock.Persister, error) {
			return postgres.NewUnlockRepository(db, account)
		}
		h.accounts = func(ctx context.Context) ([]string, error) {
			return postgres.ListAccounts(ctx, db)
		}
		h.close = pool.Close
		logger.Info("using postgres storage", zap.String("host", cfg.Database.Host), zap.String("account", h.Account))

	case config.BackendRedis:
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		if err := redis.Ping(ctx, client, pingTimeout); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("backend: %w", err)
		}
		prefix := cfg.Redis.KeyPrefix
		h.forAccount = func(account string) (unlock.Persister, error) {
			return redis.NewUnlockRepository(client, prefix, account)
		}
		h.accounts = func(ctx context.Context) ([]string, error) {
			return redis.ListAccounts(ctx, client, prefix)
		}
		h.close = func() { _ = client.Close() }
		logger.Info("using redis storage", zap.String("addr", cfg.Redis.Addr), zap.String("account", h.Account))

	default:
		return nil, fmt.Errorf("backend: unknown storage backend %q", cfg.Storage.Backend)
	}
	return h, nil
}
