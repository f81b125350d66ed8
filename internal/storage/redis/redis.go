// Package redis persists unlock state in Redis lists using go-redis v9.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/unlock"
)

// DefaultKeyPrefix namespaces every key when the config leaves it empty.
const DefaultKeyPrefix = "choiceman"

// ErrEmptyAccount is returned when a repository is built without an account key.
var ErrEmptyAccount = errors.New("redis: account must not be empty")

// NewClient creates a client from cfg. Redis connects lazily, so the
// returned client is only checked by Ping.
//
// Precondition: cfg.Addr must be non-empty.
func NewClient(cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// Ping checks that the server answers within timeout.
func Ping(ctx context.Context, client goredis.Cmdable, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// UnlockRepository stores one account's sets as two lists plus a marker key
// recording that the account has been saved. It implements unlock.Persister.
type UnlockRepository struct {
	client  goredis.Cmdable
	prefix  string
	account string
}

// NewUnlockRepository creates a repository for account under prefix.
//
// Precondition: client must be non-nil.
// Postcondition: returns ErrEmptyAccount when account is blank.
func NewUnlockRepository(client goredis.Cmdable, prefix, account string) (*UnlockRepository, error) {
	if account == "" {
		return nil, ErrEmptyAccount
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &UnlockRepository{client: client, prefix: prefix, account: account}, nil
}

// Account returns the account key this repository reads and writes.
func (r *UnlockRepository) Account() string { return r.account }

func (r *UnlockRepository) key(suffix string) string {
	return r.prefix + ":" + r.account + ":" + suffix
}

// Load reads both lists. An account that has never been saved yields nil sets.
func (r *UnlockRepository) Load(ctx context.Context) (unlock.State, error) {
	n, err := r.client.Exists(ctx, r.key("saved")).Result()
	if err != nil {
		return unlock.State{}, fmt.Errorf("redis: checking %q: %w", r.account, err)
	}
	if n == 0 {
		return unlock.State{}, nil
	}

	unlocked, err := r.client.LRange(ctx, r.key("unlocked"), 0, -1).Result()
	if err != nil {
		return unlock.State{}, fmt.Errorf("redis: reading unlocked for %q: %w", r.account, err)
	}
	obtained, err := r.client.LRange(ctx, r.key("obtained"), 0, -1).Result()
	if err != nil {
		return unlock.State{}, fmt.Errorf("redis: reading obtained for %q: %w", r.account, err)
	}
	return unlock.State{Unlocked: nonNil(unlocked), Obtained: nonNil(obtained)}, nil
}

// Save replaces both lists inside one MULTI/EXEC transaction.
//
// Postcondition: readers see either the previous or the new lists, never a mix.
func (r *UnlockRepository) Save(ctx context.Context, s unlock.State) error {
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.key("unlocked"), r.key("obtained"))
		if len(s.Unlocked) > 0 {
			pipe.RPush(ctx, r.key("unlocked"), toArgs(s.Unlocked)...)
		}
		if len(s.Obtained) > 0 {
			pipe.RPush(ctx, r.key("obtained"), toArgs(s.Obtained)...)
		}
		pipe.Set(ctx, r.key("saved"), time.Now().UTC().Format(time.RFC3339), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: saving %q: %w", r.account, err)
	}
	return nil
}

// ListAccounts returns every account with saved state under prefix, sorted.
func ListAccounts(ctx context.Context, client goredis.Cmdable, prefix string) ([]string, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	var (
		cursor   uint64
		accounts []string
	)
	pattern := prefix + ":*:saved"
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: scanning accounts: %w", err)
		}
		for _, k := range keys {
			account := strings.TrimSuffix(strings.TrimPrefix(k, prefix+":"), ":saved")
			accounts = append(accounts, account)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(accounts)
	return accounts, nil
}

func toArgs(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
