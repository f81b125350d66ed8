package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/choiceman/internal/game/unlock"
)

// Row kinds stored in unlock_state.kind.
const (
	KindUnlocked = "unlocked"
	KindObtained = "obtained"
)

// ErrEmptyAccount is returned when a repository is built without an account key.
var ErrEmptyAccount = errors.New("postgres: account must not be empty")

// UnlockRepository persists one account's unlock and obtain sets.
// It implements unlock.Persister.
type UnlockRepository struct {
	db      *pgxpool.Pool
	account string
}

// NewUnlockRepository creates an UnlockRepository for account.
//
// Precondition: db must be a valid, open connection pool.
// Postcondition: returns ErrEmptyAccount when account is blank.
func NewUnlockRepository(db *pgxpool.Pool, account string) (*UnlockRepository, error) {
	if account == "" {
		return nil, ErrEmptyAccount
	}
	return &UnlockRepository{db: db, account: account}, nil
}

// Account returns the account key this repository reads and writes.
func (r *UnlockRepository) Account() string { return r.account }

// Load reads both sets in their saved order. An account that has never been
// saved yields nil sets.
func (r *UnlockRepository) Load(ctx context.Context) (unlock.State, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM unlock_accounts WHERE account = $1)`,
		r.account,
	).Scan(&exists)
	if err != nil {
		return unlock.State{}, fmt.Errorf("checking account %q: %w", r.account, err)
	}
	if !exists {
		return unlock.State{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT kind, base FROM unlock_state
		 WHERE account = $1
		 ORDER BY kind, ordinal`,
		r.account,
	)
	if err != nil {
		return unlock.State{}, fmt.Errorf("querying unlock state for %q: %w", r.account, err)
	}
	defer rows.Close()

	st := unlock.State{Unlocked: []string{}, Obtained: []string{}}
	for rows.Next() {
		var kind, base string
		if err := rows.Scan(&kind, &base); err != nil {
			return unlock.State{}, fmt.Errorf("scanning unlock state: %w", err)
		}
		switch kind {
		case KindUnlocked:
			st.Unlocked = append(st.Unlocked, base)
		case KindObtained:
			st.Obtained = append(st.Obtained, base)
		}
	}
	if err := rows.Err(); err != nil {
		return unlock.State{}, fmt.Errorf("iterating unlock state: %w", err)
	}
	return st, nil
}

// Save replaces the account's rows in one transaction.
//
// Postcondition: either every row of s is stored or the previous rows remain.
func (r *UnlockRepository) Save(ctx context.Context, s unlock.State) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO unlock_accounts (account) VALUES ($1)
		 ON CONFLICT (account) DO UPDATE SET saved_at = NOW()`,
		r.account,
	); err != nil {
		return fmt.Errorf("upserting account %q: %w", r.account, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM unlock_state WHERE account = $1`, r.account); err != nil {
		return fmt.Errorf("clearing unlock state for %q: %w", r.account, err)
	}

	batch := &pgx.Batch{}
	queue := func(kind string, bases []string) {
		for i, base := range bases {
			batch.Queue(
				`INSERT INTO unlock_state (account, kind, base, ordinal) VALUES ($1, $2, $3, $4)
				 ON CONFLICT DO NOTHING`,
				r.account, kind, base, i,
			)
		}
	}
	queue(KindUnlocked, s.Unlocked)
	queue(KindObtained, s.Obtained)
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting unlock state for %q: %w", r.account, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing unlock state for %q: %w", r.account, err)
	}
	return nil
}

// Accounts lists every account with saved state, sorted by key.
func (r *UnlockRepository) Accounts(ctx context.Context) ([]string, error) {
	return ListAccounts(ctx, r.db)
}

// ListAccounts lists every account with saved state, sorted by key.
func ListAccounts(ctx context.Context, db *pgxpool.Pool) ([]string, error) {
	rows, err := db.Query(ctx, `SELECT account FROM unlock_accounts ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning accounts: %w", err)
	}
	return accounts, nil
}
