package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/catalog"
	"github.com/cory-johannsen/choiceman/internal/game/unlock"
	"github.com/cory-johannsen/choiceman/internal/observability"
	"github.com/cory-johannsen/choiceman/internal/storage/backend"
)

type options struct {
	configPath string
	account    string
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{out: out}
	root := &cobra.Command{
		Use:           "unlockctl",
		Short:         "Inspect and edit persisted unlock state",
		Long:          `unlockctl reads and writes the unlocked and obtained sets of an account in the configured storage backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/dev.yaml", "path to configuration file")
	root.PersistentFlags().StringVar(&opts.account, "account", "", "account to operate on (default: storage.account)")

	root.AddCommand(
		newAccountsCmd(opts),
		newListCmd(opts),
		newUnlockCmd(opts),
		newPruneCmd(opts),
	)
	return root
}

// session is an opened backend plus a store over the selected account.
type session struct {
	handle *backend.Handle
	index  *catalog.Index
	store  *unlock.Store
}

func (s *session) close() { s.handle.Close() }

func open(ctx context.Context, opts *options) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "warn", Format: "console"})
	if err != nil {
		logger = zap.NewNop()
	}

	idx := catalog.NewIndex(logger)
	if err := idx.LoadDefault(cfg.Rules.CatalogPath); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	if cfg.Rules.SupplementaryCatalogPath != "" {
		_ = idx.LoadSupplementaryFile(cfg.Rules.SupplementaryCatalogPath)
	}

	h, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	account := opts.account
	if account == "" {
		account = cfg.Storage.Account
	}
	p, err := h.ForAccount(account)
	if err != nil {
		h.Close()
		return nil, err
	}
	return &session{handle: h, index: idx, store: unlock.NewStore(idx, p, logger)}, nil
}

func newAccountsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with saved state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			h, err := backend.Open(cmd.Context(), cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer h.Close()
			accounts, err := h.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			for _, a := range accounts {
				fmt.Fprintln(opts.out, a)
			}
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	var locked bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show unlocked and obtained bases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.store.Load(cmd.Context()); err != nil {
				return err
			}
			printSet(opts.out, "unlocked", s.store.UnlockedList())
			printSet(opts.out, "obtained", s.store.ObtainedList())
			if locked {
				printSet(opts.out, "locked", s.store.StillLocked())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&locked, "locked", false, "also list bases still locked")
	return cmd
}

func newUnlockCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock BASE...",
		Short: "Unlock one or more bases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.store.Load(cmd.Context()); err != nil {
				return err
			}
			for _, base := range args {
				changed, err := s.store.Unlock(cmd.Context(), base)
				if err != nil {
					return fmt.Errorf("%s: %w", base, err)
				}
				if changed {
					fmt.Fprintf(opts.out, "unlocked %s\n", base)
				} else {
					fmt.Fprintf(opts.out, "already unlocked %s\n", base)
				}
			}
			return s.store.Save(cmd.Context())
		},
	}
}

func newPruneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop saved bases that are no longer in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.store.Load(cmd.Context()); err != nil {
				return err
			}
			if err := s.store.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "kept %d unlocked, %d obtained\n",
				len(s.store.UnlockedList()), len(s.store.ObtainedList()))
			return nil
		},
	}
}

func printSet(out io.Writer, label string, bases []string) {
	fmt.Fprintf(out, "%s (%d):", label, len(bases))
	if len(bases) > 0 {
		fmt.Fprintf(out, " %s", strings.Join(bases, ", "))
	}
	fmt.Fprintln(out)
}
