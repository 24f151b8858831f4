package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skilltrade/backend/internal/config"
	"github.com/skilltrade/backend/internal/storage"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect or reset a session's stored keys",
	Long: `Inspect or reset a session's stored keys.

Examples:
  skilltrade store keys 3f2a0c1e-...
  skilltrade store get 3f2a0c1e-... userProfile
  skilltrade store clear 3f2a0c1e-...`,
}

var storeKeysCmd = &cobra.Command{
	Use:   "keys <session>",
	Short: "List the keys stored for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, s storage.Store) error {
			keys, err := s.Keys(ctx, args[0])
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		})
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get <session> <key>",
	Short: "Print one stored value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, s storage.Store) error {
			v, err := s.Get(ctx, args[0], args[1])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("session %s has no key %q", args[0], args[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		})
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear <session>",
	Short: "Delete everything stored for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, s storage.Store) error {
			if err := s.Clear(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared session %s\n", args[0])
			return nil
		})
	},
}

func init() {
	storeCmd.AddCommand(storeKeysCmd, storeGetCmd, storeClearCmd)
}

func withStore(ctx context.Context, fn func(context.Context, storage.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	s, err := storage.Open(ctx, storage.Options{
		Driver:   cfg.StoreDriver,
		DataDir:  cfg.DataDir,
		MongoURI: cfg.MongoURI,
		MongoDB:  cfg.MongoDB,
		MongoTLS: cfg.MongoTLS,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()
	return fn(ctx, s)
}
