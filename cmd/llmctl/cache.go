package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"llm-service/internal/bootstrap"
	"llm-service/internal/llm"
	"llm-service/internal/llmcache"
	"llm-service/internal/shared/config"
)

// openCache connects to the configured backend. The returned func releases it.
func openCache(ctx context.Context) (llmcache.Store, func(), error) {
	cfg := config.Load()
	var sqlDB *sql.DB
	if cfg.CacheBackend == "postgres" {
		var err error
		sqlDB, err = connectCLI(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := bootstrap.BuildCache(ctx, cfg, sqlDB)
	if err != nil {
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, nil, err
	}
	release := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
	return store, release, nil
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the LLM response cache",
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			removed, err := (&llmcache.Sweeper{Store: store}).SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
			return nil
		},
	}

	invalidateCmd := &cobra.Command{
		Use:   "invalidate <key>",
		Short: "Remove one cache entry by fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := store.Invalidate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", args[0])
			return nil
		},
	}

	var (
		prompt      string
		provider    string
		maxTokens   int
		temperature float64
	)
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Print the cache fingerprint for a request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				provider = config.Load().DefaultProvider
			}
			key := llmcache.Derive(prompt, llm.NormalizeProviderID(provider), maxTokens, temperature)
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	keyCmd.Flags().StringVar(&prompt, "prompt", "", "prompt text")
	keyCmd.Flags().StringVar(&provider, "provider", "", "provider id (defaults to DEFAULT_LLM_PROVIDER)")
	keyCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max tokens")
	keyCmd.Flags().Float64Var(&temperature, "temperature", 0, "temperature")
	_ = keyCmd.MarkFlagRequired("prompt")
	_ = keyCmd.MarkFlagRequired("max-tokens")

	cmd.AddCommand(sweepCmd, invalidateCmd, keyCmd)
	return cmd
}
