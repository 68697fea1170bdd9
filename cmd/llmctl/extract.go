package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"llm-service/internal/bootstrap"
	"llm-service/internal/extract"
	"llm-service/internal/shared/config"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <snapshot-key>",
		Short: "Print the text extracted from a stored page snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := bootstrap.BuildSnapshots(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("SNAPSHOT_STORE is not configured")
			}
			text, err := extract.FromStore(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
