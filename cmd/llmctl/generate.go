package main

import (
	"github.com/spf13/cobra"

	"llm-service/internal/bootstrap"
	"llm-service/internal/generation"
	"llm-service/internal/shared/config"
)

func newGenerateCmd() *cobra.Command {
	var (
		req     generation.Request
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate text through the cache and provider registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.Build(ctx, config.Load())
			if err != nil {
				return err
			}
			defer app.Close()

			req.UseCache = !noCache
			out, err := app.GenerationService.Generate(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), generation.ToResponse(out))
		},
	}
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "prompt text")
	cmd.Flags().StringVar(&req.ProviderID, "provider", "", "provider id")
	cmd.Flags().IntVar(&req.MaxTokens, "max-tokens", 256, "max tokens")
	cmd.Flags().Float64Var(&req.Temperature, "temperature", 0.7, "temperature")
	cmd.Flags().IntVar(&req.CacheTTLMinutes, "ttl", generation.DefaultCacheTTLMinutes, "cache ttl in minutes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the cache")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newParseJobCmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "parse-job <url>",
		Short: "Fetch a job posting and print the structured record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.Build(ctx, config.Load())
			if err != nil {
				return err
			}
			defer app.Close()

			posting, err := app.JobParseService.ExtractStructured(ctx, args[0], provider)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), posting)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider id")
	return cmd
}
