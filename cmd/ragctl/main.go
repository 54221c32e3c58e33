// Package main provides ragctl, a command line client for the career
// constellation corpus. It loads the same data sources as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"career-constellation/internal/app"
	"career-constellation/internal/bootstrap"
	"career-constellation/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "ragctl",
	Short:         "Query the career constellation corpus",
	Long:          "ragctl loads the organizational reports and the job table, then retrieves chunks, answers questions or lists jobs from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newService builds the service for one command run. Tests replace it.
var newService = func(ctx context.Context) (*app.RAGService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config failed: %w", err)
	}
	generator, err := bootstrap.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = bootstrap.CloseGenerator(generator) }
	return bootstrap.NewRAGService(cfg, generator), cleanup, nil
}

// withService initializes the service before running fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.RAGService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, cleanup, err := newService(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
