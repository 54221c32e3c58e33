package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"career-constellation/internal/app"
)

var retrieveTopK int

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Print the chunks most relevant to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 5, "Number of chunks to return")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	return withService(cmd, func(ctx context.Context, svc *app.RAGService) error {
		results, err := svc.Retrieve(ctx, query, retrieveTopK)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(results) == 0 {
			_, _ = fmt.Fprintln(out, "no matching chunks")
			return nil
		}
		for i, r := range results {
			_, _ = fmt.Fprintf(out, "%d. [%s] %s (score %.2f)\n%s\n\n", i+1, r.Chunk.Kind, r.Chunk.Source, r.Score, r.Chunk.Content)
		}
		return nil
	})
}
