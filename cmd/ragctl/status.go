package main

import (
	"context"

	"github.com/spf13/cobra"

	"career-constellation/internal/app"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Load the corpus and print its status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(_ context.Context, svc *app.RAGService) error {
			return printJSON(cmd.OutOrStdout(), svc.Status())
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
