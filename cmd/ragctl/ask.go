package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"career-constellation/internal/app"
)

var askNoRAG bool

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the assistant one question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoRAG, "no-rag", false, "Answer without retrieved context")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	return withService(cmd, func(ctx context.Context, svc *app.RAGService) error {
		resp, err := svc.GenerateResponse(ctx, message, nil, !askNoRAG)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, resp.Response)
		if len(resp.Sources) > 0 {
			_, _ = fmt.Fprintf(out, "\nSources: %s\n", strings.Join(resp.Sources, ", "))
		}
		return nil
	})
}
