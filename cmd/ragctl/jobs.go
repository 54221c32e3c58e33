package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"career-constellation/internal/app"
)

var (
	jobsSearch   string
	jobsClusters bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs or job clusters",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVarP(&jobsSearch, "search", "s", "", "Only jobs whose title, keywords or summary contain this text")
	jobsCmd.Flags().BoolVar(&jobsClusters, "clusters", false, "List clusters instead of jobs")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(_ context.Context, svc *app.RAGService) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if jobsClusters {
			clusters, err := svc.Clusters()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, "CLUSTER\tLABEL\tJOBS")
			for _, c := range clusters {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", c.ID, c.Label, len(c.Jobs))
			}
			return nil
		}

		jobs, err := svc.SearchJobs(jobsSearch)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, "EMPLOYEE\tTITLE\tCLUSTER")
		for _, j := range jobs {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", j.EmployeeID, j.Title, j.ClusterLabel)
		}
		return nil
	})
}
