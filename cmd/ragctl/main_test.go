package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-constellation/internal/ai"
	"career-constellation/internal/app"
	"career-constellation/internal/ingest"
)

const jobTable = "employee_id,Unified Job Title (display),title_clean,position_summary,responsibilities,qualifications,cluster,Label,x,y,Keywords,job_level,Distance_to_Center\n" +
	"E1,Process Engineer,process engineer,Designs pump systems.,,,1,Engineering,0.1,0.2,pumps,,0.1\n" +
	"E2,Field Technician,field technician,Repairs valves.,,,2,Field Ops,1,1,valves,,0.3\n"

type stubJobs struct{}

func (stubJobs) Name() string { return "constellation_data" }

func (stubJobs) OpenJobTable(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(jobTable)), nil
}

type echoGenerator struct{}

func (echoGenerator) Configured() bool { return true }

func (echoGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	return "Wear PPE.", nil
}

func useTestService(t *testing.T) {
	t.Helper()
	previous := newService
	newService = func(ctx context.Context) (*app.RAGService, func(), error) {
		sources := ingest.Sources{
			Reports: ingest.NewMemoryReportSource(map[string]string{
				"safety.md": "# Safety\n\nAll operators must wear PPE.",
			}),
			Jobs: stubJobs{},
		}
		return app.NewRAGService(sources, echoGenerator{}, app.DefaultOptions()), nil, nil
	}
	t.Cleanup(func() {
		newService = previous
		retrieveTopK = 5
		askNoRAG = false
		jobsSearch = ""
		jobsClusters = false
	})
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestStatusCommand(t *testing.T) {
	useTestService(t)
	out := run(t, "status")
	assert.Contains(t, out, `"initialized": true`)
	assert.Contains(t, out, `"job_count": 2`)
}

func TestRetrieveCommand(t *testing.T) {
	useTestService(t)
	out := run(t, "retrieve", "--top-k", "1", "operators", "PPE")
	assert.Contains(t, out, "1. [report] safety.md")
	assert.NotContains(t, out, "2.")
}

func TestAskCommandPrintsSources(t *testing.T) {
	useTestService(t)
	out := run(t, "ask", "what", "PPE", "is", "needed")
	assert.Contains(t, out, "Wear PPE.")
	assert.Contains(t, out, "Sources: safety.md")
}

func TestAskCommandWithoutRAG(t *testing.T) {
	useTestService(t)
	out := run(t, "ask", "--no-rag", "what PPE is needed")
	assert.Contains(t, out, "Wear PPE.")
	assert.NotContains(t, out, "Sources:")
}

func TestJobsCommand(t *testing.T) {
	useTestService(t)
	out := run(t, "jobs", "--search", "valve")
	assert.Contains(t, out, "Field Technician")
	assert.NotContains(t, out, "Process Engineer")

	jobsSearch = ""
	out = run(t, "jobs", "--clusters")
	assert.Contains(t, out, "Engineering")
	assert.Contains(t, out, "Field Ops")
}
