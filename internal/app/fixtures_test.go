package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"career-constellation/internal/ai"
	"career-constellation/internal/ingest"
)

const testJobTable = "employee_id,Unified Job Title (display),title_clean,position_summary,responsibilities,qualifications,cluster,Label,x,y,Keywords,job_level,Distance_to_Center\n" +
	"E1,Process Engineer,process engineer,Designs pump systems.,Run HAZOPs.,BSc,1,Engineering,0.1,0.2,\"pumps, safety\",Senior,0.1\n" +
	"E2,Process Engineer II,process engineer ii,Designs pump systems too.,,BSc,1,Engineering,0.1,0.3,pumps,Junior,0.2\n" +
	"E3,Field Technician,field technician,Repairs valves.,,,2,Field Ops,1,1,\"valves, Safety\",,0.3\n" +
	"E4,Data Analyst,data analyst,Builds dashboards.,,,x,,,,,,\n"

const testSimilarity = "Employee_ID,title_clean,Cluster_Label,Similar_Employee_1,Similar_Employee_1_Score,Similar_Employee_2,Similar_Employee_2_Score,Similar_Employee_3,Similar_Employee_3_Score\n" +
	"E1,process engineer,Engineering,E2,0.97,E3,0.5,,\n" +
	"E2,process engineer ii,Engineering,E1,0.97,,,,\n" +
	"E3,field technician,Field Ops,E1,0.96,,,,\n"

const testStats = `{"total_positions": 4, "cluster_summaries": [{"cluster_id": 1, "label": "Engineering", "count": 2}]}`

type countingReports struct {
	*ingest.MemoryReportSource
	lists atomic.Int32
	delay time.Duration
}

func newCountingReports() *countingReports {
	return &countingReports{MemoryReportSource: ingest.NewMemoryReportSource(map[string]string{
		"safety.md":  "# Safety\n\nAll operators must wear PPE.",
		"outlook.md": "# Outlook\n\nPump demand keeps growing across the region.",
	})}
}

func (r *countingReports) ListReports(ctx context.Context) ([]string, error) {
	r.lists.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.MemoryReportSource.ListReports(ctx)
}

type stringJobs struct {
	data  string
	fails atomic.Int32
}

func (j *stringJobs) Name() string { return "constellation_data" }

func (j *stringJobs) OpenJobTable(ctx context.Context) (io.ReadCloser, error) {
	if j.fails.Load() > 0 {
		j.fails.Add(-1)
		return nil, errors.New("job table unavailable")
	}
	return io.NopCloser(strings.NewReader(j.data)), nil
}

type stringStats struct {
	data string
	err  error
}

func (s stringStats) Name() string { return "summary_stats.json" }

func (s stringStats) ReadStats(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.data), nil
}

type stringSimilarity string

func (s stringSimilarity) OpenSimilarity(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

type fakeGenerator struct {
	configured bool
	text       string
	err        error

	mu      sync.Mutex
	prompts []string
	opts    []ai.GenerateOptions
}

func (g *fakeGenerator) Configured() bool { return g.configured }

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func testSources(reports *countingReports) ingest.Sources {
	return ingest.Sources{
		Reports:    reports,
		Jobs:       &stringJobs{data: testJobTable},
		Stats:      stringStats{data: testStats},
		Similarity: stringSimilarity(testSimilarity),
	}
}

func newTestService(gen ai.Generator) (*RAGService, *countingReports) {
	reports := newCountingReports()
	return NewRAGService(testSources(reports), gen, DefaultOptions()), reports
}
