package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-constellation/internal/model"
)

func TestInitializeConcurrentCallersShareOneLoad(t *testing.T) {
	svc, reports := newTestService(nil)
	reports.delay = 30 * time.Millisecond

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = svc.Initialize(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), reports.lists.Load())

	single, _ := newTestService(nil)
	require.NoError(t, single.Initialize(context.Background()))
	assert.Equal(t, single.Status().ChunkCount, svc.Status().ChunkCount)

	require.NoError(t, svc.Initialize(context.Background()))
	assert.Equal(t, int32(1), reports.lists.Load())
}

func TestInitializeFailureLeavesServiceUninitialized(t *testing.T) {
	reports := newCountingReports()
	sources := testSources(reports)
	jobs := &stringJobs{data: testJobTable}
	jobs.fails.Store(1)
	sources.Jobs = jobs
	svc := NewRAGService(sources, nil, DefaultOptions())

	err := svc.Initialize(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Initialized())
	_, err = svc.Jobs()
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, svc.Initialize(context.Background()))
	assert.True(t, svc.Initialized())
}

func TestInitializeWithMissingStats(t *testing.T) {
	reports := newCountingReports()
	sources := testSources(reports)
	sources.Stats = stringStats{err: errors.New("open summary_stats.json: no such file")}
	svc := NewRAGService(sources, nil, DefaultOptions())

	require.NoError(t, svc.Initialize(context.Background()))
	status := svc.Status()
	assert.True(t, status.Initialized)
	assert.Zero(t, status.StatsChunks)
}

func TestStatus(t *testing.T) {
	svc, _ := newTestService(&fakeGenerator{configured: true})

	before := svc.Status()
	assert.False(t, before.Initialized)
	assert.True(t, before.RAGEnabled)
	assert.Equal(t, []string{}, before.AvailableReports)

	require.NoError(t, svc.Initialize(context.Background()))
	after := svc.Status()
	assert.True(t, after.Initialized)
	assert.Equal(t, 4, after.JobCount)
	assert.Equal(t, 2, after.ReportChunks)
	assert.Equal(t, 2, after.StatsChunks)
	assert.Equal(t, 3, after.SimilarityChunks)
	assert.Equal(t, 11, after.ChunkCount)
	assert.Equal(t, 2, after.NearDuplicatePairs)
	assert.Equal(t, []string{"outlook.md", "safety.md"}, after.AvailableReports)
}

func TestRetrieve(t *testing.T) {
	svc, _ := newTestService(nil)

	results, err := svc.Retrieve(context.Background(), "PPE operators", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "safety.md-0", results[0].Chunk.ID)
	assert.Equal(t, 1.0, results[0].Score)

	results, err = svc.Retrieve(context.Background(), "   ", 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Retrieve(context.Background(), "pump systems", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestGenerateResponseWithoutCredential(t *testing.T) {
	for _, gen := range []*fakeGenerator{nil, {configured: false}} {
		var svc *RAGService
		var reports *countingReports
		if gen == nil {
			svc, reports = newTestService(nil)
		} else {
			svc, reports = newTestService(gen)
		}

		resp, err := svc.GenerateResponse(context.Background(), "PPE operators", nil, true)
		require.NoError(t, err)
		assert.Equal(t, UnavailableMessage, resp.Response)
		assert.Equal(t, []string{}, resp.Sources)
		assert.False(t, resp.RAGEnabled)
		assert.Zero(t, reports.lists.Load())
		assert.False(t, svc.Initialized())
		if gen != nil {
			assert.Empty(t, gen.prompts)
		}
	}
}

func TestGenerateResponseWithContext(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "Wear PPE [safety.md]."}
	svc, _ := newTestService(gen)

	resp, err := svc.GenerateResponse(context.Background(), "PPE operators", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "Wear PPE [safety.md].", resp.Response)
	assert.True(t, resp.RAGEnabled)
	assert.Equal(t, []string{"safety.md"}, resp.Sources)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "---\nSource: safety.md (Relevance: 100.0%)\n# Safety\n\nAll operators must wear PPE.")
	assert.Contains(t, prompt, "Answer only from the retrieved context above.")
	assert.Contains(t, prompt, "- Positions: 4\n")
	assert.Contains(t, prompt, "\nUser: PPE operators\n")
	assert.True(t, strings.HasSuffix(prompt, "Assistant:"))
	assert.Equal(t, float32(0.4), gen.opts[0].Temperature)
	assert.Equal(t, int32(2000), gen.opts[0].MaxOutputTokens)
}

func TestGenerateResponseRAGDisabled(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "General answer."}
	svc, _ := newTestService(gen)

	resp, err := svc.GenerateResponse(context.Background(), "PPE operators", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "General answer.", resp.Response)
	assert.False(t, resp.RAGEnabled)
	assert.Empty(t, resp.Sources)
	assert.Contains(t, gen.lastPrompt(), "general knowledge")
	assert.NotContains(t, gen.lastPrompt(), "Source: safety.md")
}

func TestGenerateResponseNoMatchingChunks(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "I could not find that."}
	svc, _ := newTestService(gen)

	resp, err := svc.GenerateResponse(context.Background(), "zzzz qqqq", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "I could not find that.", resp.Response)
	assert.False(t, resp.RAGEnabled)
	assert.Empty(t, resp.Sources)
}

func TestGenerateResponseGenerationFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{configured: true, err: errors.New("quota exceeded")}
	svc, _ := newTestService(gen)

	resp, err := svc.GenerateResponse(context.Background(), "PPE operators", nil, true)
	require.NoError(t, err)
	assert.Equal(t, FailureMessage, resp.Response)
	assert.Equal(t, []string{}, resp.Sources)
	assert.False(t, resp.RAGEnabled)
	assert.NotEqual(t, UnavailableMessage, FailureMessage)
}

func TestGenerateResponseUsesLastFiveTurns(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "ok"}
	svc, _ := newTestService(gen)

	history := make([]model.ChatTurn, 7)
	for i := range history {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history[i] = model.ChatTurn{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}

	_, err := svc.GenerateResponse(context.Background(), "next question", history, true)
	require.NoError(t, err)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "Conversation History:\nuser: turn 2\nassistant: turn 3\n")
	assert.Contains(t, prompt, "user: turn 6\n")
	assert.NotContains(t, prompt, "turn 0")
	assert.NotContains(t, prompt, "turn 1")
}

func TestGenerateResponseRejectsBlankMessage(t *testing.T) {
	svc, _ := newTestService(&fakeGenerator{configured: true})
	_, err := svc.GenerateResponse(context.Background(), "  ", nil, true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateResponseWithoutCredentialIgnoresBlankMessage(t *testing.T) {
	gen := &fakeGenerator{configured: false}
	svc, reports := newTestService(gen)

	resp, err := svc.GenerateResponse(context.Background(), "  ", nil, true)
	require.NoError(t, err)
	assert.Equal(t, UnavailableMessage, resp.Response)
	assert.Zero(t, reports.lists.Load())
	assert.Empty(t, gen.prompts)
}

func TestGenerateResponseRetrievesSimilaritySummary(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "Merge the process engineer roles."}
	svc, _ := newTestService(gen)

	resp, err := svc.GenerateResponse(context.Background(), "Which duplicate roles could be merged?", nil, true)
	require.NoError(t, err)
	assert.True(t, resp.RAGEnabled)
	assert.Contains(t, resp.Sources, "similarity_analysis")

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "Source: similarity_analysis")
	assert.Contains(t, prompt, "Total near-duplicate pairs: 2")
}

func TestGenerateResponseListsJobFamilies(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "ok"}
	svc, _ := newTestService(gen)

	_, err := svc.GenerateResponse(context.Background(), "zzzz qqqq", nil, true)
	require.NoError(t, err)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "Job families:\n- Engineering: 2 roles, 1 near-duplicate pairs\n- Field Ops: 1 roles, 1 near-duplicate pairs\n- Unlabeled: 1 roles\n")
}

func TestGenerateResponsePropagatesInitFailure(t *testing.T) {
	reports := newCountingReports()
	sources := testSources(reports)
	jobs := &stringJobs{data: testJobTable}
	jobs.fails.Store(1)
	sources.Jobs = jobs
	svc := NewRAGService(sources, &fakeGenerator{configured: true, text: "ok"}, DefaultOptions())

	_, err := svc.GenerateResponse(context.Background(), "PPE operators", nil, true)
	assert.Error(t, err)
}
