package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"career-constellation/internal/ai"
	"career-constellation/internal/index"
	"career-constellation/internal/ingest"
	"career-constellation/internal/model"
)

const (
	defaultTopK            = 5
	defaultHistoryTurns    = 5
	defaultTemperature     = 0.4
	defaultMaxOutputTokens = 2000
)

type Options struct {
	TopK            int
	HistoryTurns    int
	Temperature     float32
	MaxOutputTokens int32
}

func DefaultOptions() Options {
	return Options{
		TopK:            defaultTopK,
		HistoryTurns:    defaultHistoryTurns,
		Temperature:     defaultTemperature,
		MaxOutputTokens: defaultMaxOutputTokens,
	}
}

// ChatResponse is the answer to one user message.
type ChatResponse struct {
	Response   string   `json:"response"`
	Sources    []string `json:"sources"`
	RAGEnabled bool     `json:"rag_enabled"`
}

type Status struct {
	Initialized        bool     `json:"initialized"`
	ChunkCount         int      `json:"chunk_count"`
	JobCount           int      `json:"job_count"`
	AvailableReports   []string `json:"available_reports"`
	ReportChunks       int      `json:"report_chunks"`
	StatsChunks        int      `json:"stats_chunks"`
	SimilarityChunks   int      `json:"similarity_chunks"`
	NearDuplicatePairs int      `json:"near_duplicate_pairs"`
	RAGEnabled         bool     `json:"rag_enabled"`
}

// snapshot is everything derived from one load. It is never mutated after
// it is published.
type snapshot struct {
	chunks        []model.Chunk
	index         *index.Index
	jobs          []model.Job
	byEmployee    map[string]int
	clusters      []model.Cluster
	reportSources []string
	pairs         []model.DuplicatePair
	// pairCounts is the number of near-duplicate pairs per cluster id,
	// attributed through the first employee of each pair.
	pairCounts       map[int]int
	reportChunks     int
	statsChunks      int
	similarityChunks int
}

// RAGService owns the chunk store, the index and the job collection. It is
// built once at process start and shared by every handler.
type RAGService struct {
	sources   ingest.Sources
	generator ai.Generator
	opts      Options

	group singleflight.Group
	mu    sync.RWMutex
	state *snapshot
}

func NewRAGService(sources ingest.Sources, generator ai.Generator, opts Options) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = defaultHistoryTurns
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = defaultMaxOutputTokens
	}
	return &RAGService{
		sources:   sources,
		generator: generator,
		opts:      opts,
	}
}

// Initialize loads and indexes every source once. Concurrent callers wait
// for the same load. After a failed load the service stays uninitialized
// and the next call tries again.
func (s *RAGService) Initialize(ctx context.Context) error {
	if s.current() != nil {
		return nil
	}
	_, err, _ := s.group.Do("initialize", func() (interface{}, error) {
		if s.current() != nil {
			return nil, nil
		}
		// One caller going away must not abort the load the others share.
		corpus, err := ingest.Load(context.WithoutCancel(ctx), s.sources)
		if err != nil {
			return nil, fmt.Errorf("initialize rag service failed: %w", err)
		}
		snap := newSnapshot(corpus)

		s.mu.Lock()
		s.state = snap
		s.mu.Unlock()
		log.Printf("rag service initialized: %d chunks, %d jobs, %d clusters",
			len(snap.chunks), len(snap.jobs), len(snap.clusters))
		return nil, nil
	})
	return err
}

func (s *RAGService) Initialized() bool {
	return s.current() != nil
}

// Retrieve returns up to topK chunks for query, best first. topK <= 0
// means the configured default.
func (s *RAGService) Retrieve(ctx context.Context, query string, topK int) ([]model.RetrievalResult, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = s.opts.TopK
	}
	return s.current().index.Search(query, topK), nil
}

// GenerateResponse answers message using retrieved context. Generation
// failures never surface as errors; only a blank message or a failed
// initialization does.
func (s *RAGService) GenerateResponse(ctx context.Context, message string, history []model.ChatTurn, ragEnabled bool) (*ChatResponse, error) {
	// Without a credential nothing else is looked at, not even the message.
	if !s.GenerationConfigured() {
		return degraded(UnavailableMessage), nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrInvalidInput
	}
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	snap := s.current()

	var contextText string
	sources := []string{}
	usedRAG := false
	if ragEnabled {
		results := snap.index.Search(message, s.opts.TopK)
		if len(results) > 0 {
			contextText, sources = buildContext(results)
			usedRAG = true
		}
	}

	prompt := buildPrompt(snap.overview(), contextText, history, s.opts.HistoryTurns, message)

	text, err := s.generator.Generate(ctx, prompt, ai.GenerateOptions{
		Temperature:     s.opts.Temperature,
		MaxOutputTokens: s.opts.MaxOutputTokens,
	})
	if err != nil {
		log.Printf("generate response failed: %v", err)
		return degraded(FailureMessage), nil
	}
	return &ChatResponse{
		Response:   text,
		Sources:    sources,
		RAGEnabled: usedRAG,
	}, nil
}

// GenerationConfigured reports whether a model credential is present.
func (s *RAGService) GenerationConfigured() bool {
	return s.generator != nil && s.generator.Configured()
}

// Status does not trigger initialization.
func (s *RAGService) Status() Status {
	status := Status{
		AvailableReports: []string{},
		RAGEnabled:       s.GenerationConfigured(),
	}
	snap := s.current()
	if snap == nil {
		return status
	}
	status.Initialized = true
	status.ChunkCount = len(snap.chunks)
	status.JobCount = len(snap.jobs)
	status.AvailableReports = append(status.AvailableReports, snap.reportSources...)
	status.ReportChunks = snap.reportChunks
	status.StatsChunks = snap.statsChunks
	status.SimilarityChunks = snap.similarityChunks
	status.NearDuplicatePairs = len(snap.pairs)
	return status
}

func (s *RAGService) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *RAGService) loaded() (*snapshot, error) {
	snap := s.current()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	return snap, nil
}

func degraded(message string) *ChatResponse {
	return &ChatResponse{Response: message, Sources: []string{}, RAGEnabled: false}
}

func newSnapshot(corpus *ingest.Corpus) *snapshot {
	chunks := corpus.Store.Chunks()
	snap := &snapshot{
		chunks:        chunks,
		index:         index.Build(chunks),
		jobs:          corpus.Jobs,
		byEmployee:    make(map[string]int, len(corpus.Jobs)),
		clusters:      groupClusters(corpus.Jobs),
		reportSources: corpus.ReportSources,
		pairs:         corpus.DuplicatePairs,
		pairCounts:    make(map[int]int),
	}
	for i, job := range corpus.Jobs {
		if _, ok := snap.byEmployee[job.EmployeeID]; !ok {
			snap.byEmployee[job.EmployeeID] = i
		}
	}
	for _, p := range snap.pairs {
		if i, ok := snap.byEmployee[p.EmployeeA]; ok {
			snap.pairCounts[snap.jobs[i].ClusterID]++
		}
	}
	for _, c := range chunks {
		switch c.Kind {
		case model.KindReport:
			snap.reportChunks++
		case model.KindStats:
			snap.statsChunks++
		case model.KindSimilarity:
			snap.similarityChunks++
		}
	}
	return snap
}
