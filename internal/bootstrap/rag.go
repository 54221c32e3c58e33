package bootstrap

import (
	"context"
	"fmt"
	"time"

	"career-constellation/internal/ai"
	"career-constellation/internal/app"
	"career-constellation/internal/config"
	"career-constellation/internal/ingest"
)

// NewGenerator builds the configured LLM backend wrapped with per-attempt
// timeouts and retries. A missing API key yields an unconfigured
// generator, not an error.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (ai.Generator, error) {
	var next ai.Generator
	switch cfg.Provider {
	case "", "gemini":
		client, err := ai.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		next = client
	case "openai":
		next = ai.NewOpenAICompatibleClient(ai.ChatConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return ai.NewRetryingGenerator(next, time.Duration(cfg.AttemptTimeoutSeconds)*time.Second, cfg.MaxRetries), nil
}

// NewSources maps the data section onto file-backed sources. Optional
// files left blank are skipped.
func NewSources(cfg config.DataConfig, duplicateThreshold float64) ingest.Sources {
	src := ingest.Sources{
		Reports:            ingest.NewDirReportSource(cfg.ReportsDir),
		Jobs:               ingest.NewFileJobTable(cfg.JobsFile, cfg.DatasetName),
		DuplicateThreshold: duplicateThreshold,
	}
	if cfg.StatsFile != "" {
		src.Stats = ingest.NewFileStats(cfg.StatsFile)
	}
	if cfg.SimilarityFile != "" {
		src.Similarity = ingest.NewFileSimilarity(cfg.SimilarityFile)
	}
	return src
}

func NewRAGService(cfg *config.Config, generator ai.Generator) *app.RAGService {
	return app.NewRAGService(
		NewSources(cfg.Data, cfg.RAG.DuplicateThreshold),
		generator,
		app.Options{
			TopK:            cfg.RAG.TopK,
			HistoryTurns:    cfg.RAG.HistoryTurns,
			Temperature:     float32(cfg.LLM.Temperature),
			MaxOutputTokens: int32(cfg.LLM.MaxOutputTokens),
		},
	)
}
