package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"career-constellation/internal/model"
)

var ErrNoJobSource = errors.New("job table source is required")

// Sources bundles the collaborators a load reads from. Stats and Similarity
// are optional.
type Sources struct {
	Reports            ReportSource
	Jobs               JobTableSource
	Stats              StatsSource
	Similarity         SimilaritySource
	DuplicateThreshold float64
}

// Corpus is the full result of one load.
type Corpus struct {
	Store          *Store
	Jobs           []model.Job
	ReportSources  []string
	DuplicatePairs []model.DuplicatePair
	StatsLoaded    bool
}

// Load reads all sources concurrently. A failure of the reports or job
// table aborts the load; stats and similarity failures are logged and
// leave those parts empty. Chunks are stored reports first, then jobs,
// stats and similarity summaries.
func Load(ctx context.Context, src Sources) (*Corpus, error) {
	if src.Reports == nil {
		return nil, errors.New("report source is required")
	}
	if src.Jobs == nil {
		return nil, ErrNoJobSource
	}

	var (
		reportChunks []model.Chunk
		reportNames  []string
		jobs         []model.Job
		jobChunks    []model.Chunk
		statsChunks  []model.Chunk
		similarity   *SimilarityTable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reportChunks, reportNames, err = LoadReports(gctx, src.Reports)
		return err
	})
	g.Go(func() error {
		var err error
		jobs, jobChunks, err = LoadJobs(gctx, src.Jobs)
		return err
	})
	if src.Stats != nil {
		g.Go(func() error {
			chunks, err := LoadStats(gctx, src.Stats)
			if err != nil {
				log.Printf("stats unavailable, continuing without stats chunks: %v", err)
				return nil
			}
			statsChunks = chunks
			return nil
		})
	}
	if src.Similarity != nil {
		g.Go(func() error {
			threshold := src.DuplicateThreshold
			if threshold <= 0 {
				threshold = DefaultDuplicateThreshold
			}
			loaded, err := LoadSimilarity(gctx, src.Similarity, threshold)
			if err != nil {
				log.Printf("similarity table unavailable: %v", err)
				return nil
			}
			similarity = loaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pairs []model.DuplicatePair
	if similarity != nil {
		pairs = similarity.Pairs
	}
	similarityChunks := SimilarityChunks(similarity)

	store := NewStore()
	for _, batch := range [][]model.Chunk{reportChunks, jobChunks, statsChunks, similarityChunks} {
		if err := store.Add(batch...); err != nil {
			return nil, err
		}
	}
	log.Printf("corpus loaded: %d chunks (%d report, %d job, %d stats, %d similarity), %d jobs, %d near-duplicate pairs",
		store.Len(), len(reportChunks), len(jobChunks), len(statsChunks), len(similarityChunks), len(jobs), len(pairs))

	return &Corpus{
		Store:          store,
		Jobs:           jobs,
		ReportSources:  reportNames,
		DuplicatePairs: pairs,
		StatsLoaded:    len(statsChunks) > 0,
	}, nil
}

// LoadReports chunks every report. It also returns the names of the
// reports that produced at least one chunk.
func LoadReports(ctx context.Context, src ReportSource) ([]model.Chunk, []string, error) {
	names, err := src.ListReports(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list reports failed: %w", err)
	}
	var chunks []model.Chunk
	var loaded []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		content, err := src.ReadReport(ctx, name)
		if err != nil {
			return nil, nil, fmt.Errorf("read report %s failed: %w", name, err)
		}
		reportChunks := ChunkReport(name, content)
		log.Printf("report %s chunked into %d chunks", name, len(reportChunks))
		if len(reportChunks) > 0 {
			loaded = append(loaded, name)
		}
		chunks = append(chunks, reportChunks...)
	}
	return chunks, loaded, nil
}

func LoadJobs(ctx context.Context, src JobTableSource) ([]model.Job, []model.Chunk, error) {
	rc, err := src.OpenJobTable(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	jobs, chunks, err := ParseJobs(rc, src.Name())
	if err != nil {
		return nil, nil, fmt.Errorf("parse job table failed: %w", err)
	}
	return jobs, chunks, nil
}

func LoadStats(ctx context.Context, src StatsSource) ([]model.Chunk, error) {
	raw, err := src.ReadStats(ctx)
	if err != nil {
		return nil, err
	}
	return ParseStats(raw, src.Name())
}

func LoadSimilarity(ctx context.Context, src SimilaritySource, threshold float64) (*SimilarityTable, error) {
	rc, err := src.OpenSimilarity(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseSimilarityTable(rc, threshold)
}
