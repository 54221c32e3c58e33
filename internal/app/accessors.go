package app

import (
	"context"
	"sort"
	"strings"

	"career-constellation/internal/ingest"
	"career-constellation/internal/model"
)

const topClusterKeywords = 10

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type ClusterDetails struct {
	ID             int                   `json:"id"`
	Label          string                `json:"label"`
	Size           int                   `json:"size"`
	TopKeywords    []KeywordCount        `json:"top_keywords"`
	JobLevels      map[string]int        `json:"job_levels"`
	DuplicatePairs []model.DuplicatePair `json:"duplicate_pairs"`
	Messiness      float64               `json:"messiness"`
	Jobs           []model.Job           `json:"jobs"`
}

type ReportInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ReportDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *RAGService) Jobs() ([]model.Job, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return snap.jobs, nil
}

// Clusters groups jobs by cluster id in first-seen order. Jobs with an
// unparseable cluster share the InvalidClusterID group.
func (s *RAGService) Clusters() ([]model.Cluster, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return snap.clusters, nil
}

// SearchJobs matches query case-insensitively against title, keywords and
// summary. Results keep table order.
func (s *RAGService) SearchJobs(query string) ([]model.Job, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return snap.jobs, nil
	}
	matched := []model.Job{}
	for _, job := range snap.jobs {
		if jobMatches(job, q) {
			matched = append(matched, job)
		}
	}
	return matched, nil
}

// JobByID looks a job up by employee id.
func (s *RAGService) JobByID(employeeID string) (*model.Job, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	i, ok := snap.byEmployee[strings.TrimSpace(employeeID)]
	if !ok {
		return nil, ErrJobNotFound
	}
	job := snap.jobs[i]
	return &job, nil
}

func (s *RAGService) ClusterDetails(clusterID int) (*ClusterDetails, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	var cluster *model.Cluster
	for i := range snap.clusters {
		if snap.clusters[i].ID == clusterID {
			cluster = &snap.clusters[i]
			break
		}
	}
	if cluster == nil {
		return nil, ErrClusterNotFound
	}

	keywordCounts := make(map[string]int)
	levels := make(map[string]int)
	for _, job := range cluster.Jobs {
		for _, kw := range job.Keywords {
			keywordCounts[strings.ToLower(kw)]++
		}
		if job.JobLevel != "" {
			levels[job.JobLevel]++
		}
	}
	pairs := pairsInCluster(snap, clusterID)
	return &ClusterDetails{
		ID:             cluster.ID,
		Label:          cluster.Label,
		Size:           len(cluster.Jobs),
		TopKeywords:    topKeywords(keywordCounts, topClusterKeywords),
		JobLevels:      levels,
		DuplicatePairs: pairs,
		Messiness:      messiness(len(pairs), len(cluster.Jobs)),
		Jobs:           cluster.Jobs,
	}, nil
}

// NearDuplicatePairs returns pairs scoring at least minScore, highest
// first. limit <= 0 returns all of them.
func (s *RAGService) NearDuplicatePairs(minScore float64, limit int) ([]model.DuplicatePair, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	pairs := []model.DuplicatePair{}
	for _, p := range snap.pairs {
		if p.Score >= minScore {
			pairs = append(pairs, p)
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score > pairs[j].Score
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}

// ClusterMessiness scores every cluster by near-duplicate pairs per
// member, capped at 1, messiest first.
func (s *RAGService) ClusterMessiness() ([]model.ClusterMessiness, error) {
	snap, err := s.loaded()
	if err != nil {
		return nil, err
	}
	counts := snap.pairCounts
	result := make([]model.ClusterMessiness, 0, len(snap.clusters))
	for _, c := range snap.clusters {
		result = append(result, model.ClusterMessiness{
			ClusterID:      c.ID,
			Label:          c.Label,
			Size:           len(c.Jobs),
			DuplicatePairs: counts[c.ID],
			Messiness:      messiness(counts[c.ID], len(c.Jobs)),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Messiness > result[j].Messiness
	})
	return result, nil
}

// Reports lists the report collection. It reads the source directly and
// does not need the index.
func (s *RAGService) Reports(ctx context.Context) ([]ReportInfo, error) {
	if s.sources.Reports == nil {
		return []ReportInfo{}, nil
	}
	names, err := s.sources.Reports.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]ReportInfo, 0, len(names))
	for _, name := range names {
		reports = append(reports, ReportInfo{ID: name, Title: ingest.ReportTitle(name)})
	}
	return reports, nil
}

func (s *RAGService) Report(ctx context.Context, id string) (*ReportDocument, error) {
	if s.sources.Reports == nil {
		return nil, ErrReportNotFound
	}
	content, err := s.sources.Reports.ReadReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReportDocument{ID: id, Title: ingest.ReportTitle(id), Content: content}, nil
}

func groupClusters(jobs []model.Job) []model.Cluster {
	var clusters []model.Cluster
	positions := make(map[int]int)
	for _, job := range jobs {
		i, ok := positions[job.ClusterID]
		if !ok {
			i = len(clusters)
			positions[job.ClusterID] = i
			clusters = append(clusters, model.Cluster{ID: job.ClusterID, Label: job.ClusterLabel})
		}
		clusters[i].Jobs = append(clusters[i].Jobs, job)
	}
	return clusters
}

func jobMatches(job model.Job, q string) bool {
	if strings.Contains(strings.ToLower(job.Title), q) || strings.Contains(strings.ToLower(job.Summary), q) {
		return true
	}
	for _, kw := range job.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}
	return false
}

func pairsInCluster(snap *snapshot, clusterID int) []model.DuplicatePair {
	pairs := []model.DuplicatePair{}
	for _, p := range snap.pairs {
		i, ok := snap.byEmployee[p.EmployeeA]
		if ok && snap.jobs[i].ClusterID == clusterID {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func topKeywords(counts map[string]int, n int) []KeywordCount {
	keywords := make([]KeywordCount, 0, len(counts))
	for kw, c := range counts {
		keywords = append(keywords, KeywordCount{Keyword: kw, Count: c})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Keyword < keywords[j].Keyword
	})
	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

func messiness(pairs, size int) float64 {
	if size == 0 {
		return 0
	}
	m := float64(pairs) / float64(size)
	if m > 1 {
		return 1
	}
	return m
}
