package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"career-constellation/internal/model"
)

type statsDocument struct {
	TotalPositions *float64 `json:"total_positions"`
	TotalJobs      *float64 `json:"total_jobs"`
	NumClusters    *float64 `json:"num_clusters"`
	Coverage       struct {
		WithSummary          *float64 `json:"with_summary"`
		WithResponsibilities *float64 `json:"with_responsibilities"`
		WithQualifications   *float64 `json:"with_qualifications"`
		WithKeywords         *float64 `json:"with_keywords"`
	} `json:"coverage"`
	AvgFieldLengths struct {
		Summary          *float64 `json:"summary"`
		Responsibilities *float64 `json:"responsibilities"`
		Qualifications   *float64 `json:"qualifications"`
	} `json:"avg_field_lengths"`
	ClusterSummaries []clusterSummary `json:"cluster_summaries"`
}

type clusterSummary struct {
	ClusterID              *float64 `json:"cluster_id"`
	Label                  string   `json:"label"`
	Count                  *float64 `json:"count"`
	CommonResponsibilities []string `json:"common_responsibilities"`
	CommonQualifications   []string `json:"common_qualifications"`
	CommonSkills           []string `json:"common_skills"`
}

// ParseStats turns the statistics document into one overview chunk and one
// chunk per cluster summary.
func ParseStats(data []byte, source string) ([]model.Chunk, error) {
	var doc statsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stats json failed: %w", err)
	}

	total := doc.TotalPositions
	if total == nil {
		total = doc.TotalJobs
	}

	var b strings.Builder
	b.WriteString("Organization-wide statistics\n\n")
	fmt.Fprintf(&b, "Total positions: %s\n", formatCount(total))
	fmt.Fprintf(&b, "Job clusters: %s\n", formatCount(doc.NumClusters))
	fmt.Fprintf(&b, "Positions with a summary: %s\n", formatCount(doc.Coverage.WithSummary))
	fmt.Fprintf(&b, "Positions with responsibilities: %s\n", formatCount(doc.Coverage.WithResponsibilities))
	fmt.Fprintf(&b, "Positions with qualifications: %s\n", formatCount(doc.Coverage.WithQualifications))
	fmt.Fprintf(&b, "Positions with keywords: %s\n", formatCount(doc.Coverage.WithKeywords))
	fmt.Fprintf(&b, "Average summary length: %s\n", formatLength(doc.AvgFieldLengths.Summary))
	fmt.Fprintf(&b, "Average responsibilities length: %s\n", formatLength(doc.AvgFieldLengths.Responsibilities))
	fmt.Fprintf(&b, "Average qualifications length: %s", formatLength(doc.AvgFieldLengths.Qualifications))

	chunks := []model.Chunk{{
		ID:       "stats-overview",
		Content:  b.String(),
		Kind:     model.KindStats,
		Source:   source,
		Metadata: model.StatsMetadata{Scope: "overview"},
	}}

	for i, summary := range doc.ClusterSummaries {
		clusterID := model.InvalidClusterID
		if summary.ClusterID != nil {
			clusterID = int(*summary.ClusterID)
		}
		var cb strings.Builder
		fmt.Fprintf(&cb, "Cluster %s: %s\n", formatCount(summary.ClusterID), orNotAvailable(summary.Label))
		fmt.Fprintf(&cb, "Positions: %s\n", formatCount(summary.Count))
		fmt.Fprintf(&cb, "Common responsibilities: %s\n", joinOrNotAvailable(summary.CommonResponsibilities))
		fmt.Fprintf(&cb, "Common qualifications: %s\n", joinOrNotAvailable(summary.CommonQualifications))
		fmt.Fprintf(&cb, "Common skills: %s", joinOrNotAvailable(summary.CommonSkills))

		chunks = append(chunks, model.Chunk{
			ID:       fmt.Sprintf("stats-cluster-%d", i),
			Content:  cb.String(),
			Kind:     model.KindStats,
			Source:   source,
			Metadata: model.StatsMetadata{Scope: "cluster", ClusterID: clusterID},
		})
	}
	return chunks, nil
}

func formatCount(v *float64) string {
	if v == nil {
		return notAvailable
	}
	if *v == float64(int64(*v)) {
		return strconv.FormatInt(int64(*v), 10)
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatLength(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + " characters"
}

func joinOrNotAvailable(items []string) string {
	if len(items) == 0 {
		return notAvailable
	}
	return strings.Join(items, ", ")
}
