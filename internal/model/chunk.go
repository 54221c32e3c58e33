package model

// ChunkKind is the provenance category of a chunk.
type ChunkKind string

const (
	KindReport ChunkKind = "report"
	KindJob    ChunkKind = "job"
	KindStats  ChunkKind = "stats"
	// KindSimilarity chunks are derived from the offline similarity table.
	KindSimilarity ChunkKind = "similarity"
)

// Chunk is an indexable unit of text. Chunks are never mutated once the
// store has been loaded.
type Chunk struct {
	ID       string    `json:"id"`
	Content  string    `json:"content"`
	Kind     ChunkKind `json:"kind"`
	Source   string    `json:"source"`
	Metadata Metadata  `json:"metadata"`
}

// Metadata is implemented by ReportMetadata, JobMetadata, StatsMetadata and
// SimilarityMetadata.
// It is used for attribution only and never affects scoring.
type Metadata interface {
	metadataKind() ChunkKind
}

type ReportMetadata struct {
	Header     string `json:"header"`
	SourceFile string `json:"source_file"`
}

type JobMetadata struct {
	JobID        int    `json:"job_id"`
	EmployeeID   string `json:"employee_id"`
	Title        string `json:"title"`
	ClusterID    int    `json:"cluster_id"`
	ClusterLabel string `json:"cluster_label"`
}

// StatsMetadata.Scope is "overview" for the organisation-wide chunk and
// "cluster" for a per-cluster summary.
type StatsMetadata struct {
	Scope     string `json:"scope"`
	ClusterID int    `json:"cluster_id,omitempty"`
}

// SimilarityMetadata.Scope is "near_duplicates", "cluster_profile" or
// "outliers". Count is the number of pairs or roles the chunk summarises.
type SimilarityMetadata struct {
	Scope        string `json:"scope"`
	ClusterLabel string `json:"cluster_label,omitempty"`
	Count        int    `json:"count"`
}

func (ReportMetadata) metadataKind() ChunkKind     { return KindReport }
func (JobMetadata) metadataKind() ChunkKind        { return KindJob }
func (StatsMetadata) metadataKind() ChunkKind      { return KindStats }
func (SimilarityMetadata) metadataKind() ChunkKind { return KindSimilarity }

// RetrievalResult pairs a chunk with its relevance score for one query.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
