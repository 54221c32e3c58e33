package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"career-constellation/internal/pkg/pdfextract"
)

var ErrReportNotFound = errors.New("report not found")

// ReportSource enumerates and reads the markdown report collection.
type ReportSource interface {
	ListReports(ctx context.Context) ([]string, error)
	ReadReport(ctx context.Context, name string) (string, error)
}

// JobTableSource yields the delimited job-postings table (header row first).
type JobTableSource interface {
	Name() string
	OpenJobTable(ctx context.Context) (io.ReadCloser, error)
}

// StatsSource yields the aggregate statistics document.
type StatsSource interface {
	Name() string
	ReadStats(ctx context.Context) ([]byte, error)
}

// SimilaritySource yields the per-employee nearest-neighbour table.
type SimilaritySource interface {
	OpenSimilarity(ctx context.Context) (io.ReadCloser, error)
}

// DirReportSource serves .md and .pdf files from a single directory.
type DirReportSource struct {
	Dir string
}

func NewDirReportSource(dir string) *DirReportSource {
	return &DirReportSource{Dir: dir}
}

func (s *DirReportSource) ListReports(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read reports dir failed: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isReportFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirReportSource) ReadReport(ctx context.Context, name string) (string, error) {
	if !validReportName(name) {
		return "", ErrReportNotFound
	}
	raw, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrReportNotFound
		}
		return "", fmt.Errorf("read report %s failed: %w", name, err)
	}
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		text, err := pdfextract.ExtractText(bytes.NewReader(raw), int64(len(raw)))
		if err != nil {
			return "", fmt.Errorf("extract pdf %s failed: %w", name, err)
		}
		// PDFs carry no markdown headers; give the whole text one section.
		return "# " + ReportTitle(name) + "\n\n" + text, nil
	}
	return string(raw), nil
}

// MemoryReportSource serves reports bundled into the binary or built in tests.
type MemoryReportSource struct {
	reports map[string]string
}

func NewMemoryReportSource(reports map[string]string) *MemoryReportSource {
	copied := make(map[string]string, len(reports))
	for name, content := range reports {
		copied[name] = content
	}
	return &MemoryReportSource{reports: copied}
}

func (s *MemoryReportSource) ListReports(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.reports))
	for name := range s.reports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryReportSource) ReadReport(ctx context.Context, name string) (string, error) {
	content, ok := s.reports[name]
	if !ok {
		return "", ErrReportNotFound
	}
	return content, nil
}

type FileJobTable struct {
	Path        string
	DatasetName string
}

func NewFileJobTable(path, datasetName string) *FileJobTable {
	return &FileJobTable{Path: path, DatasetName: datasetName}
}

func (t *FileJobTable) Name() string {
	if t.DatasetName != "" {
		return t.DatasetName
	}
	return strings.TrimSuffix(filepath.Base(t.Path), filepath.Ext(t.Path))
}

func (t *FileJobTable) OpenJobTable(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(t.Path)
	if err != nil {
		return nil, fmt.Errorf("open job table failed: %w", err)
	}
	return f, nil
}

type FileStats struct {
	Path string
}

func NewFileStats(path string) *FileStats {
	return &FileStats{Path: path}
}

func (s *FileStats) Name() string {
	return filepath.Base(s.Path)
}

func (s *FileStats) ReadStats(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read stats failed: %w", err)
	}
	return raw, nil
}

type FileSimilarity struct {
	Path string
}

func NewFileSimilarity(path string) *FileSimilarity {
	return &FileSimilarity{Path: path}
}

func (s *FileSimilarity) OpenSimilarity(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open similarity table failed: %w", err)
	}
	return f, nil
}

// ReportTitle turns "Energy_Transition.md" into "Energy Transition".
func ReportTitle(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(base, "_", " ")
}

func isReportFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".pdf":
		return true
	}
	return false
}

func validReportName(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return false
	}
	return isReportFile(name)
}
