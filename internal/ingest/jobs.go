package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"career-constellation/internal/model"
)

var ErrEmptyJobTable = errors.New("job table has no header row")

const notAvailable = "N/A"

// ParseJobs reads the job-postings table and returns one Job and one job
// chunk per data row, in row order.
func ParseJobs(r io.Reader, source string) ([]model.Job, []model.Chunk, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyJobTable
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read job table header failed: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	var jobs []model.Job
	var chunks []model.Chunk
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read job table row %d failed: %w", len(jobs)+1, err)
		}
		if blankRecord(record) {
			continue
		}
		row := tableRow{columns: columns, record: record}
		job := parseJobRow(len(jobs), row)
		jobs = append(jobs, job)
		chunks = append(chunks, model.Chunk{
			ID:      fmt.Sprintf("job-%d", job.ID),
			Content: RenderJob(job),
			Kind:    model.KindJob,
			Source:  source,
			Metadata: model.JobMetadata{
				JobID:        job.ID,
				EmployeeID:   job.EmployeeID,
				Title:        job.Title,
				ClusterID:    job.ClusterID,
				ClusterLabel: job.ClusterLabel,
			},
		})
	}
	return jobs, chunks, nil
}

// RenderJob is the fixed textual form of a job that gets indexed.
func RenderJob(job model.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Position: %s (ID: %s)\n", job.Title, job.EmployeeID)
	fmt.Fprintf(&b, "Cluster: %s (Cluster %s)\n\n", job.ClusterLabel, clusterRef(job.ClusterID))
	fmt.Fprintf(&b, "Summary: %s\n\n", orNotAvailable(job.Summary))
	fmt.Fprintf(&b, "Responsibilities: %s\n\n", orNotAvailable(job.Responsibilities))
	fmt.Fprintf(&b, "Qualifications: %s\n\n", orNotAvailable(job.Qualifications))
	fmt.Fprintf(&b, "Keywords: %s", strings.Join(job.Keywords, ", "))
	return b.String()
}

type tableRow struct {
	columns map[string]int
	record  []string
}

func (r tableRow) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func parseJobRow(id int, row tableRow) model.Job {
	employeeID := row.get("employee_id")
	if employeeID == "" {
		employeeID = fmt.Sprintf("EMP_%04d", id+1)
	}
	titleClean := row.get("title_clean")
	title := row.get("Unified Job Title (display)")
	if title == "" {
		title = titleClean
	}

	clusterID, ok := parseLooseInt(row.get("cluster"))
	if !ok {
		clusterID = model.InvalidClusterID
	}
	distance := parseFloatOr(row.get("Distance_to_Center"), 0)

	return model.Job{
		ID:               id,
		EmployeeID:       employeeID,
		Title:            title,
		TitleClean:       titleClean,
		Summary:          row.get("position_summary"),
		Responsibilities: row.get("responsibilities"),
		Qualifications:   row.get("qualifications"),
		ClusterID:        clusterID,
		ClusterLabel:     row.get("Label"),
		X:                model.Coord(parseFloatOr(row.get("x"), math.NaN())),
		Y:                model.Coord(parseFloatOr(row.get("y"), math.NaN())),
		Keywords:         SplitList(row.get("Keywords")),
		Skills:           []string{},
		JobLevel:         row.get("job_level"),
		DistanceToCenter: distance,
	}
}

// SplitList parses a comma-delimited tag field. Blank items and the
// "None"/"nan" placeholders written by the offline pipeline are dropped.
func SplitList(field string) []string {
	items := []string{}
	for _, item := range strings.Split(field, ",") {
		switch item = strings.TrimSpace(item); item {
		case "", "None", "nan":
			continue
		}
		items = append(items, item)
	}
	return items
}

// parseLooseInt accepts "3" as well as "3.0".
func parseLooseInt(raw string) (int, bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func parseFloatOr(raw string, fallback float64) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return fallback
	}
	return f
}

func clusterRef(id int) string {
	if id == model.InvalidClusterID {
		return notAvailable
	}
	return strconv.Itoa(id)
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
