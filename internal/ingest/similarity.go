package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"career-constellation/internal/model"
)

const (
	// DefaultDuplicateThreshold is the similarity at or above which two
	// positions count as near-duplicates.
	DefaultDuplicateThreshold = 0.95

	// A role is an outlier when its closest neighbour scores below
	// outlierMaxScore and it lists at most outlierMaxSkills skills.
	outlierMaxScore  = 0.80
	outlierMaxSkills = 1

	maxPairExamples    = 3
	maxProfileSkills   = 8
	maxOutlierExamples = 10

	nearDuplicatesSource = "similarity_analysis"
	clusterProfileSource = "cluster_analysis"
)

// SimilarityRecord is one row of the similarity table.
type SimilarityRecord struct {
	EmployeeID   string
	Title        string
	ClusterLabel string
	Skills       []string
	SkillsCount  int
	Neighbours   [3]Neighbour
}

type Neighbour struct {
	EmployeeID string
	Score      float64
}

// SimilarityTable is the parsed similarity table with the near-duplicate
// pairs found in it.
type SimilarityTable struct {
	Records []SimilarityRecord
	Pairs   []model.DuplicatePair
}

// ParseSimilarity extracts unordered near-duplicate pairs from the
// similarity table. A pair is reported once, from the first record that
// lists it, and only when both employees appear in the table.
func ParseSimilarity(r io.Reader, threshold float64) ([]model.DuplicatePair, error) {
	table, err := ParseSimilarityTable(r, threshold)
	if err != nil {
		return nil, err
	}
	return table.Pairs, nil
}

func ParseSimilarityTable(r io.Reader, threshold float64) (*SimilarityTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &SimilarityTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read similarity header failed: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	table := &SimilarityTable{}
	byEmployee := make(map[string]int)
	for {
		raw, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read similarity row failed: %w", err)
		}
		row := tableRow{columns: columns, record: raw}
		rec := SimilarityRecord{
			EmployeeID:   row.get("Employee_ID"),
			Title:        row.get("title_clean"),
			ClusterLabel: row.get("Cluster_Label"),
			Skills:       SplitList(row.get("Skills_String")),
		}
		rec.SkillsCount, _ = parseLooseInt(row.get("Skills_Count"))
		for n := 0; n < len(rec.Neighbours); n++ {
			rec.Neighbours[n] = Neighbour{
				EmployeeID: row.get(fmt.Sprintf("Similar_Employee_%d", n+1)),
				Score:      parseFloatOr(row.get(fmt.Sprintf("Similar_Employee_%d_Score", n+1)), 0),
			}
		}
		if _, dup := byEmployee[rec.EmployeeID]; !dup {
			byEmployee[rec.EmployeeID] = len(table.Records)
		}
		table.Records = append(table.Records, rec)
	}

	seen := make(map[[2]string]struct{})
	for _, rec := range table.Records {
		for _, nb := range rec.Neighbours {
			if nb.EmployeeID == "" || nb.Score < threshold {
				continue
			}
			key := [2]string{rec.EmployeeID, nb.EmployeeID}
			if key[1] < key[0] {
				key[0], key[1] = key[1], key[0]
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			idx, ok := byEmployee[nb.EmployeeID]
			if !ok {
				continue
			}
			table.Pairs = append(table.Pairs, model.DuplicatePair{
				EmployeeA: rec.EmployeeID,
				TitleA:    rec.Title,
				EmployeeB: nb.EmployeeID,
				TitleB:    table.Records[idx].Title,
				Score:     nb.Score,
				Cluster:   rec.ClusterLabel,
			})
		}
	}
	return table, nil
}

// SimilarityChunks makes the standardization data retrievable: one
// near-duplicate summary, one profile per cluster label in first-seen order
// and, when there are any, one outlier chunk. An empty table yields none.
func SimilarityChunks(table *SimilarityTable) []model.Chunk {
	if table == nil || len(table.Records) == 0 {
		return nil
	}

	labels, members := groupByLabel(table.Records)
	pairsByLabel := make(map[string][]model.DuplicatePair)
	for _, p := range table.Pairs {
		pairsByLabel[p.Cluster] = append(pairsByLabel[p.Cluster], p)
	}

	chunks := []model.Chunk{nearDuplicateChunk(table.Pairs, labels, pairsByLabel)}
	for i, label := range labels {
		chunks = append(chunks, clusterProfileChunk(i, label, members[label], pairsByLabel[label]))
	}
	if outliers := outlierRecords(table.Records); len(outliers) > 0 {
		chunks = append(chunks, outlierChunk(outliers))
	}
	return chunks
}

func groupByLabel(records []SimilarityRecord) ([]string, map[string][]SimilarityRecord) {
	var labels []string
	members := make(map[string][]SimilarityRecord)
	for _, rec := range records {
		if _, ok := members[rec.ClusterLabel]; !ok {
			labels = append(labels, rec.ClusterLabel)
		}
		members[rec.ClusterLabel] = append(members[rec.ClusterLabel], rec)
	}
	return labels, members
}

func nearDuplicateChunk(pairs []model.DuplicatePair, labels []string, pairsByLabel map[string][]model.DuplicatePair) model.Chunk {
	ordered := make([]string, 0, len(pairsByLabel))
	for _, label := range labels {
		if len(pairsByLabel[label]) > 0 {
			ordered = append(ordered, label)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(pairsByLabel[ordered[i]]) > len(pairsByLabel[ordered[j]])
	})

	var b strings.Builder
	b.WriteString("Near-duplicate job pairs: standardization candidates\n\n")
	fmt.Fprintf(&b, "Total near-duplicate pairs: %d\n", len(pairs))
	b.WriteString("These duplicate roles have almost identical job descriptions and could be merged into one standardized job profile.\n")
	for _, label := range ordered {
		group := pairsByLabel[label]
		fmt.Fprintf(&b, "\n%s: %d duplicate pairs\n", orNotAvailable(label), len(group))
		for _, p := range group[:min(len(group), maxPairExamples)] {
			fmt.Fprintf(&b, "- %q and %q (%s vs %s, similarity %.1f%%)\n", p.TitleA, p.TitleB, p.EmployeeA, p.EmployeeB, p.Score*100)
		}
	}
	return model.Chunk{
		ID:       "similarity-near-duplicates",
		Content:  strings.TrimRight(b.String(), "\n"),
		Kind:     model.KindSimilarity,
		Source:   nearDuplicatesSource,
		Metadata: model.SimilarityMetadata{Scope: "near_duplicates", Count: len(pairs)},
	}
}

func clusterProfileChunk(i int, label string, members []SimilarityRecord, pairs []model.DuplicatePair) model.Chunk {
	counts := make(map[string]int)
	totalSkills := 0
	for _, m := range members {
		for _, s := range m.Skills {
			counts[s]++
		}
		totalSkills += m.SkillsCount
	}
	skills := make([]string, 0, len(counts))
	for s := range counts {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(a, b int) bool {
		if counts[skills[a]] != counts[skills[b]] {
			return counts[skills[a]] > counts[skills[b]]
		}
		return skills[a] < skills[b]
	})
	top := make([]string, 0, maxProfileSkills)
	for _, s := range skills[:min(len(skills), maxProfileSkills)] {
		top = append(top, fmt.Sprintf("%s (%d/%d employees)", s, counts[s], len(members)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cluster profile: %s\n", orNotAvailable(label))
	fmt.Fprintf(&b, "Size: %d employees\n", len(members))
	fmt.Fprintf(&b, "Average skills per employee: %.1f\n", float64(totalSkills)/float64(len(members)))
	fmt.Fprintf(&b, "Top skills: %s\n", joinOrNotAvailable(top))
	fmt.Fprintf(&b, "Near-duplicate pairs within cluster: %d\n", len(pairs))
	if len(pairs) > 0 {
		p := pairs[0]
		fmt.Fprintf(&b, "Standardization opportunity: %d duplicate role pairs in this cluster could be merged. Example: %q and %q (%.1f%% match)",
			len(pairs), p.TitleA, p.TitleB, p.Score*100)
	} else {
		b.WriteString("No near-duplicate pairs: roles in this cluster are well differentiated.")
	}

	return model.Chunk{
		ID:       fmt.Sprintf("cluster-profile-%d", i),
		Content:  b.String(),
		Kind:     model.KindSimilarity,
		Source:   clusterProfileSource,
		Metadata: model.SimilarityMetadata{Scope: "cluster_profile", ClusterLabel: label, Count: len(pairs)},
	}
}

func outlierRecords(records []SimilarityRecord) []SimilarityRecord {
	var outliers []SimilarityRecord
	for _, rec := range records {
		if rec.Neighbours[0].Score < outlierMaxScore && rec.SkillsCount <= outlierMaxSkills {
			outliers = append(outliers, rec)
		}
	}
	return outliers
}

func outlierChunk(outliers []SimilarityRecord) model.Chunk {
	var b strings.Builder
	b.WriteString("Unique and outlier roles: potential niche positions\n\n")
	fmt.Fprintf(&b, "%d roles have low similarity to any other position (closest neighbour below %.0f%%) and very few identifiable skills. "+
		"They may be unique specialist roles or job descriptions that need improvement.\n\nSample outlier roles:\n",
		len(outliers), outlierMaxScore*100)
	for _, rec := range outliers[:min(len(outliers), maxOutlierExamples)] {
		fmt.Fprintf(&b, "- %s (%s)\n", orNotAvailable(rec.Title), orNotAvailable(rec.ClusterLabel))
	}
	return model.Chunk{
		ID:       "similarity-outliers",
		Content:  strings.TrimRight(b.String(), "\n"),
		Kind:     model.KindSimilarity,
		Source:   nearDuplicatesSource,
		Metadata: model.SimilarityMetadata{Scope: "outliers", Count: len(outliers)},
	}
}
