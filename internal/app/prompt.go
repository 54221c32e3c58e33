package app

import (
	"fmt"
	"sort"
	"strings"

	"career-constellation/internal/model"
)

const (
	UnavailableMessage = "The AI assistant is not available right now because no language model credential is configured. " +
		"Job, cluster and report browsing still work."
	FailureMessage = "I apologize, but I encountered an error while generating a response. Please try again."
)

const preamble = `You are an AI career analyst for an organization-wide job taxonomy. You help HR and
workforce planners understand job families, near-duplicate roles and the research reports.

Guidelines:
- Be concise and specific.
- Cite the source of every fact you take from the context.
- Prefer concrete job IDs (for example EMP_0042) and cluster names over generalities.
- If the context does not answer the question, say so.`

// overviewClusters caps the job families listed in every prompt.
const overviewClusters = 20

// datasetOverview is always given to the model, whether or not anything
// was retrieved.
type datasetOverview struct {
	Jobs           int
	Clusters       int
	DuplicatePairs int
	Families       []familyLine
}

type familyLine struct {
	Label          string
	Roles          int
	DuplicatePairs int
}

// overview lists the largest job families first, ties in first-seen order.
func (snap *snapshot) overview() datasetOverview {
	families := make([]familyLine, 0, len(snap.clusters))
	for _, c := range snap.clusters {
		families = append(families, familyLine{
			Label:          c.Label,
			Roles:          len(c.Jobs),
			DuplicatePairs: snap.pairCounts[c.ID],
		})
	}
	sort.SliceStable(families, func(i, j int) bool {
		return families[i].Roles > families[j].Roles
	})
	if len(families) > overviewClusters {
		families = families[:overviewClusters]
	}
	return datasetOverview{
		Jobs:           len(snap.jobs),
		Clusters:       len(snap.clusters),
		DuplicatePairs: len(snap.pairs),
		Families:       families,
	}
}

// buildContext renders retrieval results into prompt blocks and returns the
// distinct sources in rank order.
func buildContext(results []model.RetrievalResult) (string, []string) {
	if len(results) == 0 {
		return "", []string{}
	}
	blocks := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("---\nSource: %s (Relevance: %.1f%%)\n%s",
			r.Chunk.Source, r.Score*100, r.Chunk.Content))
		if _, ok := seen[r.Chunk.Source]; !ok {
			seen[r.Chunk.Source] = struct{}{}
			sources = append(sources, r.Chunk.Source)
		}
	}
	return strings.Join(blocks, "\n\n"), sources
}

func buildPrompt(overview datasetOverview, context string, history []model.ChatTurn, historyTurns int, message string) string {
	var b strings.Builder
	b.WriteString(preamble)
	fmt.Fprintf(&b, "\n\nDataset overview:\n- Positions: %d\n- Job clusters: %d\n- Near-duplicate pairs: %d\n",
		overview.Jobs, overview.Clusters, overview.DuplicatePairs)
	if len(overview.Families) > 0 {
		b.WriteString("\nJob families:\n")
		for _, f := range overview.Families {
			label := f.Label
			if strings.TrimSpace(label) == "" {
				label = "Unlabeled"
			}
			fmt.Fprintf(&b, "- %s: %d roles", label, f.Roles)
			if f.DuplicatePairs > 0 {
				fmt.Fprintf(&b, ", %d near-duplicate pairs", f.DuplicatePairs)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	if context != "" {
		b.WriteString("Retrieved context:\n")
		b.WriteString(context)
		b.WriteString("\n\nAnswer only from the retrieved context above.")
	} else {
		b.WriteString("No relevant context was retrieved. Answer from your general knowledge of the dataset above.")
	}

	b.WriteString("\n\nConversation History:\n")
	for _, turn := range lastTurns(history, historyTurns) {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	fmt.Fprintf(&b, "\nUser: %s\n\nAssistant:", message)
	return b.String()
}

func lastTurns(history []model.ChatTurn, n int) []model.ChatTurn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
