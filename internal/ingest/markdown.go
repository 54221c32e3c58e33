package ingest

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"career-constellation/internal/model"
)

const (
	// maxSectionChars bounds the body of a report chunk, header excluded.
	maxSectionChars = 1000
	// overlapSentences is how many trailing sentences of a flushed chunk
	// seed the next one.
	overlapSentences = 3
)

// ChunkReport splits one markdown document into header-bounded chunks.
// The result depends only on file and content.
func ChunkReport(file, content string) []model.Chunk {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var chunks []model.Chunk
	for _, section := range splitSections(content) {
		header, body, ok := parseSection(section)
		if !ok {
			continue
		}
		for _, part := range splitBody(body) {
			chunks = append(chunks, model.Chunk{
				ID:      fmt.Sprintf("%s-%d", file, len(chunks)),
				Content: header + "\n\n" + part,
				Kind:    model.KindReport,
				Source:  file,
				Metadata: model.ReportMetadata{
					Header:     header,
					SourceFile: file,
				},
			})
		}
	}
	return chunks
}

// IsHeaderLine reports whether line opens a level 1-3 markdown section.
func IsHeaderLine(line string) bool {
	marks := 0
	for marks < len(line) && line[marks] == '#' {
		marks++
	}
	if marks < 1 || marks > 3 || marks >= len(line) || line[marks] != ' ' {
		return false
	}
	return strings.TrimSpace(line[marks:]) != ""
}

// splitSections cuts content before every header line. The first section
// may have no header; parseSection drops it.
func splitSections(content string) [][]string {
	var sections [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if IsHeaderLine(line) && len(current) > 0 {
			sections = append(sections, current)
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, current)
	}
	return sections
}

func parseSection(lines []string) (header, body string, ok bool) {
	if len(lines) == 0 || !IsHeaderLine(lines[0]) {
		return "", "", false
	}
	header = strings.TrimRight(lines[0], " \t")
	body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	if body == "" {
		return "", "", false
	}
	return header, body, true
}

// splitBody returns body unchanged when it fits, otherwise greedy sentence
// windows where each window after the first starts with the last
// overlapSentences sentences of the previous one.
func splitBody(body string) []string {
	if utf8.RuneCountInString(body) <= maxSectionChars {
		return []string{body}
	}

	var parts []string
	var buf []string
	bufLen := 0
	for _, sentence := range SplitSentences(body) {
		sentenceLen := utf8.RuneCountInString(sentence)
		if len(buf) > 0 && bufLen+1+sentenceLen > maxSectionChars {
			parts = append(parts, strings.Join(buf, " "))

			start := len(buf) - overlapSentences
			if start < 0 {
				start = 0
			}
			carry := append([]string(nil), buf[start:]...)
			buf = append(carry, sentence)
			bufLen = joinedLen(buf)
			continue
		}
		if len(buf) > 0 {
			bufLen++
		}
		buf = append(buf, sentence)
		bufLen += sentenceLen
	}
	if len(buf) > 0 {
		parts = append(parts, strings.Join(buf, " "))
	}
	return parts
}

// SplitSentences breaks text after '.', '!' or '?' when followed by
// whitespace. The whitespace run itself is dropped.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentences = append(sentences, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += utf8.RuneCountInString(p)
	}
	return n
}
