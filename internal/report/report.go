package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klyr/fastpat/internal/logging"
)

type Summary struct {
	Total             int         `json:"total"`
	ParseErrors       int         `json:"parse_errors"`
	InvalidSignatures int         `json:"invalid_signatures"`
	Start             time.Time   `json:"start"`
	End               time.Time   `json:"end"`
	TopReasons        []CountItem `json:"top_reasons"`
	TopKeywords       []CountItem `json:"top_keywords"`
	TopFiles          []CountItem `json:"top_files"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]logging.Diagnostic, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return r.ReadFrom(file)
}

func (r *Reader) ReadFrom(in io.Reader) ([]logging.Diagnostic, error) {
	var diagnostics []logging.Diagnostic
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var d logging.Diagnostic
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return nil, err
		}
		if !r.Since.IsZero() && d.Timestamp.Before(r.Since) {
			continue
		}
		diagnostics = append(diagnostics, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func Summarize(diagnostics []logging.Diagnostic) Summary {
	var summary Summary
	if len(diagnostics) == 0 {
		return summary
	}

	summary.Start = diagnostics[0].Timestamp
	summary.End = diagnostics[0].Timestamp

	reasonCounts := map[string]int{}
	keywordCounts := map[string]int{}
	fileCounts := map[string]int{}

	for _, d := range diagnostics {
		summary.Total++
		if d.Timestamp.Before(summary.Start) {
			summary.Start = d.Timestamp
		}
		if d.Timestamp.After(summary.End) {
			summary.End = d.Timestamp
		}

		switch d.Category {
		case "parse_error":
			summary.ParseErrors++
		case "invalid_signature":
			summary.InvalidSignatures++
		}

		reasonCounts[d.Reason]++
		if d.Keyword != "" {
			keywordCounts[d.Keyword]++
		}
		fileCounts[d.File]++
	}

	summary.TopReasons = topCounts(reasonCounts, 5)
	summary.TopKeywords = topCounts(keywordCounts, 5)
	summary.TopFiles = topCounts(fileCounts, 5)

	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

func RenderText(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rejected rules: %d\n", summary.Total)
	fmt.Fprintf(&b, "Parse errors: %d\n", summary.ParseErrors)
	fmt.Fprintf(&b, "Invalid signatures: %d\n", summary.InvalidSignatures)

	writeCounts(&b, "Top reasons", summary.TopReasons)
	writeCounts(&b, "Top keywords", summary.TopKeywords)
	writeCounts(&b, "Top files", summary.TopFiles)

	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# Rule Diagnostics Report\n\n")
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- Rejected rules: %d\n", summary.Total)
	fmt.Fprintf(&b, "- Parse errors: %d\n", summary.ParseErrors)
	fmt.Fprintf(&b, "- Invalid signatures: %d\n\n", summary.InvalidSignatures)

	writeCountsMarkdown(&b, "Top reasons", summary.TopReasons)
	writeCountsMarkdown(&b, "Top keywords", summary.TopKeywords)
	writeCountsMarkdown(&b, "Top files", summary.TopFiles)

	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

func writeCounts(b *strings.Builder, title string, items []CountItem) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
}

func writeCountsMarkdown(b *strings.Builder, title string, items []CountItem) {
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
	b.WriteString("\n")
}

// WriteOutput writes content to path, or to stdout when path is empty.
func WriteOutput(stdout io.Writer, path string, content []byte) error {
	if path == "" {
		_, err := stdout.Write(content)
		return err
	}
	return os.WriteFile(path, content, 0o600)
}
