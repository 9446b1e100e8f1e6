package transformer

import (
	"fmt"
	"sort"
	"time"

	"bizdash/internal/models"
)

const maxReportedIssues = 200

// QualityEntry ties a record's quality to the file row it came from.
type QualityEntry struct {
	File    string
	Row     int
	Quality models.RecordQuality
}

func SalesQuality(records []models.NormalizedSale) []QualityEntry {
	entries := make([]QualityEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, QualityEntry{File: r.File, Row: r.Row, Quality: r.Quality})
	}
	return entries
}

func TicketQuality(records []models.NormalizedTicket) []QualityEntry {
	entries := make([]QualityEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, QualityEntry{File: r.File, Row: r.Row, Quality: r.Quality})
	}
	return entries
}

// GenerateQualityReport summarizes row-level quality for one pipeline run.
// File-level counters are left for the caller to fill in.
func (t *Transformer) GenerateQualityReport(pipeline string, entries []QualityEntry) models.QualityReport {
	valid := 0
	issues := make([]models.QualityIssue, 0)

	for _, entry := range entries {
		if entry.Quality.IsValid {
			valid++
		}

		fields := make([]string, 0, len(entry.Quality.FieldErrors))
		for field, fq := range entry.Quality.FieldErrors {
			if !fq.IsValid {
				fields = append(fields, field)
			}
		}
		sort.Strings(fields)

		for _, field := range fields {
			if len(issues) >= maxReportedIssues {
				break
			}
			fq := entry.Quality.FieldErrors[field]
			issues = append(issues, models.QualityIssue{
				File:          entry.File,
				Row:           entry.Row,
				Field:         field,
				Description:   fq.Description,
				OriginalValue: fq.OriginalValue,
			})
		}
	}

	score := 0.0
	if len(entries) > 0 {
		score = float64(valid) / float64(len(entries)) * 100
	}

	return models.QualityReport{
		Pipeline:     pipeline,
		FilesFailed:  make([]string, 0),
		RowsRead:     len(entries),
		RowsSkipped:  len(entries) - valid,
		QualityScore: score,
		Issues:       issues,
		CommonIssues: t.identifyCommonIssues(entries),
		Timestamp:    time.Now().Format(time.RFC3339),
	}
}

func (t *Transformer) identifyCommonIssues(entries []QualityEntry) []string {
	issueCount := make(map[string]int)

	for _, entry := range entries {
		for _, fieldError := range entry.Quality.FieldErrors {
			if !fieldError.IsValid {
				issueCount[fieldError.Description]++
			}
		}
	}

	commonIssues := make([]string, 0)
	for issue, count := range issueCount {
		if count > 1 { // Only include issues that appear more than once
			commonIssues = append(commonIssues, fmt.Sprintf("%s (occurs %d times)", issue, count))
		}
	}
	sort.Strings(commonIssues)

	return commonIssues
}
