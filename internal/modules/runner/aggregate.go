package runner

import (
	"sort"
	"time"
)

// topLimit is the size of the ranking embedded in every run summary.
const topLimit = 5

// Summarize builds a RunSummary from the collected per-item results. Pure:
// it never touches the database or the filesystem.
func Summarize(results []ExecutionResult, totalQueries int, at time.Time) *RunSummary {
	summary := &RunSummary{
		Timestamp:    at.Format("02/01/2006 15:04:05"),
		TotalQueries: totalQueries,
		Results:      results,
	}

	for _, r := range results {
		switch {
		case r.IsSuccess():
			summary.SuccessCount++
		case r.Status == StatusError:
			summary.ErrorCount++
		}
		if r.HasPositiveCount() {
			summary.TotalCount += *r.Count
		}
	}

	summary.Top = topResults(results, topLimit)

	return summary
}

// topResults ranks the successful, positive results by count, descending.
// The sort is stable so ties keep execution order.
func topResults(results []ExecutionResult, limit int) []TopEntry {
	ranked := make([]ExecutionResult, 0, len(results))
	for _, r := range results {
		if r.HasPositiveCount() {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Count > *ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	top := make([]TopEntry, 0, len(ranked))
	for i, r := range ranked {
		top = append(top, TopEntry{
			Position: i + 1,
			ID:       r.ID,
			Name:     r.DisplayName(),
			Count:    *r.Count,
		})
	}

	return top
}
