package trends

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Service compares historical run snapshots and reports trends
type Service struct {
	outputDir string
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new trends service
func NewService(outputDir string, log zerolog.Logger) *Service {
	return &Service{
		outputDir: outputDir,
		log:       log.With().Str("service", "trends").Logger(),
		now:       time.Now,
	}
}

// ListSnapshotFiles returns every snapshot file in the output directory,
// oldest first.
func (s *Service) ListSnapshotFiles() ([]string, error) {
	pattern := filepath.Join(s.outputDir, "resultados_execucao_pendencias_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadByDate loads the snapshot for a calendar date. When the date has more
// than one snapshot, the most recently modified file wins.
func (s *Service) LoadByDate(date time.Time) (*Snapshot, error) {
	pattern := filepath.Join(s.outputDir,
		fmt.Sprintf("resultados_execucao_pendencias_%s_*.json", date.Format("20060102")))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob snapshots: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no snapshot found for %s", date.Format("2006-01-02"))
	}

	newest := matches[0]
	var newestMod time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
	}

	data, err := os.ReadFile(newest)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", filepath.Base(newest), err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", filepath.Base(newest), err)
	}

	s.log.Info().Str("file", filepath.Base(newest)).Msg("Snapshot loaded")

	return &snapshot, nil
}

// Compare joins two snapshots on query id and computes the per-pendência
// deltas. Only ids present in both snapshots are compared; ids unique to one
// side are dropped, since the query set is expected to drift between runs.
// Monetary classification follows the newer snapshot.
func (s *Service) Compare(older, newer *Snapshot) []Comparison {
	ids := make([]string, 0, len(newer.Results))
	for id := range newer.Results {
		if _, ok := older.Results[id]; ok {
			ids = append(ids, id)
		}
	}
	// Map order is random; sort numerically so output order is reproducible.
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.ParseInt(ids[i], 10, 64)
		b, _ := strconv.ParseInt(ids[j], 10, 64)
		return a < b
	})

	comparisons := make([]Comparison, 0, len(ids))
	for _, id := range ids {
		current := newer.Results[id]
		previous := older.Results[id]

		delta := previous.Count - current.Count

		var percent float64
		if previous.Count > 0 {
			percent = float64(delta) / float64(previous.Count) * 100
		}

		comparison := Comparison{
			QueryID:          current.ID,
			Name:             current.Name,
			PreviousCount:    previous.Count,
			CurrentCount:     current.Count,
			Delta:            delta,
			PercentReduction: percent,
			IsMonetary:       current.IsMonetary(),
		}
		if comparison.Name == "" {
			comparison.Name = "N/A"
		}
		if comparison.IsMonetary {
			comparison.PreviousValue = float64(previous.Count)
			comparison.CurrentValue = float64(current.Count)
			comparison.DeltaValue = float64(delta)
		}

		comparisons = append(comparisons, comparison)
	}

	s.log.Info().Int("count", len(comparisons)).Msg("Snapshots compared")

	return comparisons
}

// TopReductions ranks comparisons by absolute delta, descending. Only
// reductions count as wins; zero and negative deltas are excluded.
func TopReductions(comparisons []Comparison, limit int) []Comparison {
	reductions := make([]Comparison, 0, len(comparisons))
	for _, c := range comparisons {
		if c.Delta > 0 {
			reductions = append(reductions, c)
		}
	}

	sort.SliceStable(reductions, func(i, j int) bool {
		return reductions[i].Delta > reductions[j].Delta
	})

	if len(reductions) > limit {
		reductions = reductions[:limit]
	}
	return reductions
}

// TopPercentReductions ranks reductions by percentage, descending,
// restricted to pendências that had a previous count to reduce from.
func TopPercentReductions(comparisons []Comparison, limit int) []Comparison {
	reductions := make([]Comparison, 0, len(comparisons))
	for _, c := range comparisons {
		if c.Delta > 0 && c.PreviousCount > 0 {
			reductions = append(reductions, c)
		}
	}

	sort.SliceStable(reductions, func(i, j int) bool {
		return reductions[i].PercentReduction > reductions[j].PercentReduction
	})

	if len(reductions) > limit {
		reductions = reductions[:limit]
	}
	return reductions
}
