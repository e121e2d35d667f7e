package trends

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rmaia/pendencias-monitor/internal/modules/catalog"
)

// SnapshotResult is one pendência entry read back from a run snapshot.
// Older snapshots carried the count as "quantidade"; current ones use
// "total_registros". Both are accepted.
type SnapshotResult struct {
	ID          int64
	PendenciaID int64
	Name        string
	Count       int64
	DisplayMode *int64
	Status      string
}

// UnmarshalJSON tolerates both snapshot generations.
func (r *SnapshotResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             int64   `json:"id"`
		PendenciaID    int64   `json:"id_pendencia"`
		Name           *string `json:"nome_pendencia"`
		TotalRegistros *int64  `json:"total_registros"`
		Quantidade     *int64  `json:"quantidade"`
		DisplayMode    *int64  `json:"exibe_contagem"`
		Status         string  `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ID = raw.ID
	r.PendenciaID = raw.PendenciaID
	r.DisplayMode = raw.DisplayMode
	r.Status = raw.Status
	if raw.Name != nil {
		r.Name = *raw.Name
	}
	switch {
	case raw.TotalRegistros != nil:
		r.Count = *raw.TotalRegistros
	case raw.Quantidade != nil:
		r.Count = *raw.Quantidade
	}

	return nil
}

// IsMonetary reports whether this entry's count is a currency amount.
func (r SnapshotResult) IsMonetary() bool {
	return r.DisplayMode != nil && *r.DisplayMode == catalog.DisplayModeMonetary
}

// Snapshot is a run snapshot loaded from disk, reduced to what the
// comparator needs.
type Snapshot struct {
	Timestamp      string
	TotalConsultas int
	Results        map[string]SnapshotResult
}

// UnmarshalJSON accepts "resultados" as either the keyed mapping written by
// current runs or the raw list older runs produced.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp      string          `json:"timestamp"`
		TotalConsultas int             `json:"total_consultas"`
		Resultados     json.RawMessage `json:"resultados"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Timestamp = raw.Timestamp
	s.TotalConsultas = raw.TotalConsultas
	s.Results = map[string]SnapshotResult{}

	if len(raw.Resultados) == 0 {
		return nil
	}

	var asMap map[string]SnapshotResult
	if err := json.Unmarshal(raw.Resultados, &asMap); err == nil {
		s.Results = asMap
		return nil
	}

	var asList []SnapshotResult
	if err := json.Unmarshal(raw.Resultados, &asList); err != nil {
		return fmt.Errorf("unrecognized resultados layout: %w", err)
	}
	for _, r := range asList {
		s.Results[strconv.FormatInt(r.ID, 10)] = r
	}

	return nil
}

// Comparison is the delta between one pendência's counts in two snapshots.
// A positive Delta is a reduction (previous minus current).
type Comparison struct {
	QueryID          int64
	Name             string
	PreviousCount    int64
	CurrentCount     int64
	Delta            int64
	PercentReduction float64
	IsMonetary       bool
	PreviousValue    float64 // Monetary reading of PreviousCount
	CurrentValue     float64 // Monetary reading of CurrentCount
	DeltaValue       float64 // Monetary reading of Delta
}
