package runner

import "fmt"

// Execution status values, serialized as-is into snapshots
const (
	StatusSuccess = "sucesso"
	StatusError   = "erro"
)

// previewLen is how much of the stored SQL survives into results and logs.
const previewLen = 100

// ExecutionResult is the outcome of one pendência query within a run. A nil
// Count signals the query itself failed; a zero Count is a successful query
// that found nothing.
type ExecutionResult struct {
	ID          int64   `json:"id"`
	PendenciaID int64   `json:"id_pendencia"`
	Name        *string `json:"nome_pendencia"`
	GroupID     *int64  `json:"id_grupo"`
	Count       *int64  `json:"total_registros"`
	DisplayMode *int64  `json:"exibe_contagem"`
	Status      string  `json:"status"`
	Error       *string `json:"erro"`
	Preview     *string `json:"consulta_preview"`
}

// DisplayName returns the pendência name, or a generated fallback.
func (r ExecutionResult) DisplayName() string {
	if r.Name != nil && *r.Name != "" {
		return *r.Name
	}
	return fmt.Sprintf("Pendência %d", r.PendenciaID)
}

// IsSuccess reports whether the query executed without error.
func (r ExecutionResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// HasPositiveCount reports whether the query succeeded with a count above
// zero. Only these results feed the total sum and the top ranking.
func (r ExecutionResult) HasPositiveCount() bool {
	return r.IsSuccess() && r.Count != nil && *r.Count > 0
}

// TopEntry is one row of the top-5 ranking inside a run summary.
type TopEntry struct {
	Position int    `json:"posicao"`
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Count    int64  `json:"quantidade"`
}

// RunSummary aggregates one batch run. It exists to be serialized; nothing
// persists it beyond the snapshot file.
type RunSummary struct {
	Timestamp    string            // dd/mm/yyyy hh:mm:ss
	TotalQueries int               // Queries loaded for the run, not just the ones reached
	SuccessCount int
	ErrorCount   int
	TotalCount   int64             // Sum of counts over successful, positive results
	Results      []ExecutionResult // Execution order preserved
	Top          []TopEntry
	Interrupted  bool              // Run was cancelled before reaching every query
}

// SuccessRate returns the percentage of queries that executed successfully.
func (s *RunSummary) SuccessRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalQueries) * 100
}

// previewSQL truncates stored query text for results and logs.
func previewSQL(query string) string {
	if len(query) > previewLen {
		return query[:previewLen] + "..."
	}
	return query
}
