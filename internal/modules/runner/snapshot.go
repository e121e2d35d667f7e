package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// snapshotDocument is the on-disk JSON layout of a run summary. Field names
// are frozen: the trend comparator and older tooling read these files.
type snapshotDocument struct {
	Timestamp           string                     `json:"timestamp"`
	TotalConsultas      int                        `json:"total_consultas"`
	ConsultasExecutadas int                        `json:"consultas_executadas"`
	ConsultasComErro    int                        `json:"consultas_com_erro"`
	TotalPendencias     int64                      `json:"total_pendencias_encontradas"`
	TaxaSucesso         float64                    `json:"taxa_sucesso"`
	TopPendencias       []TopEntry                 `json:"top_pendencias"`
	Resultados          map[string]ExecutionResult `json:"resultados"`
}

// SnapshotWriter persists run summaries as dated JSON artifacts
type SnapshotWriter struct {
	outputDir string
	log       zerolog.Logger
	now       func() time.Time
}

// NewSnapshotWriter creates a new snapshot writer
func NewSnapshotWriter(outputDir string, log zerolog.Logger) *SnapshotWriter {
	return &SnapshotWriter{
		outputDir: outputDir,
		log:       log.With().Str("service", "snapshot").Logger(),
		now:       time.Now,
	}
}

// Write serializes a run summary to the output directory and returns the
// file path. The write is all-or-nothing; the in-memory summary is not
// affected by a failure here.
func (w *SnapshotWriter) Write(summary *RunSummary) (string, error) {
	doc := snapshotDocument{
		Timestamp:           summary.Timestamp,
		TotalConsultas:      summary.TotalQueries,
		ConsultasExecutadas: summary.SuccessCount,
		ConsultasComErro:    summary.ErrorCount,
		TotalPendencias:     summary.TotalCount,
		TaxaSucesso:         summary.SuccessRate(),
		TopPendencias:       summary.Top,
		Resultados:          make(map[string]ExecutionResult, len(summary.Results)),
	}
	if doc.TopPendencias == nil {
		doc.TopPendencias = []TopEntry{}
	}
	for _, r := range summary.Results {
		doc.Resultados[strconv.FormatInt(r.ID, 10)] = r
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize run summary: %w", err)
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("resultados_execucao_pendencias_%s.json", w.now().Format("20060102_150405"))
	path := filepath.Join(w.outputDir, filename)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", filename, err)
	}

	w.log.Info().Str("file", filename).Msg("Snapshot saved")

	return path, nil
}
