package runner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotWriter_Write(t *testing.T) {
	dir := t.TempDir()

	writer := NewSnapshotWriter(dir, zerolog.Nop())
	writer.now = func() time.Time {
		return time.Date(2026, 8, 31, 20, 1, 2, 0, time.UTC)
	}

	name := "Notas sem fechamento"
	results := []ExecutionResult{
		successResult(1, 5),
		errorResult(2),
	}
	results[0].Name = &name

	summary := Summarize(results, 2, time.Date(2026, 8, 31, 20, 1, 2, 0, time.UTC))

	path, err := writer.Write(summary)
	require.NoError(t, err)

	assert.Equal(t, "resultados_execucao_pendencias_20260831_200102.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "31/08/2026 20:01:02", doc["timestamp"])
	assert.EqualValues(t, 2, doc["total_consultas"])
	assert.EqualValues(t, 1, doc["consultas_executadas"])
	assert.EqualValues(t, 1, doc["consultas_com_erro"])
	assert.EqualValues(t, 5, doc["total_pendencias_encontradas"])
	assert.EqualValues(t, 50, doc["taxa_sucesso"])

	top, ok := doc["top_pendencias"].([]interface{})
	require.True(t, ok)
	require.Len(t, top, 1)
	entry := top[0].(map[string]interface{})
	assert.EqualValues(t, 1, entry["posicao"])
	assert.EqualValues(t, 1, entry["id"])
	assert.Equal(t, "Notas sem fechamento", entry["nome"])
	assert.EqualValues(t, 5, entry["quantidade"])

	resultados, ok := doc["resultados"].(map[string]interface{})
	require.True(t, ok)
	require.Len(t, resultados, 2)

	first := resultados["1"].(map[string]interface{})
	assert.Equal(t, "sucesso", first["status"])
	assert.EqualValues(t, 5, first["total_registros"])
	assert.Nil(t, first["erro"])

	second := resultados["2"].(map[string]interface{})
	assert.Equal(t, "erro", second["status"])
	assert.Nil(t, second["total_registros"])
	assert.Equal(t, "syntax error", second["erro"])
}

func TestSnapshotWriter_EmptyTopSerializesAsList(t *testing.T) {
	dir := t.TempDir()
	writer := NewSnapshotWriter(dir, zerolog.Nop())

	summary := Summarize(nil, 0, time.Now())

	path, err := writer.Write(summary)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	_, ok := doc["top_pendencias"].([]interface{})
	assert.True(t, ok, "top_pendencias must be a JSON array even when empty")
}

func TestSnapshotWriter_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	writer := NewSnapshotWriter(dir, zerolog.Nop())

	_, err := writer.Write(Summarize(nil, 0, time.Now()))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
