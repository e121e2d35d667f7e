package runner

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaia/pendencias-monitor/internal/database"
	"github.com/rmaia/pendencias-monitor/internal/events"
	"github.com/rmaia/pendencias-monitor/internal/modules/catalog"
	"github.com/rmaia/pendencias-monitor/internal/modules/history"
	"github.com/rmaia/pendencias-monitor/internal/modules/responsibility"
)

func newTestService(t *testing.T) (*Service, *database.DB, string) {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	outputDir := t.TempDir()
	log := zerolog.Nop()

	svc := New(Config{
		DB:        db,
		Catalog:   catalog.NewRepository(db.Conn(), log),
		Resolver:  responsibility.NewResolver(42, log),
		History:   history.NewRepository(log),
		Snapshots: NewSnapshotWriter(outputDir, log),
		Events:    events.NewManager(log),
		Log:       log,
	})

	return svc, db, outputDir
}

func seedQuery(t *testing.T, db *database.DB, id, pendenciaID int64, querySQL string) {
	t.Helper()
	_, err := db.Conn().Exec(
		`INSERT INTO amm_consulta_pendencias (id, id_pendencia, consulta_pendencia, nome_pendencia)
		 VALUES (?, ?, ?, ?)`,
		id, pendenciaID, querySQL, "Pendência teste",
	)
	require.NoError(t, err)
}

func historyRow(t *testing.T, db *database.DB, pendenciaID int64) (count int64, found bool) {
	t.Helper()
	err := db.Conn().QueryRow(
		`SELECT qtd FROM amm_histPendencias WHERE idPendencia = ?`, pendenciaID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false
	}
	require.NoError(t, err)
	return count, true
}

func TestRunAll_MixedOutcomes(t *testing.T) {
	svc, db, outputDir := newTestService(t)

	seedQuery(t, db, 1, 101, "SELECT 5")
	seedQuery(t, db, 2, 102, "SELECT 1 WHERE 1 = 0")
	seedQuery(t, db, 3, 103, "SELECT quantidade FROM tabela_inexistente")

	summary, err := svc.RunAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 3, summary.TotalQueries)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.ErrorCount)
	assert.Equal(t, int64(5), summary.TotalCount)
	assert.False(t, summary.Interrupted)
	require.Len(t, summary.Results, 3)

	assert.Equal(t, StatusSuccess, summary.Results[0].Status)
	require.NotNil(t, summary.Results[0].Count)
	assert.Equal(t, int64(5), *summary.Results[0].Count)

	assert.Equal(t, StatusSuccess, summary.Results[1].Status)
	require.NotNil(t, summary.Results[1].Count)
	assert.Equal(t, int64(0), *summary.Results[1].Count)

	assert.Equal(t, StatusError, summary.Results[2].Status)
	assert.Nil(t, summary.Results[2].Count)
	require.NotNil(t, summary.Results[2].Error)

	// Successful queries get a history row, the failed one does not.
	count, found := historyRow(t, db, 101)
	require.True(t, found)
	assert.Equal(t, int64(5), count)

	count, found = historyRow(t, db, 102)
	require.True(t, found)
	assert.Equal(t, int64(0), count)

	_, found = historyRow(t, db, 103)
	assert.False(t, found)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "expected exactly one snapshot file")
}

func TestRunAll_EmptyCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)

	summary, err := svc.RunAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "no pendências")
}

func TestRunAll_CancelledMidBatch(t *testing.T) {
	svc, db, outputDir := newTestService(t)

	slow := `WITH RECURSIVE contagem(x) AS (
		SELECT 1 UNION ALL SELECT x + 1 FROM contagem WHERE x < 1000000000
	) SELECT COUNT(*) FROM contagem`

	seedQuery(t, db, 1, 101, "SELECT 5")
	seedQuery(t, db, 2, 102, slow)
	seedQuery(t, db, 3, 103, "SELECT 9")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)

	summary, err := svc.RunAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 3, summary.TotalQueries)

	// Only work finished before the cancel survives; the aborted in-flight
	// attempt is not reported as a failure.
	require.Len(t, summary.Results, 1)
	assert.Equal(t, StatusSuccess, summary.Results[0].Status)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 0, summary.ErrorCount)
	assert.Equal(t, int64(5), summary.TotalCount)

	// The partial run is still snapshotted.
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunAll_NullCountIsZeroSuccess(t *testing.T) {
	svc, db, _ := newTestService(t)

	seedQuery(t, db, 1, 201, "SELECT NULL")

	summary, err := svc.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 0, summary.ErrorCount)
	require.NotNil(t, summary.Results[0].Count)
	assert.Equal(t, int64(0), *summary.Results[0].Count)

	count, found := historyRow(t, db, 201)
	require.True(t, found)
	assert.Equal(t, int64(0), count)
}

func TestRunAll_DefaultUserAttribution(t *testing.T) {
	svc, db, _ := newTestService(t)

	seedQuery(t, db, 1, 301, "SELECT 2")

	_, err := svc.RunAll(context.Background())
	require.NoError(t, err)

	var userID int64
	require.NoError(t, db.Conn().QueryRow(
		`SELECT idUsuario FROM amm_histPendencias WHERE idPendencia = 301`,
	).Scan(&userID))
	assert.Equal(t, int64(42), userID)
}

func TestRunAll_AssigneeAttribution(t *testing.T) {
	svc, db, _ := newTestService(t)

	seedQuery(t, db, 1, 401, "SELECT 7")
	_, err := db.Conn().Exec(`INSERT INTO amm_usuarios (id, nome) VALUES (7, 'Maria')`)
	require.NoError(t, err)
	_, err = db.Conn().Exec(`INSERT INTO amm_usuarios_x_pendencias (idUsu, idPendencia) VALUES (7, 401)`)
	require.NoError(t, err)

	_, err = svc.RunAll(context.Background())
	require.NoError(t, err)

	var userID int64
	require.NoError(t, db.Conn().QueryRow(
		`SELECT idUsuario FROM amm_histPendencias WHERE idPendencia = 401`,
	).Scan(&userID))
	assert.Equal(t, int64(7), userID)
}

func TestRunAll_PreviewTruncation(t *testing.T) {
	svc, db, _ := newTestService(t)

	long := "SELECT 1 -- " + strings.Repeat("x", 200)
	seedQuery(t, db, 1, 501, long)

	summary, err := svc.RunAll(context.Background())
	require.NoError(t, err)

	require.NotNil(t, summary.Results[0].Preview)
	preview := *summary.Results[0].Preview
	assert.Len(t, preview, previewLen+3)
	assert.True(t, strings.HasSuffix(preview, "..."))
}

func TestFetchCount(t *testing.T) {
	db, err := database.New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	conn, err := db.AcquireConn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	tests := []struct {
		name    string
		query   string
		want    int64
		wantErr bool
	}{
		{name: "integer value", query: "SELECT 5", want: 5},
		{name: "no rows", query: "SELECT 1 WHERE 1 = 0", want: 0},
		{name: "null value", query: "SELECT NULL", want: 0},
		{name: "float truncates", query: "SELECT 3.9", want: 3},
		{name: "extra columns ignored", query: "SELECT 8, 'texto', 99", want: 8},
		{name: "invalid sql", query: "SELECT FROM", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fetchCount(ctx, conn, tt.query)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
