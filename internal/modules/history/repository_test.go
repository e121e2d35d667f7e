package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaia/pendencias-monitor/internal/database"
)

func setupConn(t *testing.T) *sql.Conn {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())

	conn, err := db.AcquireConn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func newRepoAt(at time.Time) *Repository {
	repo := NewRepository(zerolog.Nop())
	repo.now = func() time.Time { return at }
	return repo
}

func countRows(t *testing.T, conn *sql.Conn, pendenciaID int64) int {
	t.Helper()

	var count int
	err := conn.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM amm_histPendencias WHERE idPendencia = ?", pendenciaID).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestUpsertDaily_Insert(t *testing.T) {
	conn := setupConn(t)
	at := time.Date(2026, 8, 31, 20, 0, 5, 0, time.UTC)
	repo := newRepoAt(at)

	require.NoError(t, repo.UpsertDaily(context.Background(), conn, 42, 7, 10))

	rec, err := repo.GetDaily(context.Background(), conn, 42, "2026-08-31")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, int64(42), rec.PendenciaID)
	assert.Equal(t, "2026-08-31", rec.Date)
	assert.Equal(t, "20:00:05", rec.Time)
	assert.Equal(t, int64(10), rec.UserID)
	assert.Equal(t, int64(7), rec.Count)
}

func TestUpsertDaily_SecondRunSameDayUpdates(t *testing.T) {
	conn := setupConn(t)
	ctx := context.Background()

	morning := newRepoAt(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))
	require.NoError(t, morning.UpsertDaily(ctx, conn, 42, 7, 10))

	evening := newRepoAt(time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, evening.UpsertDaily(ctx, conn, 42, 9, 11))

	// Exactly one row per (pendência, date), holding the latest count
	assert.Equal(t, 1, countRows(t, conn, 42))

	rec, err := evening.GetDaily(ctx, conn, 42, "2026-08-31")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(9), rec.Count)
	assert.Equal(t, int64(11), rec.UserID)
	assert.Equal(t, "20:00:00", rec.Time)
}

func TestUpsertDaily_DifferentDaysKeepSeparateRows(t *testing.T) {
	conn := setupConn(t)
	ctx := context.Background()

	day1 := newRepoAt(time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC))
	require.NoError(t, day1.UpsertDaily(ctx, conn, 42, 7, 10))

	day2 := newRepoAt(time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, day2.UpsertDaily(ctx, conn, 42, 9, 10))

	assert.Equal(t, 2, countRows(t, conn, 42))
}

func TestUpsertDaily_WritesFixedMetadata(t *testing.T) {
	conn := setupConn(t)
	ctx := context.Background()

	repo := newRepoAt(time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, repo.UpsertDaily(ctx, conn, 42, 7, 10))

	var gestora, usoSistema int64
	var responsabilidade string
	err := conn.QueryRowContext(ctx, `
		SELECT idGestora, usoSistema, responsabilidade
		FROM amm_histPendencias WHERE idPendencia = ?
	`, 42).Scan(&gestora, &usoSistema, &responsabilidade)
	require.NoError(t, err)

	assert.Equal(t, int64(GestoraID), gestora)
	assert.Equal(t, int64(SystemUseFlag), usoSistema)
	assert.Equal(t, Responsibility, responsabilidade)
}

func TestUpsertDaily_ZeroCount(t *testing.T) {
	conn := setupConn(t)
	repo := newRepoAt(time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC))

	require.NoError(t, repo.UpsertDaily(context.Background(), conn, 42, 0, 10))

	rec, err := repo.GetDaily(context.Background(), conn, 42, "2026-08-31")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(0), rec.Count)
}

func TestGetDaily_Missing(t *testing.T) {
	conn := setupConn(t)
	repo := NewRepository(zerolog.Nop())

	rec, err := repo.GetDaily(context.Background(), conn, 42, "2026-08-31")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
