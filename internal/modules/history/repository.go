package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Fixed metadata written on every history row, carried over from the legacy
// agenda schema.
const (
	GestoraID      = 919
	SystemUseFlag  = 1
	Responsibility = ""
)

// Record is one per-day snapshot of a pendência's count, attributed to a
// responsible user.
type Record struct {
	PendenciaID int64  `json:"id_pendencia"`
	Date        string `json:"data"` // YYYY-MM-DD
	Time        string `json:"hora"` // HH:MM:SS
	UserID      int64  `json:"id_usuario"`
	Count       int64  `json:"qtd"`
}

// Repository writes daily pendência history records
type Repository struct {
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a new history repository
func NewRepository(log zerolog.Logger) *Repository {
	return &Repository{
		log: log.With().Str("repo", "history").Logger(),
		now: time.Now,
	}
}

// UpsertDaily records today's count for a pendência, attributed to userID.
// At most one row exists per (pendência, date): a second run on the same day
// updates the existing row. Runs on the caller's connection so the write
// shares the batch's session.
func (r *Repository) UpsertDaily(ctx context.Context, conn *sql.Conn, pendenciaID, count, userID int64) error {
	now := r.now()
	date := now.Format("2006-01-02")
	timeOfDay := now.Format("15:04:05")

	var existing int
	checkQuery := `
		SELECT COUNT(*) FROM amm_histPendencias
		WHERE idPendencia = ? AND data = ?
	`
	if err := conn.QueryRowContext(ctx, checkQuery, pendenciaID, date).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check history for pendência %d: %w", pendenciaID, err)
	}

	if existing > 0 {
		updateQuery := `
			UPDATE amm_histPendencias
			SET hora = ?, idUsuario = ?, qtd = ?, idGestora = ?, usoSistema = ?, responsabilidade = ?
			WHERE idPendencia = ? AND data = ?
		`
		if _, err := conn.ExecContext(ctx, updateQuery,
			timeOfDay, userID, count, GestoraID, SystemUseFlag, Responsibility,
			pendenciaID, date,
		); err != nil {
			return fmt.Errorf("failed to update history for pendência %d: %w", pendenciaID, err)
		}

		r.log.Debug().
			Int64("pendencia_id", pendenciaID).
			Int64("count", count).
			Int64("user_id", userID).
			Msg("History updated")

		return nil
	}

	insertQuery := `
		INSERT INTO amm_histPendencias
		(idPendencia, data, hora, idUsuario, qtd, idGestora, usoSistema, responsabilidade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := conn.ExecContext(ctx, insertQuery,
		pendenciaID, date, timeOfDay, userID, count, GestoraID, SystemUseFlag, Responsibility,
	); err != nil {
		return fmt.Errorf("failed to insert history for pendência %d: %w", pendenciaID, err)
	}

	r.log.Debug().
		Int64("pendencia_id", pendenciaID).
		Int64("count", count).
		Int64("user_id", userID).
		Msg("History inserted")

	return nil
}

// GetDaily returns the history record for a pendência on a given date, or
// nil when none exists.
func (r *Repository) GetDaily(ctx context.Context, conn *sql.Conn, pendenciaID int64, date string) (*Record, error) {
	query := `
		SELECT idPendencia, data, hora, idUsuario, qtd
		FROM amm_histPendencias
		WHERE idPendencia = ? AND data = ?
	`

	var rec Record
	err := conn.QueryRowContext(ctx, query, pendenciaID, date).
		Scan(&rec.PendenciaID, &rec.Date, &rec.Time, &rec.UserID, &rec.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history for pendência %d: %w", pendenciaID, err)
	}

	return &rec, nil
}
