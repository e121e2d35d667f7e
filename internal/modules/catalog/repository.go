package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository reads the stored pendência definitions
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new catalog repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "catalog").Logger(),
	}
}

// List returns every pendência definition, ordered by id. Downstream
// numbering and progress messages depend on this order being stable.
func (r *Repository) List(ctx context.Context) ([]PendingQuery, error) {
	query := `
		SELECT id, id_pendencia, consulta_pendencia, id_grupo,
		       nome_pendencia, dt_criacao, dt_modificacao, exibe_contagem
		FROM amm_consulta_pendencias
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pendências: %w", err)
	}
	defer rows.Close()

	var queries []PendingQuery
	for rows.Next() {
		pq, err := scanPendingQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pendência: %w", err)
		}
		queries = append(queries, pq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pendências: %w", err)
	}

	r.log.Debug().Int("count", len(queries)).Msg("Pendências loaded")

	return queries, nil
}

// scanPendingQuery maps one row onto a PendingQuery, with explicit handling
// for the nullable columns.
func scanPendingQuery(rows *sql.Rows) (PendingQuery, error) {
	var pq PendingQuery
	var groupID, displayMode sql.NullInt64
	var name, createdAt, modifiedAt sql.NullString

	err := rows.Scan(
		&pq.ID,
		&pq.PendenciaID,
		&pq.SQL,
		&groupID,
		&name,
		&createdAt,
		&modifiedAt,
		&displayMode,
	)
	if err != nil {
		return PendingQuery{}, err
	}

	if groupID.Valid {
		pq.GroupID = &groupID.Int64
	}
	if name.Valid {
		pq.Name = &name.String
	}
	if createdAt.Valid {
		pq.CreatedAt = &createdAt.String
	}
	if modifiedAt.Valid {
		pq.ModifiedAt = &modifiedAt.String
	}
	if displayMode.Valid {
		pq.DisplayMode = &displayMode.Int64
	}

	return pq, nil
}
