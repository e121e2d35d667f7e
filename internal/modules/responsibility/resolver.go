package responsibility

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// User is a user assigned to a pendência
type User struct {
	ID   int64  `json:"id_usuario"`
	Name string `json:"nome_usuario"`
}

// DefaultUserName is the placeholder attributed when a pendência has no
// responsible users.
const DefaultUserName = "Sistema"

// Resolver looks up the users responsible for a pendência and picks the
// primary owner used for history attribution.
type Resolver struct {
	defaultUserID int64
	log           zerolog.Logger
}

// NewResolver creates a new responsibility resolver
func NewResolver(defaultUserID int64, log zerolog.Logger) *Resolver {
	return &Resolver{
		defaultUserID: defaultUserID,
		log:           log.With().Str("service", "responsibility").Logger(),
	}
}

// ListAssignees returns all users assigned to a pendência, ordered by user
// id. The legacy system relied on the join's undefined order here; the
// explicit ORDER BY makes the primary-owner pick deterministic.
func (r *Resolver) ListAssignees(ctx context.Context, conn *sql.Conn, pendenciaID int64) ([]User, error) {
	query := `
		SELECT uxp.idUsu, u.nome
		FROM amm_usuarios_x_pendencias uxp
		JOIN amm_usuarios u ON u.id = uxp.idUsu
		WHERE uxp.idPendencia = ?
		ORDER BY uxp.idUsu
	`

	rows, err := conn.QueryContext(ctx, query, pendenciaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees for pendência %d: %w", pendenciaID, err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignees: %w", err)
	}

	r.log.Debug().Int64("pendencia_id", pendenciaID).Int("count", len(users)).Msg("Assignees loaded")

	return users, nil
}

// Resolve picks the primary owner for a pendência: the first assignee in id
// order, or the configured default user when nobody is assigned. Extra
// assignees are logged and otherwise ignored. A lookup failure falls back to
// the default user so history attribution never blocks the batch.
func (r *Resolver) Resolve(ctx context.Context, conn *sql.Conn, pendenciaID int64) User {
	users, err := r.ListAssignees(ctx, conn, pendenciaID)
	if err != nil {
		r.log.Error().Err(err).Int64("pendencia_id", pendenciaID).Msg("Assignee lookup failed, using default user")
		return User{ID: r.defaultUserID, Name: DefaultUserName}
	}

	if len(users) == 0 {
		r.log.Warn().
			Int64("pendencia_id", pendenciaID).
			Int64("user_id", r.defaultUserID).
			Msg("No responsible users found, using default user")
		return User{ID: r.defaultUserID, Name: DefaultUserName}
	}

	primary := users[0]
	if len(users) > 1 {
		others := make([]string, 0, len(users)-1)
		for _, u := range users[1:] {
			others = append(others, fmt.Sprintf("%s (ID: %d)", u.Name, u.ID))
		}
		r.log.Info().
			Int64("pendencia_id", pendenciaID).
			Int("total", len(users)).
			Str("primary", primary.Name).
			Str("others", strings.Join(others, ", ")).
			Msg("Multiple responsible users, using first")
	}

	return primary
}
