package catalog

import "fmt"

// PendingQuery is one stored pendência definition: a named SQL query whose
// single output value is a count (or monetary amount) of outstanding work.
type PendingQuery struct {
	ID          int64   `json:"id"`
	PendenciaID int64   `json:"id_pendencia"` // Business key, used for history attribution
	SQL         string  `json:"consulta_pendencia"`
	GroupID     *int64  `json:"id_grupo,omitempty"`
	Name        *string `json:"nome_pendencia,omitempty"`
	CreatedAt   *string `json:"dt_criacao,omitempty"`
	ModifiedAt  *string `json:"dt_modificacao,omitempty"`
	DisplayMode *int64  `json:"exibe_contagem,omitempty"`
}

// DisplayModeMonetary marks a pendência whose count is a currency amount.
const DisplayModeMonetary = 2

// DisplayName returns the pendência name, or a generated fallback when the
// stored definition has none.
func (p PendingQuery) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return fmt.Sprintf("Pendência %d", p.PendenciaID)
}
