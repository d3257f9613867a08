package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/textset/internal/db"
	"github.com/kailas-cloud/textset/internal/domain"
	"github.com/kailas-cloud/textset/internal/domain/textset"
)

// FindOwned returns the text set if it exists and belongs to ownerID.
// Absent and foreign sets both yield domain.ErrNotFound.
func (s *Store) FindOwned(ctx context.Context, textSetID, ownerID uuid.UUID) (textset.TextSet, error) {
	var title, description string
	err := s.db.QueryRowContext(ctx,
		"SELECT title, description FROM text_sets WHERE id = ? AND owner_id = ?",
		textSetID.String(), ownerID.String(),
	).Scan(&title, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return textset.TextSet{}, fmt.Errorf("text set %s: %w", textSetID, domain.ErrNotFound)
	}
	if err != nil {
		return textset.TextSet{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return textset.Reconstruct(textSetID, title, description, ownerID), nil
}
