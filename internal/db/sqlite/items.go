package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/textset/internal/db"
	"github.com/kailas-cloud/textset/internal/domain"
	"github.com/kailas-cloud/textset/internal/domain/item"
)

const insertItemSQL = `
	INSERT INTO text_items (
		text_item_id, text_set_id, creator_id, creator_name, text_content,
		post_date, external_item_id, parent_external_item_id, embeddings
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// postDateLayout keeps stored dates lexically sortable.
const postDateLayout = "2006-01-02T15:04:05.000000000Z"

// WriteAll inserts items in one transaction and returns how many were written.
// Either every item is committed or none is: any failure, including context
// cancellation, rolls the transaction back and returns an error wrapping
// domain.ErrWrite. A failed insert is reported as *domain.WriteError.
func (s *Store) WriteAll(ctx context.Context, items []item.Item) (n int, err error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrWrite, &db.Error{Op: db.OpBegin, Err: err})
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreDone(tx.Rollback()))
			n = 0
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertItemSQL)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrWrite, &db.Error{Op: db.OpPrepare, Err: err})
	}
	defer stmt.Close()

	for i := range items {
		it := &items[i]
		if _, err = stmt.ExecContext(ctx,
			it.ID().String(),
			it.TextSetID().String(),
			it.CreatorID(),
			it.CreatorName(),
			it.Text(),
			it.PostDate().UTC().Format(postDateLayout),
			it.ExternalItemID(),
			it.ParentExternalItemID(),
			domain.VectorToBytes(it.Embedding()),
		); err != nil {
			return 0, &domain.WriteError{
				Line:      it.Line(),
				Segment:   it.Segment(),
				CreatorID: it.CreatorID(),
				Err:       &db.Error{Op: db.OpInsert, Err: err},
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrWrite, &db.Error{Op: db.OpCommit, Err: err})
	}
	return len(items), nil
}

// CountItems returns the number of items stored for a text set.
func (s *Store) CountItems(ctx context.Context, textSetID uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM text_items WHERE text_set_id = ?", textSetID.String(),
	).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return n, nil
}

// ListItems returns the items of a text set in insertion order.
func (s *Store) ListItems(ctx context.Context, textSetID uuid.UUID) ([]item.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text_item_id, creator_id, creator_name, text_content, post_date,
		       external_item_id, parent_external_item_id, embeddings
		FROM text_items WHERE text_set_id = ? ORDER BY rowid`, textSetID.String())
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	var out []item.Item
	for rows.Next() {
		it, err := scanItem(rows, textSetID)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return out, nil
}

func scanItem(rows *sql.Rows, textSetID uuid.UUID) (item.Item, error) {
	var (
		id, postDate string
		p            = item.Params{TextSetID: textSetID}
		blob         []byte
	)
	if err := rows.Scan(&id, &p.CreatorID, &p.CreatorName, &p.Text, &postDate,
		&p.ExternalItemID, &p.ParentExternalItemID, &blob); err != nil {
		return item.Item{}, &db.Error{Op: db.OpSelect, Err: err}
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return item.Item{}, fmt.Errorf("parse item id %q: %w", id, err)
	}
	if p.PostDate, err = time.Parse(time.RFC3339Nano, postDate); err != nil {
		return item.Item{}, fmt.Errorf("parse post date %q: %w", postDate, err)
	}
	if p.Embedding, err = domain.BytesToVector(blob); err != nil {
		return item.Item{}, fmt.Errorf("decode embedding of %s: %w", id, err)
	}
	return item.Reconstruct(itemID, p), nil
}
