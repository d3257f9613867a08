// Package item defines the persisted text item: one embedded window of one spreadsheet row.
package item

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Params carries everything needed to build an Item.
type Params struct {
	TextSetID            uuid.UUID
	CreatorID            string
	CreatorName          string
	Text                 string
	PostDate             time.Time
	ExternalItemID       string
	ParentExternalItemID string
	Embedding            []float32

	// Line and Segment locate the item in the upload for diagnostics; not persisted.
	Line    int
	Segment int
}

// Item is the text item aggregate (immutable value object).
type Item struct {
	id                   uuid.UUID
	textSetID            uuid.UUID
	creatorID            string
	creatorName          string
	text                 string
	postDate             time.Time
	externalItemID       string
	parentExternalItemID string
	embedding            []float32
	line                 int
	segment              int
}

// New validates params and creates an Item with a freshly generated identifier.
func New(p Params) (Item, error) {
	if p.TextSetID == uuid.Nil {
		return Item{}, fmt.Errorf("text set ID is required")
	}
	if p.Text == "" {
		return Item{}, fmt.Errorf("text is required")
	}
	if len(p.Embedding) == 0 {
		return Item{}, fmt.Errorf("embedding is required")
	}
	if p.PostDate.IsZero() {
		return Item{}, fmt.Errorf("post date is required")
	}

	emb := make([]float32, len(p.Embedding))
	copy(emb, p.Embedding)

	return Item{
		id:                   uuid.New(),
		textSetID:            p.TextSetID,
		creatorID:            p.CreatorID,
		creatorName:          p.CreatorName,
		text:                 p.Text,
		postDate:             p.PostDate.UTC(),
		externalItemID:       p.ExternalItemID,
		parentExternalItemID: p.ParentExternalItemID,
		embedding:            emb,
		line:                 p.Line,
		segment:              p.Segment,
	}, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(id uuid.UUID, p Params) Item {
	return Item{
		id:                   id,
		textSetID:            p.TextSetID,
		creatorID:            p.CreatorID,
		creatorName:          p.CreatorName,
		text:                 p.Text,
		postDate:             p.PostDate,
		externalItemID:       p.ExternalItemID,
		parentExternalItemID: p.ParentExternalItemID,
		embedding:            p.Embedding,
		line:                 p.Line,
		segment:              p.Segment,
	}
}

// ID returns the generated item identifier.
func (i *Item) ID() uuid.UUID { return i.id }

// TextSetID returns the owning text set.
func (i *Item) TextSetID() uuid.UUID { return i.textSetID }

// CreatorID returns the creator identifier from the source row.
func (i *Item) CreatorID() string { return i.creatorID }

// CreatorName returns the creator display name from the source row.
func (i *Item) CreatorName() string { return i.creatorName }

// Text returns the window text.
func (i *Item) Text() string { return i.text }

// PostDate returns the normalized (UTC) post date.
func (i *Item) PostDate() time.Time { return i.postDate }

// ExternalItemID returns the caller's identifier for the source row.
func (i *Item) ExternalItemID() string { return i.externalItemID }

// ParentExternalItemID returns the caller's identifier for the parent of the source row.
func (i *Item) ParentExternalItemID() string { return i.parentExternalItemID }

// Embedding returns the embedding vector.
func (i *Item) Embedding() []float32 { return i.embedding }

// Line returns the 1-based spreadsheet line the item came from.
func (i *Item) Line() int { return i.line }

// Segment returns the window index within the row.
func (i *Item) Segment() int { return i.segment }
