// Package textset defines the TextSet collection as seen by the ingestion core.
// Text sets are created and edited elsewhere; ingestion only verifies ownership.
package textset

import "github.com/google/uuid"

// TextSet is a named, owned grouping of ingested items.
type TextSet struct {
	id          uuid.UUID
	title       string
	description string
	ownerID     uuid.UUID
}

// Reconstruct hydrates a TextSet from storage.
func Reconstruct(id uuid.UUID, title, description string, ownerID uuid.UUID) TextSet {
	return TextSet{id: id, title: title, description: description, ownerID: ownerID}
}

// ID returns the text set identifier.
func (t TextSet) ID() uuid.UUID { return t.id }

// Title returns the unique title.
func (t TextSet) Title() string { return t.title }

// Description returns the free-form description.
func (t TextSet) Description() string { return t.description }

// OwnerID returns the owning user.
func (t TextSet) OwnerID() uuid.UUID { return t.ownerID }

// OwnedBy reports whether user owns the text set.
func (t TextSet) OwnedBy(user uuid.UUID) bool { return t.ownerID == user }
