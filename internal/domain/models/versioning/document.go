package versioning

import (
	"time"
)

// Document is the live, mutable record whose history is versioned.
type Document struct {
	ID                string    `json:"id" db:"id"`
	Title             string    `json:"title" db:"title"`
	Content           string    `json:"content" db:"content"`
	Label             string    `json:"label" db:"label"`                                     // User-assigned version label, e.g. "v1.2"
	ChangeDescription *string   `json:"change_description,omitempty" db:"change_description"` // Describes the live state; snapshotted with it
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentFields is the set of tracked fields a save writes onto a document.
type DocumentFields struct {
	Title             string  `json:"title"`
	Content           string  `json:"content"`
	Label             string  `json:"label"`
	ChangeDescription *string `json:"change_description,omitempty"`
}

// Fields returns the document's current tracked fields.
func (d *Document) Fields() DocumentFields {
	return DocumentFields{
		Title:             d.Title,
		Content:           d.Content,
		Label:             d.Label,
		ChangeDescription: d.ChangeDescription,
	}
}

// Apply copies the fields onto the document.
func (d *Document) Apply(f DocumentFields) {
	d.Title = f.Title
	d.Content = f.Content
	d.Label = f.Label
	d.ChangeDescription = f.ChangeDescription
}

// Differs reports whether f would change any tracked field of the document.
func (d *Document) Differs(f DocumentFields) bool {
	return d.Title != f.Title ||
		d.Content != f.Content ||
		d.Label != f.Label ||
		!equalOptional(d.ChangeDescription, f.ChangeDescription)
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
