package versioning

import (
	"time"
)

// InitialChangeDescription is recorded on the first version of every document.
const InitialChangeDescription = "initial version"

// Version is an immutable snapshot of a document's state.
// SequenceNumber is unique per document and assigned as max(existing)+1.
type Version struct {
	ID                string    `json:"id" db:"id"`
	DocumentID        string    `json:"document_id" db:"document_id"`
	SequenceNumber    int       `json:"sequence_number" db:"sequence_number"`
	UserLabel         string    `json:"user_label" db:"user_label"`
	Title             string    `json:"title" db:"title"`
	Content           string    `json:"content" db:"content"`
	ChangeDescription *string   `json:"change_description,omitempty" db:"change_description"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Snapshot builds the version that records the document's current state.
func Snapshot(doc *Document, sequenceNumber int, createdAt time.Time) *Version {
	return &Version{
		DocumentID:        doc.ID,
		SequenceNumber:    sequenceNumber,
		UserLabel:         doc.Label,
		Title:             doc.Title,
		Content:           doc.Content,
		ChangeDescription: doc.ChangeDescription,
		CreatedAt:         createdAt,
	}
}

// RestoredFields returns the document fields a revert to this version writes back.
// Only title, content and label are restored; the live change description is
// cleared so it describes the next save rather than this snapshot.
func (v *Version) RestoredFields() DocumentFields {
	return DocumentFields{
		Title:   v.Title,
		Content: v.Content,
		Label:   v.UserLabel,
	}
}
