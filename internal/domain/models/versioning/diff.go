package versioning

// DiffKind classifies a line in a diff
type DiffKind string

const (
	DiffEqual   DiffKind = "equal"
	DiffAdded   DiffKind = "added"
	DiffRemoved DiffKind = "removed"
)

// DiffLine is one line of a line diff. Text keeps its trailing newline,
// so concatenating texts reconstructs the inputs exactly.
type DiffLine struct {
	Kind DiffKind `json:"kind"`
	Text string   `json:"text"`
}

// DiffStats summarizes a diff
type DiffStats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// CurrentRef names the live document state when comparing versions.
const CurrentRef = "current"

// VersionDiff is the comparison of two states of one document.
type VersionDiff struct {
	DocumentID string     `json:"document_id"`
	From       string     `json:"from"` // Version ID or CurrentRef
	To         string     `json:"to"`
	Lines      []DiffLine `json:"lines"`
	Stats      DiffStats  `json:"stats"`
}

// Stats counts lines by kind
func Stats(lines []DiffLine) DiffStats {
	var s DiffStats
	for _, l := range lines {
		switch l.Kind {
		case DiffAdded:
			s.Added++
		case DiffRemoved:
			s.Removed++
		default:
			s.Unchanged++
		}
	}
	return s
}
