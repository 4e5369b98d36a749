package versioning

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	models "promptvault/internal/domain/models/versioning"
)

// DefaultMaxDiffLines bounds the combined line count that gets a full diff.
const DefaultMaxDiffLines = 20000

// LineDiffer computes line diffs with diffmatchpatch over line-encoded runes.
type LineDiffer struct {
	maxLines int
	dmp      *diffmatchpatch.DiffMatchPatch
}

// NewLineDiffer creates a differ. maxLines <= 0 selects DefaultMaxDiffLines.
func NewLineDiffer(maxLines int) *LineDiffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxDiffLines
	}

	dmp := diffmatchpatch.New()
	// No deadline: a timeout would make the result depend on machine speed
	dmp.DiffTimeout = 0

	return &LineDiffer{maxLines: maxLines, dmp: dmp}
}

var defaultDiffer = NewLineDiffer(DefaultMaxDiffLines)

// ComputeDiff diffs two texts line by line with the default differ
func ComputeDiff(oldContent, newContent string) []models.DiffLine {
	return defaultDiffer.ComputeDiff(oldContent, newContent)
}

// ComputeDiff returns the edit script turning oldContent into newContent,
// one entry per line. Removed and equal entries concatenate to oldContent;
// added and equal entries concatenate to newContent.
func (d *LineDiffer) ComputeDiff(oldContent, newContent string) []models.DiffLine {
	if oldContent == newContent {
		return emit(nil, models.DiffEqual, oldContent)
	}

	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)
	if len(oldLines)+len(newLines) > d.maxLines {
		return windowedDiff(oldLines, newLines)
	}

	runes1, runes2 := encodeLines(oldLines, newLines)
	diffs := d.dmp.DiffMainRunes(runes1, runes2, false)

	out := make([]models.DiffLine, 0, len(oldLines)+len(newLines))
	oi, ni := 0, 0
	for _, diff := range diffs {
		n := utf8.RuneCountInString(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			for _, l := range oldLines[oi : oi+n] {
				out = append(out, models.DiffLine{Kind: models.DiffEqual, Text: l})
			}
			oi += n
			ni += n
		case diffmatchpatch.DiffDelete:
			for _, l := range oldLines[oi : oi+n] {
				out = append(out, models.DiffLine{Kind: models.DiffRemoved, Text: l})
			}
			oi += n
		case diffmatchpatch.DiffInsert:
			for _, l := range newLines[ni : ni+n] {
				out = append(out, models.DiffLine{Kind: models.DiffAdded, Text: l})
			}
			ni += n
		}
	}
	return out
}

// encodeLines maps every distinct line to one rune so the diff runs over
// lines instead of characters. Surrogate code points are skipped because
// they do not survive a round trip through string.
func encodeLines(oldLines, newLines []string) ([]rune, []rune) {
	index := make(map[string]rune, len(oldLines)+len(newLines))
	next := rune(1)

	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for i, l := range lines {
			r, ok := index[l]
			if !ok {
				if next == 0xD800 {
					next = 0xE000
				}
				r = next
				next++
				index[l] = r
			}
			out[i] = r
		}
		return out
	}

	return encode(oldLines), encode(newLines)
}

// windowedDiff matches the common leading and trailing lines and reports
// everything between them as removed then added.
func windowedDiff(oldLines, newLines []string) []models.DiffLine {
	prefix := 0
	for prefix < len(oldLines) && prefix < len(newLines) && oldLines[prefix] == newLines[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(oldLines)-prefix && suffix < len(newLines)-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[len(newLines)-1-suffix] {
		suffix++
	}

	out := make([]models.DiffLine, 0, len(oldLines)+len(newLines)-prefix-suffix)
	for _, l := range oldLines[:prefix] {
		out = append(out, models.DiffLine{Kind: models.DiffEqual, Text: l})
	}
	for _, l := range oldLines[prefix : len(oldLines)-suffix] {
		out = append(out, models.DiffLine{Kind: models.DiffRemoved, Text: l})
	}
	for _, l := range newLines[prefix : len(newLines)-suffix] {
		out = append(out, models.DiffLine{Kind: models.DiffAdded, Text: l})
	}
	for _, l := range oldLines[len(oldLines)-suffix:] {
		out = append(out, models.DiffLine{Kind: models.DiffEqual, Text: l})
	}
	return out
}

// splitLines splits after every "\n"; a final line without a newline is kept as is.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func emit(out []models.DiffLine, kind models.DiffKind, text string) []models.DiffLine {
	for _, line := range splitLines(text) {
		out = append(out, models.DiffLine{Kind: kind, Text: line})
	}
	return out
}
