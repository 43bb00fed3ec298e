package markdown

import (
	"errors"
	"fmt"
	"slices"
)

// Edit replaces source[Start:End] with Replacement. Offsets always refer to
// the original source, End exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ErrOverlappingEdits is returned when two edits touch the same bytes.
var ErrOverlappingEdits = errors.New("invalid edits: overlapping ranges")

// ApplyEdits applies non-overlapping edits and returns the new content.
// Bytes outside every edit range are copied unchanged.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b Edit) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	size := len(source)
	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < 0:
			return nil, fmt.Errorf("invalid edit[%d]: negative range", i)
		case e.End < e.Start:
			return nil, fmt.Errorf("invalid edit[%d]: end before start", i)
		case e.End > len(source):
			return nil, fmt.Errorf("invalid edit[%d]: range out of bounds", i)
		case i > 0 && e.Start < sorted[i-1].End:
			return nil, ErrOverlappingEdits
		}
		size += len(e.Replacement) - (e.End - e.Start)
	}

	out := make([]byte, 0, size)
	pos := 0
	for _, e := range sorted {
		out = append(out, source[pos:e.Start]...)
		out = append(out, e.Replacement...)
		pos = e.End
	}
	return append(out, source[pos:]...), nil
}
