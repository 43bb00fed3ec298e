package markdown

import "net/url"

// SummaryEntry is one chapter listed in the table of contents.
type SummaryEntry struct {
	Label       string
	Destination string // as written in the summary
	Path        string // absolute, forward slashes, fragment and query removed
}

// ParseSummary extracts the chapter list of a table of contents stored in
// dir: every link to a local markdown file, top to bottom. A chapter linked
// more than once keeps its first position only.
func ParseSummary(content []byte, dir string) []SummaryEntry {
	var entries []SummaryEntry
	seen := make(map[string]struct{})
	for _, l := range ScanLinks(content) {
		if l.Kind != LinkKindInline || classifyTarget(l.Destination) != targetPath {
			continue
		}
		p, _ := splitSuffix(l.Destination)
		if !IsMarkdownPath(p) {
			continue
		}
		if unescaped, err := url.PathUnescape(p); err == nil {
			p = unescaped
		}
		abs := ResolvePath(dir, p)
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		entries = append(entries, SummaryEntry{Label: l.Label, Destination: l.Destination, Path: abs})
	}
	return entries
}
