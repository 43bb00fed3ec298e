package markdown

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// LinkKind distinguishes links from images.
type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
)

// Link is one inline `[label](target)` or `![alt](target)` construct.
type Link struct {
	Kind        LinkKind
	Label       string
	Destination string // without angle brackets and title
	Title       string // raw title including its delimiters
	Angle       bool   // destination was written as <...>
	Start       int    // offset of '[' or '!'
	End         int    // offset just past ')'
}

// ScanLinks returns the inline link and image constructs of content in
// document order. Code blocks, code spans and raw HTML blocks are skipped.
//
// Matching is permissive where CommonMark is strict: destinations may hold
// unescaped spaces, as long as the whole construct stays on one line.
func ScanLinks(content []byte) []Link {
	skip := codeRanges(content)

	var links []Link
	for i := 0; i < len(content); i++ {
		if end := skip.containing(i); end >= 0 {
			i = end - 1
			continue
		}
		switch content[i] {
		case '\\':
			i++
		case '[':
			l, ok := parseLinkAt(content, i, skip)
			if !ok {
				continue
			}
			links = append(links, l)
			i = l.End - 1
		}
	}
	return links
}

type span struct{ start, end int }

// spans is sorted by start and non-overlapping.
type spans []span

// containing returns the end of the span holding pos, or -1.
func (s spans) containing(pos int) int {
	i := sort.Search(len(s), func(i int) bool { return s[i].end > pos })
	if i < len(s) && s[i].start <= pos {
		return s[i].end
	}
	return -1
}

// codeRanges collects the byte ranges goldmark treats as literal text.
func codeRanges(content []byte) spans {
	root := goldmark.New().Parser().Parse(text.NewReader(content))

	var out spans
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch n.Kind() {
		case gmast.KindFencedCodeBlock, gmast.KindCodeBlock, gmast.KindHTMLBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				out = append(out, span{seg.Start, seg.Stop})
			}
			return gmast.WalkSkipChildren, nil
		case gmast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*gmast.Text); ok {
					out = append(out, span{t.Segment.Start, t.Segment.Stop})
				}
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	slices.SortFunc(out, func(a, b span) int { return a.start - b.start })
	return out
}

func parseLinkAt(content []byte, open int, skip spans) (Link, bool) {
	closeBracket := matchBracket(content, open, skip)
	if closeBracket < 0 || closeBracket+1 >= len(content) || content[closeBracket+1] != '(' {
		return Link{}, false
	}
	destStart := closeBracket + 2
	closeParen := matchParen(content, destStart)
	if closeParen < 0 {
		return Link{}, false
	}
	dest, title, angle, ok := splitDestination(string(content[destStart:closeParen]))
	if !ok {
		return Link{}, false
	}

	l := Link{
		Kind:        LinkKindInline,
		Label:       string(content[open+1 : closeBracket]),
		Destination: dest,
		Title:       title,
		Angle:       angle,
		Start:       open,
		End:         closeParen + 1,
	}
	if open > 0 && content[open-1] == '!' && (open < 2 || content[open-2] != '\\') {
		l.Kind = LinkKindImage
		l.Start = open - 1
	}
	return l, true
}

// matchBracket finds the ']' closing the '[' at open on the same line.
func matchBracket(content []byte, open int, skip spans) int {
	depth := 0
	for j := open; j < len(content); {
		if end := skip.containing(j); end >= 0 && j > open {
			j = end
			continue
		}
		switch content[j] {
		case '\n':
			return -1
		case '\\':
			j += 2
			continue
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j
			}
		}
		j++
	}
	return -1
}

// matchParen finds the ')' closing a destination that starts at start.
func matchParen(content []byte, start int) int {
	j := start
	if j < len(content) && content[j] == '<' {
		gt := strings.IndexAny(string(content[j:]), ">\n")
		if gt < 0 || content[j+gt] != '>' {
			return -1
		}
		j += gt + 1
	}
	depth := 1
	for ; j < len(content); j++ {
		switch content[j] {
		case '\n':
			return -1
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

var titleSuffix = regexp.MustCompile(`^(\S.*?)\s+("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|\((?:[^()\\]|\\.)*\))$`)

func splitDestination(inner string) (dest, title string, angle, ok bool) {
	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		return "", "", false, false
	}
	if strings.HasPrefix(trimmed, "<") {
		gt := strings.IndexByte(trimmed, '>')
		if gt < 0 {
			return "", "", false, false
		}
		dest = trimmed[1:gt]
		title = strings.TrimSpace(trimmed[gt+1:])
		return dest, title, true, dest != ""
	}
	if m := titleSuffix.FindStringSubmatch(trimmed); m != nil {
		return m[1], m[2], false, true
	}
	return trimmed, "", false, true
}
