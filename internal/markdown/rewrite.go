package markdown

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// RewriteOptions selects between the observed output variants.
type RewriteOptions struct {
	// PlainInternalLabels renders a stripped chapter link as the bare label
	// instead of *label*. Deprecated output variant.
	PlainInternalLabels bool
	// PlainExternalLinks renders web links as label(url) without emphasis.
	PlainExternalLinks bool
}

type targetClass int

const (
	targetPath     targetClass = iota // relative or absolute file path
	targetExternal                    // http:// or https:// URL
	targetOther                       // other scheme, protocol-relative, or #anchor
)

var uriScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]+:`)

func classifyTarget(target string) targetClass {
	lower := strings.ToLower(target)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return targetExternal
	case strings.HasPrefix(target, "#"), strings.HasPrefix(target, "//"), uriScheme.MatchString(target):
		return targetOther
	default:
		return targetPath
	}
}

// splitSuffix separates a trailing #fragment or ?query from a path target.
func splitSuffix(target string) (p, suffix string) {
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		return target[:i], target[i:]
	}
	return target, ""
}

// ResolvePath resolves a link target against dir using forward slashes.
// Absolute targets are only cleaned, so resolving a result again is a no-op.
func ResolvePath(dir, target string) string {
	p := filepath.FromSlash(target)
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// IsMarkdownPath reports whether p names a markdown file.
func IsMarkdownPath(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}

// RewriteLinks rewrites the links of a chapter stored in dir so the text
// stays meaningful once it is concatenated with other chapters:
//
//   - web links become non-navigable text keeping label and URL,
//   - links to other markdown files collapse to their label,
//   - links to any other file point at its absolute path.
//
// Anything that is not a recognized link construct is copied unchanged.
func RewriteLinks(content []byte, dir string, opts RewriteOptions) []byte {
	links := ScanLinks(content)
	if len(links) == 0 {
		return content
	}

	edits := make([]Edit, 0, len(links))
	for _, l := range links {
		repl, ok := rewriteLink(l, dir, opts)
		if !ok {
			continue
		}
		edits = append(edits, Edit{Start: l.Start, End: l.End, Replacement: []byte(repl)})
	}

	out, err := ApplyEdits(content, edits)
	if err != nil {
		// ScanLinks yields ordered, disjoint ranges; leave the chapter as is otherwise.
		return content
	}
	return out
}

func rewriteLink(l Link, dir string, opts RewriteOptions) (string, bool) {
	switch classifyTarget(l.Destination) {
	case targetExternal:
		if l.Kind == LinkKindImage || strings.TrimSpace(l.Label) == "" {
			return "", false
		}
		label := rewriteLabel(l.Label, dir, opts)
		if opts.PlainExternalLinks {
			return label + "(" + l.Destination + ")", true
		}
		return emphasize(label + "(" + l.Destination + ")"), true

	case targetPath:
		p, suffix := splitSuffix(l.Destination)
		if p == "" {
			return "", false
		}
		abs := ResolvePath(dir, p)
		label := rewriteLabel(l.Label, dir, opts)

		if l.Kind == LinkKindInline && IsMarkdownPath(abs) {
			if opts.PlainInternalLabels {
				return label, true
			}
			return emphasize(label), true
		}

		dest := abs + suffix
		if l.Angle || strings.ContainsAny(dest, " \t") {
			dest = "<" + dest + ">"
		}
		var b strings.Builder
		if l.Kind == LinkKindImage {
			b.WriteByte('!')
		}
		b.WriteString("[")
		b.WriteString(label)
		b.WriteString("](")
		b.WriteString(dest)
		if l.Title != "" {
			b.WriteByte(' ')
			b.WriteString(l.Title)
		}
		b.WriteByte(')')
		return b.String(), true

	default:
		return "", false
	}
}

// rewriteLabel handles constructs nested in a label, such as an image
// used as link text.
func rewriteLabel(label, dir string, opts RewriteOptions) string {
	if !strings.Contains(label, "](") {
		return label
	}
	return string(RewriteLinks([]byte(label), dir, opts))
}

// emphasize wraps s in *...* keeping surrounding whitespace outside the
// markers so the emphasis still parses.
func emphasize(s string) string {
	inner := strings.TrimSpace(s)
	if inner == "" {
		return s
	}
	start := strings.Index(s, inner)
	return s[:start] + "*" + inner + "*" + s[start+len(inner):]
}
