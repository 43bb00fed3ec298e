package markdown

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// SplitFrontmatter separates a leading `---` delimited YAML block from the
// body. When content has no well-formed block, ok is false and body is
// content itself.
func SplitFrontmatter(content []byte) (fields map[string]any, body []byte, ok bool) {
	nl := "\n"
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false
	}

	rest := content[len(open):]
	closeLine := []byte(nl + "---" + nl)
	closeEOF := []byte(nl + "---")

	var raw []byte
	switch idx := bytes.Index(rest, closeLine); {
	case bytes.HasPrefix(rest, open):
		body = rest[len(open):]
	case idx >= 0:
		raw, body = rest[:idx], rest[idx+len(closeLine):]
	case bytes.HasSuffix(rest, closeEOF):
		raw = rest[:len(rest)-len(closeEOF)]
	default:
		return nil, content, false
	}

	fields = map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, content, false
		}
	}
	return fields, body, true
}

// StripFrontmatter returns content without a leading YAML frontmatter block.
func StripFrontmatter(content []byte) []byte {
	_, body, _ := SplitFrontmatter(content)
	return body
}
