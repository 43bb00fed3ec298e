// Package markdown holds the text-level markdown operations used to build a
// combined book document: scanning inline links outside of code, rewriting
// them relative to a chapter's directory, reading the table of contents and
// dropping frontmatter. Edits are applied as byte ranges so content outside
// a rewritten construct is never touched.
package markdown
