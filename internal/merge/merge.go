// Package merge concatenates the chapters listed in a book's table of
// contents into one combined markdown document.
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/inful/mdfp"
	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/markdown"
)

// ErrSummaryRead marks a failure to read the table of contents itself.
var ErrSummaryRead = errors.New("failed to read summary")

// FileSystem is the read-only view of the disk the concatenator needs.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

type osFS struct{}

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

// #nosec G304 -- chapter paths come from the project's own table of contents
func (osFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// Options controls what goes into the combined document.
type Options struct {
	// IncludeRoot prepends the unrewritten table of contents.
	IncludeRoot      bool
	StripFrontmatter bool
	Rewrite          markdown.RewriteOptions
}

// Result is the combined document and what went into it.
type Result struct {
	Content     []byte
	Chapters    []markdown.SummaryEntry
	Skipped     []markdown.SummaryEntry // listed but missing on disk
	Fingerprint string
}

// Concatenator builds combined documents. It only reads; callers persist
// Result.Content.
type Concatenator struct {
	opts   Options
	fsys   FileSystem
	logger *slog.Logger
}

// Option customizes a Concatenator.
type Option func(*Concatenator)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fsys FileSystem) Option {
	return func(c *Concatenator) { c.fsys = fsys }
}

// WithLogger sets the logger used for skipped chapters.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Concatenator) { c.logger = logger }
}

// New returns a Concatenator using opts.
func New(opts Options, options ...Option) *Concatenator {
	c := &Concatenator{opts: opts, fsys: osFS{}, logger: slog.Default()}
	for _, o := range options {
		o(c)
	}
	return c
}

// Concatenate reads the table of contents at summaryPath and appends every
// listed chapter, rewritten relative to its own directory and followed by a
// newline, in table-of-contents order.
//
// A chapter that does not exist is skipped. Any other failure to stat or
// read a chapter aborts with a filesystem error, since a silently partial
// book is worse than no book.
func (c *Concatenator) Concatenate(ctx context.Context, summaryPath string) (*Result, error) {
	summary, err := c.fsys.ReadFile(summaryPath)
	if err != nil {
		return nil, ferrors.WrapError(fmt.Errorf("%w: %w", ErrSummaryRead, err), ferrors.CategoryFileSystem, "cannot read table of contents").
			Fatal().
			WithContext("path", summaryPath).
			Build()
	}

	entries := markdown.ParseSummary(summary, filepath.Dir(summaryPath))

	var buf bytes.Buffer
	if c.opts.IncludeRoot {
		buf.Write(summary)
		buf.WriteByte('\n')
	}

	res := &Result{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, found, err := c.locate(filepath.FromSlash(entry.Path))
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot access chapter").
				Fatal().
				WithContext("path", entry.Path).
				WithContext("chapter", entry.Label).
				Build()
		}
		if !found {
			c.logger.Debug("Skipping missing chapter",
				logfields.Chapter(entry.Label),
				logfields.Path(entry.Path))
			res.Skipped = append(res.Skipped, entry)
			continue
		}

		content, err := c.fsys.ReadFile(path)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read chapter").
				Fatal().
				WithContext("path", path).
				WithContext("chapter", entry.Label).
				Build()
		}
		if c.opts.StripFrontmatter {
			content = markdown.StripFrontmatter(content)
		}

		buf.Write(markdown.RewriteLinks(content, filepath.Dir(path), c.opts.Rewrite))
		buf.WriteByte('\n')
		res.Chapters = append(res.Chapters, entry)
	}

	res.Content = buf.Bytes()
	res.Fingerprint = mdfp.CalculateFingerprintFromParts("", string(res.Content))
	return res, nil
}

// locate finds the chapter on disk. Names that differ from the table of
// contents only in Unicode normalization (NFC vs NFD) are accepted.
// found is false only when no candidate exists.
func (c *Concatenator) locate(path string) (string, bool, error) {
	candidates := []string{path}
	for _, form := range []norm.Form{norm.NFC, norm.NFD} {
		if v := form.String(path); v != path {
			candidates = append(candidates, v)
		}
	}

	for _, p := range candidates {
		_, err := c.fsys.Stat(p)
		if err == nil {
			return p, true, nil
		}
		if !isMissing(err) {
			return "", false, err
		}
	}
	return "", false, nil
}

// isMissing reports whether err means the path does not exist, including a
// path that runs through a regular file.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
