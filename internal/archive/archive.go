// Package archive packages the committed code samples of a book into zip
// files placed next to the generated site.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/toolexec"
)

// ErrSourceNotFound indicates the sample directory does not exist at the ref.
var ErrSourceNotFound = errors.New("archive source not found")

// Options configures one archiving run.
type Options struct {
	Engine       config.ArchiveEngine
	ProjectRoot  string // any directory inside the repository
	Source       string // sample directory, relative to ProjectRoot
	Ref          string
	OutputDir    string
	PerDirectory bool
	Name         string // base name of the single archive when !PerDirectory
}

// Archive describes one written zip file.
type Archive struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Files int    `json:"files"`
}

// Archiver writes code-sample archives.
type Archiver struct {
	runner toolexec.Runner
	opts   Options
	logger *slog.Logger
}

// NewArchiver returns an Archiver. runner is only used by the command engine.
func NewArchiver(runner toolexec.Runner, opts Options, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{runner: runner, opts: opts, logger: logger}
}

// target is one tree to archive.
type target struct {
	name     string // zip base name
	treePath string // slash path from the repository root
	tree     *object.Tree
}

// Run writes one zip per sample directory, or a single zip of the whole
// source tree, reading content as committed at the configured ref.
func (a *Archiver) Run(ctx context.Context) ([]Archive, error) {
	repo, err := git.PlainOpenWithOptions(a.opts.ProjectRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "cannot open repository").
			Fatal().
			WithContext("path", a.opts.ProjectRoot).
			Build()
	}

	sourcePath, err := a.treePath(repo)
	if err != nil {
		return nil, err
	}

	commit, err := resolveCommit(repo, a.opts.Ref)
	if err != nil {
		return nil, err
	}
	root, err := commit.Tree()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "cannot read commit tree").Fatal().Build()
	}
	source, err := root.Tree(sourcePath)
	if err != nil {
		return nil, ferrors.WrapError(fmt.Errorf("%w: %s at %s: %w", ErrSourceNotFound, sourcePath, a.opts.Ref, err),
			ferrors.CategoryBuild, "code sample directory not found").
			Fatal().
			WithContext("path", sourcePath).
			Build()
	}

	targets := a.targets(source, sourcePath)
	written := make([]Archive, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		out := filepath.Join(a.opts.OutputDir, t.name+".zip")

		var files int
		switch a.opts.Engine {
		case config.ArchiveEngineCommand:
			files, err = a.runGitArchive(ctx, t, out)
		default:
			files, err = writeTreeZip(ctx, t.tree, out, commit.Committer.When)
		}
		if err != nil {
			return written, err
		}
		a.logger.Info("Wrote code archive", logfields.Name(t.name), logfields.Path(out), logfields.Count(files))
		written = append(written, Archive{Name: t.name, Path: out, Files: files})
	}
	return written, nil
}

func (a *Archiver) targets(source *object.Tree, sourcePath string) []target {
	if !a.opts.PerDirectory {
		return []target{{name: a.opts.Name, treePath: sourcePath, tree: source}}
	}
	var out []target
	for _, entry := range source.Entries {
		if entry.Mode != filemode.Dir {
			continue
		}
		sub, err := source.Tree(entry.Name)
		if err != nil {
			a.logger.Warn("Skipping unreadable sample directory", logfields.Name(entry.Name), logfields.Error(err))
			continue
		}
		out = append(out, target{name: entry.Name, treePath: path.Join(sourcePath, entry.Name), tree: sub})
	}
	return out
}

// treePath maps the configured source onto a slash path from the repository root.
func (a *Archiver) treePath(repo *git.Repository) (string, error) {
	rel := "."
	if wt, err := repo.Worktree(); err == nil {
		r, err := filepath.Rel(wt.Filesystem.Root(), a.opts.ProjectRoot)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryGit, "project root outside repository").
				Fatal().
				WithContext("path", a.opts.ProjectRoot).
				Build()
		}
		rel = r
	}
	return path.Clean(path.Join(filepath.ToSlash(rel), filepath.ToSlash(a.opts.Source))), nil
}

func resolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "cannot resolve archive ref").
			Fatal().
			WithContext("ref", ref).
			Build()
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "cannot load commit").
			Fatal().
			WithContext("ref", ref).
			Build()
	}
	return commit, nil
}

// runGitArchive shells out to `git archive` for t.
func (a *Archiver) runGitArchive(ctx context.Context, t target, out string) (int, error) {
	cmd := toolexec.Command{
		Name: "git",
		Args: []string{"archive", "--format=zip", a.opts.Ref + ":" + t.treePath, "-o", out},
		Dir:  a.opts.ProjectRoot,
	}
	if err := a.runner.Run(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		return 0, ferrors.WrapError(err, ferrors.CategoryTool, "git archive failed").
			Fatal().
			WithContext("command", cmd.String()).
			Build()
	}
	return countFiles(t.tree), nil
}

func countFiles(tree *object.Tree) int {
	n := 0
	_ = tree.Files().ForEach(func(*object.File) error {
		n++
		return nil
	})
	return n
}
