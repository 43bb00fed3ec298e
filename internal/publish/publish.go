// Package publish writes the custom-domain marker and pushes the generated
// site to its hosting branch.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/bookbuilder/internal/auth"
	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/workspace"
)

const remoteName = "origin"

// Options configures a publish.
type Options struct {
	ProjectRoot string // repository whose origin is the default remote
	OutputDir   string
	Remote      string // URL, path or remote name of the project repository
	Branch      string
	Message     string
	Author      config.AuthorConfig
	Auth        *config.AuthConfig
	// WorkspaceDir is the parent of the staging checkout, os.TempDir when empty.
	WorkspaceDir string
}

// Result describes a successful push.
type Result struct {
	Remote string `json:"remote"`
	Branch string `json:"branch"`
	Commit string `json:"commit"`
	Files  int    `json:"files"`
}

// Publisher pushes the output directory as the single commit of a branch.
type Publisher struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher returns a Publisher.
func NewPublisher(opts Options, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{opts: opts, logger: logger, now: time.Now}
}

// Publish copies the output directory into a fresh repository, commits it as
// the tip of the branch and force-pushes it. Every failure is returned as a
// warning-severity classified error; nothing is retried or rolled back.
func (p *Publisher) Publish(ctx context.Context) (*Result, error) {
	url, err := p.remoteURL()
	if err != nil {
		return nil, err
	}
	method, err := auth.Method(p.opts.Auth)
	if err != nil {
		return nil, classify(err, "auth", url)
	}

	ws := workspace.NewManager(p.opts.WorkspaceDir, "publish", p.logger)
	if err := ws.Create(); err != nil {
		return nil, classify(err, "workspace", url)
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			p.logger.Warn("Failed to clean publish workspace", logfields.Error(err))
		}
	}()

	files, err := workspace.CopyTree(p.opts.OutputDir, ws.Path(), ".git")
	if err != nil {
		return nil, classify(err, "copy", url)
	}

	branch := plumbing.NewBranchReferenceName(p.opts.Branch)
	repo, err := git.PlainInitWithOptions(ws.Path(), &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: branch},
	})
	if err != nil {
		return nil, classify(err, "init", url)
	}
	hash, err := p.commit(repo)
	if err != nil {
		return nil, classify(err, "commit", url)
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{url}}); err != nil {
		return nil, classify(err, "remote", url)
	}
	refspec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", branch, branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{refspec},
		Auth:       method,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify(err, "push", url)
	}

	p.logger.Info("Published site",
		logfields.URL(url),
		logfields.Branch(p.opts.Branch),
		logfields.Count(files),
		slog.String("commit", hash.String()))
	return &Result{Remote: url, Branch: p.opts.Branch, Commit: hash.String(), Files: files}, nil
}

func (p *Publisher) commit(repo *git.Repository) (plumbing.Hash, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return plumbing.ZeroHash, err
	}
	return wt.Commit(p.opts.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.opts.Author.Name,
			Email: p.opts.Author.Email,
			When:  p.now(),
		},
		AllowEmptyCommits: true,
	})
}

// remoteURL resolves the push target. An explicit remote naming a remote of
// the project repository resolves to that remote's first URL; any other
// explicit value is used as is. With no remote configured the project's
// origin is used.
func (p *Publisher) remoteURL() (string, error) {
	name := p.opts.Remote
	if name == "" {
		name = remoteName
	}

	repo, err := git.PlainOpenWithOptions(p.opts.ProjectRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		if r, err := repo.Remote(name); err == nil && len(r.Config().URLs) > 0 {
			return r.Config().URLs[0], nil
		}
	}
	if p.opts.Remote != "" {
		return p.opts.Remote, nil
	}

	cause := fmt.Errorf("%w: project has no %q remote", ErrNoRemote, remoteName)
	if err != nil {
		cause = fmt.Errorf("%w: %w", ErrNoRemote, err)
	}
	return "", classify(cause, "remote", "")
}
