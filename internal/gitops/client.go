package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/agent"
)

// Path confinement errors.
var (
	ErrAbsolutePath = errors.New("file path must be relative to the repository root")
	ErrPathEscape   = errors.New("file path escapes the repository root")
	ErrNoFiles      = errors.New("operation has no files to write")
)

// Config holds the git collaborator's settings.
type Config struct {
	// RepoPath is the path to an existing working tree.
	RepoPath string

	// DefaultBranch is where the tree is returned to after a failure.
	DefaultBranch string

	// RemoteName is the push target. Empty disables pushing.
	RemoteName string

	// AuthorName and AuthorEmail sign the commits.
	AuthorName  string
	AuthorEmail string
}

// Operation is one commit request from the engine.
type Operation struct {
	Files         []agent.FileChange
	CommitMessage string
	BranchName    string
}

// Result reports what the operation did.
type Result struct {
	Success      bool     `json:"success"`
	CommitHash   string   `json:"commit_hash,omitempty"`
	BranchName   string   `json:"branch_name,omitempty"`
	FilesWritten []string `json:"files_written"`
	Error        string   `json:"error,omitempty"`
}

// Client performs git operations against one repository.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

// NewClient validates the config and creates a client. The repository is
// opened per operation, not held open.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.RepoPath == "" {
		return nil, errors.New("repo path is required")
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = "main"
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = "conductord"
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = "conductord@localhost"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// ExecuteOperation checks out the operation's branch, writes the files,
// stages, commits and pushes. A non-nil error always comes with a Result
// whose Error field carries the same message, so callers can record either.
func (c *Client) ExecuteOperation(ctx context.Context, op Operation) (*Result, error) {
	if len(op.Files) == 0 {
		return c.fail(nil, ErrNoFiles)
	}
	if op.CommitMessage == "" {
		op.CommitMessage = "automated pipeline commit"
	}
	branch := op.BranchName
	if branch == "" {
		branch = c.cfg.DefaultBranch
	}

	repo, err := git.PlainOpen(c.cfg.RepoPath)
	if err != nil {
		return c.fail(nil, fmt.Errorf("opening repository %s: %w", c.cfg.RepoPath, err))
	}
	wt, err := repo.Worktree()
	if err != nil {
		return c.fail(nil, fmt.Errorf("getting worktree: %w", err))
	}

	if err := c.checkoutBranch(wt, branch); err != nil {
		return c.fail(wt, fmt.Errorf("checking out branch %s: %w", branch, err))
	}

	written := make([]string, 0, len(op.Files))
	for _, f := range op.Files {
		rel, err := c.confinePath(f.Path)
		if err != nil {
			return c.fail(wt, fmt.Errorf("rejecting path %q: %w", f.Path, err))
		}
		abs := filepath.Join(c.cfg.RepoPath, rel)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return c.fail(wt, fmt.Errorf("creating directories for %s: %w", rel, err))
		}
		if err := os.WriteFile(abs, []byte(f.Content), 0o644); err != nil {
			return c.fail(wt, fmt.Errorf("writing %s: %w", rel, err))
		}
		if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
			return c.fail(wt, fmt.Errorf("staging %s: %w", rel, err))
		}
		written = append(written, filepath.ToSlash(rel))
	}

	hash, err := wt.Commit(op.CommitMessage, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.cfg.AuthorName,
			Email: c.cfg.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return c.fail(wt, fmt.Errorf("committing: %w", err))
	}

	if c.cfg.RemoteName != "" {
		err := repo.PushContext(ctx, &git.PushOptions{RemoteName: c.cfg.RemoteName})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return c.fail(wt, fmt.Errorf("pushing to %s: %w", c.cfg.RemoteName, err))
		}
	}

	c.logger.Info("committed pipeline changes",
		zap.String("branch", branch),
		zap.String("commit", hash.String()),
		zap.Int("files", len(written)))

	return &Result{
		Success:      true,
		CommitHash:   hash.String(),
		BranchName:   branch,
		FilesWritten: written,
	}, nil
}

// confinePath normalizes a file path and rejects anything outside the
// repository root.
func (c *Client) confinePath(path string) (string, error) {
	if path == "" {
		return "", ErrPathEscape
	}
	if filepath.IsAbs(path) {
		return "", ErrAbsolutePath
	}
	rel := filepath.Clean(filepath.FromSlash(path))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return rel, nil
}

// checkoutBranch checks out the branch, creating it from HEAD when absent.
func (c *Client) checkoutBranch(wt *git.Worktree, branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	err := wt.Checkout(&git.CheckoutOptions{Branch: ref})
	if err == nil {
		return nil
	}
	return wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: true})
}

// fail builds the failure result and restores the default branch when a
// worktree is available. The restore is best effort.
func (c *Client) fail(wt *git.Worktree, opErr error) (*Result, error) {
	if wt != nil {
		restoreErr := wt.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(c.cfg.DefaultBranch),
		})
		if restoreErr != nil {
			c.logger.Warn("could not restore default branch",
				zap.String("branch", c.cfg.DefaultBranch),
				zap.Error(restoreErr))
		}
	}
	c.logger.Error("git operation failed", zap.Error(opErr))
	return &Result{Success: false, Error: opErr.Error()}, opErr
}
