// Package git labels focus sessions with the repository they were run in.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/xvierd/focusflow/internal/ports"
)

// ErrNotRepository is returned when no repository encloses the directory.
var ErrNotRepository = errors.New("not inside a git repository")

// Detector implements ports.GitDetector using go-git.
type Detector struct{}

// NewDetector creates a new git detector.
func NewDetector() *Detector {
	return &Detector{}
}

var _ ports.GitDetector = (*Detector)(nil)

// Detect reads branch, HEAD commit and worktree state for the repository
// enclosing workingDir.
func (d *Detector) Detect(ctx context.Context, workingDir string) (*ports.GitInfo, error) {
	repo, err := open(workingDir)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	branch := head.Name().Short()
	if !head.Name().IsBranch() {
		branch = "HEAD detached"
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	info := &ports.GitInfo{
		Branch:    branch,
		Commit:    head.Hash().String(),
		CommitMsg: strings.SplitN(commit.Message, "\n", 2)[0],
	}

	if remotes, err := repo.Remotes(); err == nil && len(remotes) > 0 {
		if urls := remotes[0].Config().URLs; len(urls) > 0 {
			info.Repository = extractRepoName(urls[0])
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}
	info.IsClean = status.IsClean()

	return info, nil
}

// IsAvailable reports whether the process directory is inside a
// repository.
func (d *Detector) IsAvailable() bool {
	_, err := open("")
	return err == nil
}

// Origin returns the branch and short commit for workingDir, or empty
// strings when it is not a repository.
func (d *Detector) Origin(ctx context.Context, workingDir string) (branch, commit string) {
	info, err := d.Detect(ctx, workingDir)
	if err != nil {
		return "", ""
	}
	return info.Branch, ShortCommit(info.Commit)
}

func open(workingDir string) (*git.Repository, error) {
	if workingDir == "" {
		var err error
		workingDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(workingDir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotRepository
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return repo, nil
}

// extractRepoName reduces a remote URL to owner/name.
func extractRepoName(url string) string {
	url = strings.TrimSuffix(url, ".git")

	// git@github.com:user/repo
	if strings.HasPrefix(url, "git@") {
		if i := strings.LastIndex(url, ":"); i >= 0 {
			return url[i+1:]
		}
	}

	if strings.HasPrefix(url, "http") || strings.HasPrefix(url, "ssh://") {
		parts := strings.Split(url, "/")
		if len(parts) >= 2 {
			return parts[len(parts)-2] + "/" + parts[len(parts)-1]
		}
	}

	return url
}

// ShortCommit returns the first seven characters of a commit hash.
func ShortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
