package workspace

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/daedaleanai/uvmgen/log"
)

const (
	snapshotAuthor = "uvmgen"
	snapshotEmail  = "uvmgen@localhost"
)

// Snapshot commits the current content of the output tree to a git
// repository at the output root, creating the repository on first use. It
// returns the commit hash, or an empty string when nothing changed.
func (m *FileManager) Snapshot(message string) (string, error) {
	repo, err := git.PlainOpen(m.root)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		log.Debug("Initializing git repository in %s\n", m.root)
		repo, err = git.PlainInit(m.root, false)
	}
	if err != nil {
		return "", fmt.Errorf("failed to open output repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get repo worktree: %w", err)
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage output files: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get repo status: %w", err)
	}
	if status.IsClean() {
		log.Debug("Output tree unchanged, no snapshot taken.\n")
		return "", nil
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  snapshotAuthor,
			Email: snapshotEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit output snapshot: %w", err)
	}
	return hash.String(), nil
}

// IsDirty reports whether the output tree has changes since the last
// snapshot. A tree without repository is always dirty.
func (m *FileManager) IsDirty() bool {
	repo, err := git.PlainOpen(m.root)
	if err != nil {
		return true
	}
	worktree, err := repo.Worktree()
	if err != nil {
		log.Error("Failed to get repo worktree: %s.\n", err)
		return true
	}
	status, err := worktree.Status()
	if err != nil {
		log.Error("Failed to get repo status: %s.\n", err)
		return true
	}
	return !status.IsClean()
}
