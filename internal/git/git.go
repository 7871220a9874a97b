// Package git runs the git commands bibcheck needs: locating the repository,
// reading a bibliography as it was at a commit, and committing the result.
package git

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotGitRepo indicates the directory is not a git repository.
var ErrNotGitRepo = errors.New("not a git repository")

// ErrCommitNotFound indicates the specified commit does not exist.
var ErrCommitNotFound = errors.New("commit not found")

// ErrFileNotFound indicates the file did not exist at the requested commit.
var ErrFileNotFound = errors.New("file not found at commit")

// ErrNothingToCommit indicates the working tree has no tracked changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// FindRepoRoot finds the root of the git repository containing the given path.
// Returns ErrNotGitRepo if not in a git repository.
func FindRepoRoot(path string) (string, error) {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrNotGitRepo
	}
	return strings.TrimSpace(string(output)), nil
}

// IsGitRepo checks if the given path is inside a git repository.
func IsGitRepo(path string) bool {
	_, err := FindRepoRoot(path)
	return err == nil
}

// ValidateCommit verifies that a commit reference exists.
// Supports SHA, HEAD, HEAD~N, branch names, tags, etc.
// Returns the resolved full SHA or ErrCommitNotFound.
func ValidateCommit(repoRoot, commitRef string) (string, error) {
	cmd := exec.Command("git", "-C", repoRoot, "rev-parse", "--verify", "--quiet", commitRef+"^{commit}")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrCommitNotFound
	}
	return strings.TrimSpace(string(output)), nil
}

// FileAtRef returns the contents of path as of commitRef. path may be
// absolute or relative to repoRoot.
func FileAtRef(repoRoot, commitRef, path string) ([]byte, error) {
	sha, err := ValidateCommit(repoRoot, commitRef)
	if err != nil {
		return nil, err
	}

	rel, err := relPath(repoRoot, path)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("git", "-C", repoRoot, "show", sha+":"+rel)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s at %s: %w", rel, commitRef, ErrFileNotFound)
		}
		return nil, fmt.Errorf("reading %s at %s: %w", rel, commitRef, err)
	}
	return output, nil
}

// IsFileTracked checks if path is tracked by git.
func IsFileTracked(repoRoot, path string) bool {
	rel, err := relPath(repoRoot, path)
	if err != nil {
		return false
	}
	cmd := exec.Command("git", "-C", repoRoot, "ls-files", "--", rel)
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) != ""
}

// CommitAll commits every tracked modification with message and returns the
// new commit SHA. Untracked files are left alone.
func CommitAll(repoRoot, message string) (string, error) {
	status := exec.Command("git", "-C", repoRoot, "status", "--porcelain", "--untracked-files=no")
	output, err := status.Output()
	if err != nil {
		return "", ErrNotGitRepo
	}
	if strings.TrimSpace(string(output)) == "" {
		return "", ErrNothingToCommit
	}

	// The message goes through a pipe so quotes and newlines survive.
	commit := exec.Command("git", "-C", repoRoot, "commit", "-a", "-F", "-")
	commit.Stdin = strings.NewReader(message)
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return ValidateCommit(repoRoot, "HEAD")
}

func relPath(repoRoot, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", path, repoRoot)
	}
	return filepath.ToSlash(rel), nil
}
