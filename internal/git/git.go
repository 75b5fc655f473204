// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git locates the project root and reports uncommitted changes to
// files before they are patched.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// ErrNoGit is returned when the directory is not inside a git repository.
var ErrNoGit = errors.New("not a git repository")

// ErrOutsideRepo is returned for paths outside the repository work tree.
var ErrOutsideRepo = errors.New("path is outside the repository")

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	root string
}

// Open opens the repository containing dir, searching parent directories
// for the .git entry. Returns ErrNoGit if none is found.
func Open(dir string) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, fmt.Errorf("resolving work tree root: %w", err)
	}
	return &Repo{repo: r, root: root}, nil
}

// Root returns the absolute path of the work tree.
func (r *Repo) Root() string {
	return r.root
}

// IsDirty returns true if the working tree has uncommitted changes
// (either staged or unstaged).
func (r *Repo) IsDirty() (bool, error) {
	status, err := r.status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}

// IsModified reports whether path has staged, unstaged or untracked
// changes. Paths may be absolute or relative to the work tree.
func (r *Repo) IsModified(path string) (bool, error) {
	rel, err := r.relative(path)
	if err != nil {
		return false, err
	}
	status, err := r.status()
	if err != nil {
		return false, err
	}
	fs, ok := status[rel]
	if !ok {
		return false, nil
	}
	return fs.Staging != gogit.Unmodified || fs.Worktree != gogit.Unmodified, nil
}

// ModifiedFiles filters paths down to those with uncommitted changes,
// preserving order and dropping duplicates. Paths outside the work tree
// are ignored.
func (r *Repo) ModifiedFiles(paths []string) ([]string, error) {
	status, err := r.status()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil || seen[rel] {
			continue
		}
		seen[rel] = true
		fs, ok := status[rel]
		if ok && (fs.Staging != gogit.Unmodified || fs.Worktree != gogit.Unmodified) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ProjectRoot returns the work tree root containing dir, or dir itself
// (made absolute) when it is not inside a repository.
func ProjectRoot(dir string) string {
	if r, err := Open(dir); err == nil {
		return r.Root()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (r *Repo) status() (gogit.Status, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}
	return status, nil
}

// relative converts path to the slash-separated form used as a status key.
func (r *Repo) relative(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}
	rel, err := filepath.Rel(r.root, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRepo, path)
	}
	return filepath.ToSlash(rel), nil
}
