// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package backup snapshots files before they are patched. Backups live in a
// tree that mirrors the project layout and are never overwritten.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/internal/editor"
	"github.com/petar-djukic/rootcause/pkg/types"
)

// externalDir holds backups of files outside the project root.
const externalDir = "_external"

const suffix = ".bak"

// Info describes one backup file.
type Info struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Modified     time.Time `json:"modified"`
	OriginalName string    `json:"original_name"`
}

// Manager creates, restores and prunes backups under one backup root.
type Manager struct {
	dir    string
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// NewManager returns a Manager storing backups in dir. Relative dirs are
// resolved against projectRoot, which is also the base for mirrored paths.
func NewManager(dir, projectRoot string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		root = filepath.Clean(projectRoot)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return &Manager{dir: dir, root: root, logger: logger, now: time.Now}
}

// Dir returns the backup root.
func (m *Manager) Dir() string { return m.dir }

// CreateBackup copies path into the backup tree and returns the backup
// path. The file is named <name>.<timestamp>.bak; a name collision gets a
// numeric suffix instead of overwriting.
func (m *Manager) CreateBackup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w: %s", types.ErrBackup, types.ErrFileNotFound, path)
		}
		return "", fmt.Errorf("%w: %w", types.ErrBackup, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrBackup, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", types.ErrBackup, path)
	}

	target := m.mirrorDir(path)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", types.ErrBackup, target, err)
	}

	dst, backupPath, err := m.createUnique(target, filepath.Base(path), info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrBackup, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("%w: copying %s: %w", types.ErrBackup, path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("%w: closing %s: %w", types.ErrBackup, backupPath, err)
	}

	m.logger.Debug("created backup", zap.String("file", path), zap.String("backup", backupPath))
	return backupPath, nil
}

// createUnique opens a new backup file with O_EXCL so an existing backup is
// never truncated.
func (m *Manager) createUnique(dir, name string, perm os.FileMode) (*os.File, string, error) {
	stamp := timestamp(m.now())
	for i := 0; i < 1000; i++ {
		tag := stamp
		if i > 0 {
			tag += "-" + strconv.Itoa(i)
		}
		p := filepath.Join(dir, name+"."+tag+suffix)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|0o200)
		if err == nil {
			return f, p, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free backup name for %s in %s", name, dir)
}

// RestoreBackup copies backupPath over originalPath atomically, creating
// parent directories as needed.
func (m *Manager) RestoreBackup(backupPath, originalPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("reading backup %s: %w", backupPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(originalPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", originalPath, err)
	}
	if err := editor.WriteFileAtomic(originalPath, data); err != nil {
		return fmt.Errorf("restoring %s: %w", originalPath, err)
	}
	m.logger.Debug("restored backup", zap.String("file", originalPath), zap.String("backup", backupPath))
	return nil
}

// LatestBackup returns the newest backup of path, or "" when there is none.
func (m *Manager) LatestBackup(path string) (string, error) {
	backups, err := m.ListBackups(path)
	if err != nil || len(backups) == 0 {
		return "", err
	}
	return backups[0].Path, nil
}

// ListBackups returns backups newest first. An empty path lists every
// backup; otherwise only backups of that file.
func (m *Manager) ListBackups(path string) ([]Info, error) {
	var out []Info
	if path == "" {
		err := filepath.WalkDir(m.dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(p, suffix) {
				return nil
			}
			if info, ok := stat(p); ok {
				out = append(out, info)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing backups: %w", err)
		}
	} else {
		matches, err := filepath.Glob(filepath.Join(m.mirrorDir(path), globEscape(filepath.Base(path))+".*"+suffix))
		if err != nil {
			return nil, fmt.Errorf("listing backups: %w", err)
		}
		name := filepath.Base(path)
		for _, p := range matches {
			if info, ok := stat(p); ok && info.OriginalName == name {
				out = append(out, info)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Modified.Equal(out[j].Modified) {
			return out[i].Modified.After(out[j].Modified)
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

// ClearOldBackups deletes backups last modified more than days ago. It is
// best-effort: files that cannot be removed are logged and skipped. It
// returns how many backups were removed.
func (m *Manager) ClearOldBackups(days int) int {
	cutoff := m.now().Add(-time.Duration(days) * 24 * time.Hour)
	backups, err := m.ListBackups("")
	if err != nil {
		m.logger.Warn("could not list backups for cleanup", zap.Error(err))
		return 0
	}
	removed := 0
	for _, b := range backups {
		if !b.Modified.Before(cutoff) {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			m.logger.Warn("could not remove old backup", zap.String("backup", b.Path), zap.Error(err))
			continue
		}
		removed++
	}
	m.logger.Info("pruned backups", zap.Int("removed", removed), zap.Int("days", days))
	return removed
}

// mirrorDir returns the backup directory for path: its directory relative
// to the project root, or a copy of its absolute directory under
// _external/ when it lies outside the root.
func (m *Manager) mirrorDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	rel, err := filepath.Rel(m.root, filepath.Dir(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		vol := filepath.VolumeName(abs)
		return filepath.Join(m.dir, externalDir, strings.TrimPrefix(filepath.Dir(abs), vol))
	}
	return filepath.Join(m.dir, rel)
}

func stat(p string) (Info, bool) {
	fi, err := os.Stat(p)
	if err != nil {
		return Info{}, false
	}
	return Info{
		Path:         p,
		Size:         fi.Size(),
		Modified:     fi.ModTime(),
		OriginalName: originalName(filepath.Base(p)),
	}, true
}

// originalName strips the .<timestamp>.bak suffix from a backup file name.
func originalName(base string) string {
	name := strings.TrimSuffix(base, suffix)
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// timestamp formats t with nanoseconds so rapid backups sort in creation
// order: 20060102_150405_000000000.
func timestamp(t time.Time) string {
	return fmt.Sprintf("%s_%09d", t.Format("20060102_150405"), t.Nanosecond())
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
