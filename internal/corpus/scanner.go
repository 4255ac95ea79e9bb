// Package corpus discovers knowledge documents on disk and reads their front matter.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ScannedFile represents a markdown file found under the knowledge directory.
type ScannedFile struct {
	RelPath string // Relative path from the root (e.g., "policies/underwriting.md")
	Folder  string // Folder part of RelPath, empty for root-level files
	AbsPath string
}

// Scanner walks a knowledge directory for markdown documents.
type Scanner struct {
	root string
}

// NewScanner creates a scanner rooted at dir.
func NewScanner(dir string) *Scanner {
	return &Scanner{root: dir}
}

// Root returns the scanned directory.
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns every .md file under the root. Hidden directories are skipped.
// Results are in lexical path order.
func (s *Scanner) Scan(ctx context.Context) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		folder := filepath.ToSlash(filepath.Dir(relPath))
		if folder == "." {
			folder = ""
		}

		files = append(files, ScannedFile{
			RelPath: relPath,
			Folder:  folder,
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}

	return files, nil
}
