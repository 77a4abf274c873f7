package scan

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// FileInfo describes one candidate file in a scan source.
type FileInfo struct {
	Path string
	Size int64
}

// Source abstracts where a scan's file tree comes from: a local checkout or
// an uploaded archive. Paths are slash-separated and relative to the tree
// root.
type Source interface {
	// Files enumerates every file in the tree, skipped directories
	// excluded, without loading content.
	Files(ctx context.Context) ([]FileInfo, error)
	// Content loads one file's bytes.
	Content(ctx context.Context, path string) ([]byte, error)
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".govscan":     true,
}

// DirSource reads the tree from a local directory. When the directory is a
// git checkout, it also serves per-file commit context for the metadata
// analyzer.
type DirSource struct {
	root string
	git  *gitLog
}

// NewDirSource builds a source over a local checkout.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root, git: newGitLog(root)}
}

func (d *DirSource) Files(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if entry.IsDir() {
			if p != d.root && skipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}

		files = append(files, FileInfo{
			Path: filepath.ToSlash(rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tree: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (d *DirSource) Content(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(path)))
}

// ArchiveSource reads the tree from an uploaded tar.gz archive. The archive
// is decompressed once up front; content lookups are served from memory.
type ArchiveSource struct {
	files map[string][]byte
	order []FileInfo
}

// NewArchiveSource decompresses a tar.gz stream into an in-memory source.
// Entries under skipped directories and non-regular entries are dropped. A
// single leading directory component shared by all entries (the usual
// tarball layout) is stripped.
func NewArchiveSource(r io.Reader) (*ArchiveSource, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer func() { _ = gz.Close() }()

	files := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.ToSlash(filepath.Clean(hdr.Name))
		if name == "." || strings.HasPrefix(name, "../") || strings.HasPrefix(name, "/") {
			continue
		}
		if underSkippedDir(name) {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", hdr.Name, err)
		}
		files[name] = content
	}

	files = stripCommonPrefix(files)

	src := &ArchiveSource{files: files}
	for p, content := range files {
		src.order = append(src.order, FileInfo{Path: p, Size: int64(len(content))})
	}
	sort.Slice(src.order, func(i, j int) bool { return src.order[i].Path < src.order[j].Path })

	return src, nil
}

func (a *ArchiveSource) Files(_ context.Context) ([]FileInfo, error) {
	out := make([]FileInfo, len(a.order))
	copy(out, a.order)
	return out, nil
}

func (a *ArchiveSource) Content(_ context.Context, path string) ([]byte, error) {
	content, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file in archive: %s", path)
	}
	return content, nil
}

func underSkippedDir(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if skipDirs[part] {
			return true
		}
	}
	return false
}

// stripCommonPrefix removes a single top-level directory shared by every
// entry, so repo-name-main/src/a.go becomes src/a.go.
func stripCommonPrefix(files map[string][]byte) map[string][]byte {
	var prefix string
	for p := range files {
		i := strings.Index(p, "/")
		if i < 0 {
			return files
		}
		if prefix == "" {
			prefix = p[:i+1]
			continue
		}
		if p[:i+1] != prefix {
			return files
		}
	}
	if prefix == "" {
		return files
	}

	stripped := make(map[string][]byte, len(files))
	for p, content := range files {
		stripped[strings.TrimPrefix(p, prefix)] = content
	}
	return stripped
}

// OpenArchiveSource opens a tar.gz file from disk.
func OpenArchiveSource(path string) (*ArchiveSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return NewArchiveSource(bytes.NewReader(data))
}
