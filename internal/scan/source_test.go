package scan

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return root
}

func TestDirSource(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":              "package main\n",
		"src/app.py":           "print('hi')\n",
		"node_modules/x/a.js":  "ignored",
		".git/config":          "ignored",
		"vendor/dep/b.go":      "ignored",
		"README.md":            "docs",
	})

	src := NewDirSource(root)
	files, err := src.Files(context.Background())
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	want := []string{"README.md", "main.go", "src/app.py"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	content, err := src.Content(context.Background(), "src/app.py")
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	if string(content) != "print('hi')\n" {
		t.Errorf("Content = %q", content)
	}
}

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestArchiveSource(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"myrepo-main/main.go":            "package main\n",
		"myrepo-main/src/util.py":        "x = 1\n",
		"myrepo-main/node_modules/a.js":  "ignored",
	})

	src, err := NewArchiveSource(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewArchiveSource() error = %v", err)
	}

	files, err := src.Files(context.Background())
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	// the shared myrepo-main/ prefix is stripped, node_modules dropped
	want := []string{"main.go", "src/util.py"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths = %v, want %v", paths, want)
	}

	content, err := src.Content(context.Background(), "src/util.py")
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	if string(content) != "x = 1\n" {
		t.Errorf("Content = %q", content)
	}

	if _, err := src.Content(context.Background(), "missing.go"); err == nil {
		t.Error("Content() on missing file should error")
	}
}

func TestArchiveSourceRejectsGarbage(t *testing.T) {
	if _, err := NewArchiveSource(bytes.NewReader([]byte("not a gzip stream"))); err == nil {
		t.Error("expected error for non-gzip input")
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/app.PY", "python"},
		{"web/app.tsx", "typescript"},
		{"README.md", ""},
		{"Dockerfile", ""},
	}
	for _, tc := range cases {
		if got := DetectLanguage(tc.path); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
