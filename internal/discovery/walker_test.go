package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRepo sets up a synthetic test repository in a temp directory.
func createTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	dirs := []string{
		"src",
		"docs",
		"build",
		".git/objects",
	}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	textFiles := map[string]string{
		"main.go":       "package main\n\nfunc main() {}\n",
		"README.md":     "# Test\n",
		"src/app.go":    "package src\n\nfunc App() {}\n",
		"src/util.go":   "package src\n\nfunc Util() {}\n",
		"docs/guide.md": "# Guide\n",
		".git/HEAD":     "ref: refs/heads/main\n",
	}
	for name, content := range textFiles {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	return root
}

func createBinaryFile(t *testing.T, path string) {
	t.Helper()
	data := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func createLargeFile(t *testing.T, path string, size int64) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = 'x'
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// autoSources builds a SourceMatcher with a single Auto directive rooted at
// root, the shape most tests exercise.
func autoSources(root string) *SourceMatcher {
	return CompileSources(ResolveSources([]SourceDirective{{Base: root}}))
}

func TestWalkerBasicDiscovery(t *testing.T) {
	root := createTestRepo(t)

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources: autoSources(root),
	})
	require.NoError(t, err)

	assert.Len(t, result.Files, 5)

	paths := make([]string, len(result.Files))
	for i, f := range result.Files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"README.md", "docs/guide.md", "main.go", "src/app.go", "src/util.go"}, paths)
}

func TestWalkerSkipsGitDirectory(t *testing.T) {
	root := createTestRepo(t)

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources: autoSources(root),
	})
	require.NoError(t, err)

	for _, f := range result.Files {
		assert.NotContains(t, f.Path, ".git")
	}
}

func TestWalkerHonorsGitignore(t *testing.T) {
	root := createTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\n*.log\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "debug.log"), []byte("log\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.go"), []byte("package build\n"), 0o644))

	gm, err := NewGitignoreMatcher(root)
	require.NoError(t, err)

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources:          autoSources(root),
		GitignoreMatcher: gm,
	})
	require.NoError(t, err)

	for _, f := range result.Files {
		assert.NotEqual(t, "debug.log", f.Path)
		assert.NotContains(t, f.Path, "build/")
	}
}

func TestWalkerSkipsBinaryFiles(t *testing.T) {
	root := createTestRepo(t)
	createBinaryFile(t, filepath.Join(root, "image.png"))

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources: autoSources(root),
	})
	require.NoError(t, err)

	for _, f := range result.Files {
		assert.NotEqual(t, "image.png", f.Path)
	}
	assert.Greater(t, result.SkipReasons["binary"], 0)
}

func TestWalkerSkipsLargeFiles(t *testing.T) {
	root := createTestRepo(t)
	createLargeFile(t, filepath.Join(root, "huge.txt"), 2*1024*1024)

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources:        autoSources(root),
		SkipLargeFiles: 1024 * 1024,
	})
	require.NoError(t, err)

	for _, f := range result.Files {
		assert.NotEqual(t, "huge.txt", f.Path)
	}
	assert.Greater(t, result.SkipReasons["large_file"], 0)
}

func TestWalkerExplicitContentPathBypassesGitignore(t *testing.T) {
	root := createTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("src/\n"), 0o644))

	gm, err := NewGitignoreMatcher(root)
	require.NoError(t, err)

	sources := CompileSources(ResolveSources([]SourceDirective{
		{Base: root},
		{Base: root, Pattern: "src/app.go"},
	}))

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources:          sources,
		GitignoreMatcher: gm,
	})
	require.NoError(t, err)

	var foundApp, foundUtil bool
	for _, f := range result.Files {
		if f.Path == "src/app.go" {
			foundApp = true
		}
		if f.Path == "src/util.go" {
			foundUtil = true
		}
	}
	assert.True(t, foundApp, "explicitly-named path must bypass .gitignore")
	assert.False(t, foundUtil, "non-explicit sibling stays ignored")
}

func TestWalkerReadsFileContent(t *testing.T) {
	root := createTestRepo(t)

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources: autoSources(root),
	})
	require.NoError(t, err)

	for _, f := range result.Files {
		if f.Path == "main.go" {
			assert.Contains(t, string(f.Content), "func main()")
			assert.Nil(t, f.Error)
		}
	}
}

func TestWalkerReturnsDirs(t *testing.T) {
	root := createTestRepo(t)

	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources: autoSources(root),
	})
	require.NoError(t, err)

	assert.Contains(t, result.Dirs, root)
	assert.Contains(t, result.Dirs, filepath.Join(root, "src"))
	assert.Contains(t, result.Dirs, filepath.Join(root, "docs"))
}

func TestWalkerEmptyRootsReturnsEmptyResult(t *testing.T) {
	w := NewWalker()
	result, err := w.Walk(context.Background(), WalkerConfig{
		Sources: CompileSources(nil),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Empty(t, result.Dirs)
}

func TestWalkerContextCancellation(t *testing.T) {
	root := createTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker()
	_, err := w.Walk(ctx, WalkerConfig{
		Sources: autoSources(root),
	})
	// Either a context error or a clean (already-drained) result is
	// acceptable; what matters is Walk doesn't hang.
	_ = err
}
