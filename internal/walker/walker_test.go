package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, opts Options) []FileInfo {
	t.Helper()
	files, errs := Walk(context.Background(), opts)
	var out []FileInfo
	for f := range files {
		out = append(out, f)
	}
	require.NoError(t, <-errs)
	return out
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestWalkExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package p\n")
	writeFile(t, root, "b.txt", "not code\n")
	writeFile(t, root, "sub/c.rs", "fn main() {}\n")

	got := collect(t, Options{
		Root:       root,
		Extensions: ExtensionSet([]string{"go", "rs"}),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "a.go", got[0].RelPath)
	assert.Equal(t, "sub/c.rs", got[1].RelPath)
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"z.go", "a.go", "m/x.go", "m/a.go", "b/q.go"} {
		writeFile(t, root, rel, "package p\n")
	}

	first := collect(t, Options{Root: root, Extensions: ExtensionSet([]string{"go"})})
	second := collect(t, Options{Root: root, Extensions: ExtensionSet([]string{"go"})})

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].RelPath, second[i].RelPath)
	}
}

func TestWalkExcludePrunesDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/foo.rs", "fn foo() {}\n")
	writeFile(t, root, "target/debug/build/bar.rs", "fn bar() {}\n")

	var opened []string
	got := collect(t, Options{
		Root:       root,
		Extensions: ExtensionSet([]string{"rs"}),
		Exclude:    []string{"**/target/**"},
		DirOpened:  func(rel string) { opened = append(opened, rel) },
	})

	require.Len(t, got, 1)
	assert.Equal(t, "src/foo.rs", got[0].RelPath)

	// The walker must not descend into the excluded tree at all.
	for _, rel := range opened {
		assert.NotContains(t, rel, "target")
	}
}

func TestWalkIncludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "package a\n")
	writeFile(t, root, "src/b.py", "pass\n")
	writeFile(t, root, "docs/c.go", "package c\n")

	got := collect(t, Options{
		Root:       root,
		Extensions: ExtensionSet([]string{"go", "py"}),
		Include:    []string{"src/**"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "src/a.go", got[0].RelPath)
	assert.Equal(t, "src/b.py", got[1].RelPath)
}

func TestWalkExcludeFileGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "a_test.go", "package a\n")

	got := collect(t, Options{
		Root:       root,
		Extensions: ExtensionSet([]string{"go"}),
		Exclude:    []string{"**/*_test.go"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "a.go", got[0].RelPath)
}

func TestWalkSymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/a.go", "package a\n")
	// sub/loop → sub creates a cycle; the walk must terminate.
	err := os.Symlink(filepath.Join(root, "sub"), filepath.Join(root, "sub", "loop"))
	if err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	got := collect(t, Options{Root: root, Extensions: ExtensionSet([]string{"go"})})
	require.Len(t, got, 1)
	assert.Equal(t, "sub/a.go", got[0].RelPath)
}

func TestWalkHiddenFilesNotSkippedByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".hidden/a.go", "package a\n")

	got := collect(t, Options{Root: root, Extensions: ExtensionSet([]string{"go"})})
	require.Len(t, got, 1)
	assert.Equal(t, ".hidden/a.go", got[0].RelPath)
}

func TestWalkCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, root, filepath.Join("d", string(rune('a'+i%26))+".go"), "package p\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files, errs := Walk(ctx, Options{Root: root, Extensions: ExtensionSet([]string{"go"})})
	for range files {
	}
	assert.ErrorIs(t, <-errs, context.Canceled)
}
