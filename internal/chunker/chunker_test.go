package chunker_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maharajah/internal/chunker"
	"maharajah/internal/chunker/languages"
)

func newChunker(maxLines int) *chunker.ASTChunker {
	reg := chunker.NewRegistry()
	languages.RegisterAll(reg)
	return chunker.NewASTChunker(reg, maxLines)
}

func TestChunkGoFunction(t *testing.T) {
	src := "package p\nfunc Hello() string { return \"hi\" }\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "a.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, "Hello", c.Symbol)
	assert.Equal(t, 2, c.StartLine)
	assert.Equal(t, 2, c.EndLine)
	assert.Equal(t, `func Hello() string { return "hi" }`, c.Content)
	assert.Empty(t, c.Summary)
}

func TestChunkGoDocComment(t *testing.T) {
	src := "package p\n\n// Greet builds a greeting\n// for the given name.\nfunc Greet(name string) string { return name }\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "a.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Greet", chunks[0].Symbol)
	assert.Equal(t, "Greet builds a greeting for the given name.", chunks[0].Summary)
}

func TestChunkGoMethodSymbol(t *testing.T) {
	src := "package p\n\ntype T struct{}\n\nfunc (t *T) Close() error { return nil }\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "a.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "T", chunks[0].Symbol)
	assert.Equal(t, "Close", chunks[1].Symbol)
}

func TestChunkRustDocComment(t *testing.T) {
	src := "/// Adds two numbers.\npub fn add(a: i32, b: i32) -> i32 { a + b }\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "b.rs", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "add", chunks[0].Symbol)
	assert.Equal(t, "Adds two numbers.", chunks[0].Summary)
}

func TestChunkRustPlainCommentIsNotDoc(t *testing.T) {
	src := "// implementation note\npub fn add(a: i32, b: i32) -> i32 { a + b }\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "b.rs", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].Summary)
}

func TestChunkPythonDocstring(t *testing.T) {
	src := "def greet(name):\n    \"\"\"Return a friendly greeting.\"\"\"\n    return f\"hi {name}\"\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "c.py", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "greet", chunks[0].Symbol)
	assert.Equal(t, "Return a friendly greeting.", chunks[0].Summary)
}

func TestChunkPythonOrphans(t *testing.T) {
	src := "import os\n\nx = 1\ny = 2\n\ndef f():\n    pass\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "c.py", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Empty(t, chunks[0].Symbol)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, "import os", chunks[0].Content)

	assert.Empty(t, chunks[1].Symbol)
	assert.Equal(t, 3, chunks[1].StartLine)
	assert.Equal(t, 4, chunks[1].EndLine)
	assert.Equal(t, "x = 1\ny = 2", chunks[1].Content)

	assert.Equal(t, "f", chunks[2].Symbol)
}

func TestChunkSplitOversized(t *testing.T) {
	var b strings.Builder
	b.WriteString("package p\n\n// Big does a lot.\nfunc Big() {\n")
	for i := 0; i < 20; i++ {
		b.WriteString("\tdoWork()\n")
	}
	b.WriteString("}\n")

	chunks, err := newChunker(8).Chunk(context.Background(), "a.go", []byte(b.String()))
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)

	assert.Equal(t, "Big#1", chunks[0].Symbol)
	assert.Equal(t, "Big does a lot.", chunks[0].Summary)
	for i, c := range chunks[1:] {
		assert.Equal(t, "Big#"+string(rune('2'+i)), c.Symbol)
		assert.Empty(t, c.Summary)
		assert.True(t, c.EndLine-c.StartLine+1 <= 8)
	}

	// Windows are contiguous.
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndLine+1, chunks[i].StartLine)
	}
}

func TestChunkUnknownExtensionSkipped(t *testing.T) {
	chunks, err := newChunker(150).Chunk(context.Background(), "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestChunkJSDoc(t *testing.T) {
	src := "/** Formats a user name. */\nfunction format(user) { return user.name; }\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "d.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "format", chunks[0].Symbol)
	assert.Equal(t, "Formats a user name.", chunks[0].Summary)
}

func TestChunkJSArrowFunctionSymbol(t *testing.T) {
	src := "const format = (user) => user.name;\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "d.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "format", chunks[0].Symbol)
}

func TestChunkDocumentOrder(t *testing.T) {
	src := "package p\n\nfunc A() {}\n\nfunc B() {}\n\nfunc C() {}\n"
	chunks, err := newChunker(150).Chunk(context.Background(), "a.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "A", chunks[0].Symbol)
	assert.Equal(t, "B", chunks[1].Symbol)
	assert.Equal(t, "C", chunks[2].Symbol)
}
