package chunker

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageSpec describes how one language is parsed into chunks.
type LanguageSpec struct {
	Language   *sitter.Language
	Extensions []string

	// ChunkKinds are the AST node kinds emitted as chunks. Matching stops
	// at the outermost match; nested definitions stay inside their parent.
	ChunkKinds []string
	// SummaryKinds are the chunk kinds whose doc comment is extracted.
	SummaryKinds []string
	// CommentKinds are the node kinds that hold comments.
	CommentKinds []string
	// PruneKinds are never recursed into during collection.
	PruneKinds []string
	// SkipKinds are sibling kinds stepped over while walking backwards
	// from a declaration to its doc comment.
	SkipKinds []string
	// HeaderKinds are module/package header clauses; they are neither
	// chunks nor orphan material.
	HeaderKinds []string

	// IsDoc reports whether a comment's raw text is documentation.
	// nil means every comment immediately above a declaration counts.
	IsDoc func(raw string) bool
	// LinePrefixes are line-comment markers stripped from doc text,
	// tried longest-first.
	LinePrefixes []string
	// StripXMLTags removes <summary>-style tags after marker stripping.
	StripXMLTags bool
	// BodyDocstring extracts a string literal that is the first statement
	// of the definition body (Python convention).
	BodyDocstring bool
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*LanguageSpec // extension (without dot) → spec
	names map[*LanguageSpec]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]*LanguageSpec),
		names: make(map[*LanguageSpec]string),
	}
}

// Register adds a language spec under the given name.
func (r *Registry) Register(name string, spec *LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[spec] = name
	for _, ext := range spec.Extensions {
		r.specs[ext] = spec
	}
}

// Lookup returns the spec and language name for a file path based on its
// extension, or nil if no grammar is registered.
func (r *Registry) Lookup(path string) (*LanguageSpec, string) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[ext]
	if !ok {
		return nil, ""
	}
	return spec, r.names[spec]
}

// LanguageName returns the language name for a file path, or "".
func (r *Registry) LanguageName(path string) string {
	_, name := r.Lookup(path)
	return name
}

// Extensions returns the set of all registered file extensions (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.specs))
	for ext := range r.specs {
		exts[ext] = true
	}
	return exts
}
