// Package languages registers tree-sitter grammars and chunking rules for
// each supported language. F# and Haskell have no grammar in the binding;
// their files yield zero chunks and are skipped.
package languages

import "maharajah/internal/chunker"

// RegisterAll fills a registry with every supported language.
func RegisterAll(r *chunker.Registry) {
	RegisterGo(r)
	RegisterRust(r)
	RegisterPython(r)
	RegisterJavaScript(r)
	RegisterTypeScript(r)
	RegisterJava(r)
	RegisterCSharp(r)
	RegisterScala(r)
	RegisterRuby(r)
}
