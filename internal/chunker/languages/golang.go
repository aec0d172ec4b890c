package languages

import (
	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/golang"
)

func RegisterGo(r *chunker.Registry) {
	r.Register("go", &chunker.LanguageSpec{
		Language:   golang.GetLanguage(),
		Extensions: []string{"go"},
		ChunkKinds: []string{
			"function_declaration",
			"method_declaration",
			"type_declaration",
			"const_declaration",
			"var_declaration",
		},
		SummaryKinds: []string{"function_declaration", "method_declaration"},
		CommentKinds: []string{"comment"},
		HeaderKinds:  []string{"package_clause"},
		LinePrefixes: []string{"//"},
	})
}
