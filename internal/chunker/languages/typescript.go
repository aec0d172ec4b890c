package languages

import (
	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var tsChunkKinds = []string{
	"function_declaration",
	"class_declaration",
	"method_definition",
	"interface_declaration",
	"type_alias_declaration",
	"enum_declaration",
}

var tsSummaryKinds = []string{
	"function_declaration",
	"class_declaration",
	"method_definition",
	"interface_declaration",
}

func RegisterTypeScript(r *chunker.Registry) {
	r.Register("typescript", &chunker.LanguageSpec{
		Language:     typescript.GetLanguage(),
		Extensions:   []string{"ts"},
		ChunkKinds:   tsChunkKinds,
		SummaryKinds: tsSummaryKinds,
		CommentKinds: []string{"comment"},
		IsDoc:        jsdoc,
		LinePrefixes: []string{"//"},
	})
	r.Register("tsx", &chunker.LanguageSpec{
		Language:     tsx.GetLanguage(),
		Extensions:   []string{"tsx"},
		ChunkKinds:   tsChunkKinds,
		SummaryKinds: tsSummaryKinds,
		CommentKinds: []string{"comment"},
		IsDoc:        jsdoc,
		LinePrefixes: []string{"//"},
	})
}
