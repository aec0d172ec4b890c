package languages

import (
	"strings"

	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/javascript"
)

func jsdoc(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "/**")
}

func RegisterJavaScript(r *chunker.Registry) {
	r.Register("javascript", &chunker.LanguageSpec{
		Language:   javascript.GetLanguage(),
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
		ChunkKinds: []string{
			"function_declaration",
			"class_declaration",
			"method_definition",
			"arrow_function",
			"generator_function_declaration",
		},
		SummaryKinds: []string{
			"function_declaration",
			"class_declaration",
			"method_definition",
			"arrow_function",
			"generator_function_declaration",
		},
		CommentKinds: []string{"comment"},
		IsDoc:        jsdoc,
		LinePrefixes: []string{"//"},
	})
}
