package languages

import (
	"strings"

	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/scala"
)

func RegisterScala(r *chunker.Registry) {
	r.Register("scala", &chunker.LanguageSpec{
		Language:   scala.GetLanguage(),
		Extensions: []string{"scala", "sc"},
		ChunkKinds: []string{
			"function_definition",
			"class_definition",
			"object_definition",
			"trait_definition",
			"enum_definition",
			"given_definition",
			"extension_definition",
			"type_definition",
		},
		SummaryKinds: []string{
			"function_definition",
			"class_definition",
			"trait_definition",
			"given_definition",
			"extension_definition",
		},
		CommentKinds: []string{"comment", "block_comment"},
		HeaderKinds:  []string{"package_clause"},
		IsDoc: func(raw string) bool {
			return strings.HasPrefix(strings.TrimSpace(raw), "/**")
		},
		LinePrefixes: []string{"//"},
	})
}
