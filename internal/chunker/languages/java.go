package languages

import (
	"strings"

	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/java"
)

func RegisterJava(r *chunker.Registry) {
	r.Register("java", &chunker.LanguageSpec{
		Language:   java.GetLanguage(),
		Extensions: []string{"java"},
		ChunkKinds: []string{
			"method_declaration",
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"record_declaration",
			"annotation_type_declaration",
			"constructor_declaration",
		},
		SummaryKinds: []string{
			"method_declaration",
			"class_declaration",
			"interface_declaration",
			"constructor_declaration",
		},
		CommentKinds: []string{"block_comment", "line_comment", "comment"},
		HeaderKinds:  []string{"package_declaration"},
		IsDoc: func(raw string) bool {
			return strings.HasPrefix(strings.TrimSpace(raw), "/**")
		},
		LinePrefixes: []string{"//"},
	})
}
