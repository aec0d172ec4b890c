package languages

import (
	"strings"

	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/rust"
)

func RegisterRust(r *chunker.Registry) {
	r.Register("rust", &chunker.LanguageSpec{
		Language:   rust.GetLanguage(),
		Extensions: []string{"rs"},
		ChunkKinds: []string{
			"function_item",
			"impl_item",
			"struct_item",
			"enum_item",
			"trait_item",
			"type_item",
			"const_item",
			"static_item",
			"mod_item",
			"macro_definition",
			"union_item",
		},
		SummaryKinds: []string{
			"function_item", "impl_item", "trait_item", "struct_item", "enum_item",
		},
		CommentKinds: []string{"line_comment", "block_comment"},
		IsDoc: func(raw string) bool {
			s := strings.TrimSpace(raw)
			return strings.HasPrefix(s, "///") ||
				strings.HasPrefix(s, "//!") ||
				strings.HasPrefix(s, "/**")
		},
		LinePrefixes: []string{"///", "//!", "//"},
	})
}
