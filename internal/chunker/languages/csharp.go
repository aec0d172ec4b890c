package languages

import (
	"strings"

	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/csharp"
)

func RegisterCSharp(r *chunker.Registry) {
	r.Register("csharp", &chunker.LanguageSpec{
		Language:   csharp.GetLanguage(),
		Extensions: []string{"cs"},
		ChunkKinds: []string{
			"method_declaration",
			"class_declaration",
			"interface_declaration",
			"struct_declaration",
			"enum_declaration",
			"record_declaration",
			"delegate_declaration",
			"property_declaration",
			"constructor_declaration",
		},
		SummaryKinds: []string{
			"method_declaration",
			"class_declaration",
			"interface_declaration",
			"constructor_declaration",
			"property_declaration",
		},
		CommentKinds: []string{"comment"},
		IsDoc: func(raw string) bool {
			s := strings.TrimSpace(raw)
			return strings.HasPrefix(s, "///") || strings.HasPrefix(s, "/**")
		},
		LinePrefixes: []string{"///", "//"},
		StripXMLTags: true,
	})
}
