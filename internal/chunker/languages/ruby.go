package languages

import (
	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/ruby"
)

func RegisterRuby(r *chunker.Registry) {
	r.Register("ruby", &chunker.LanguageSpec{
		Language:   ruby.GetLanguage(),
		Extensions: []string{"rb"},
		ChunkKinds: []string{
			"method",
			"class",
			"module",
			"singleton_method",
			"singleton_class",
		},
		SummaryKinds: []string{
			"method", "class", "module", "singleton_method", "singleton_class",
		},
		CommentKinds: []string{"comment"},
		LinePrefixes: []string{"#"},
	})
}
