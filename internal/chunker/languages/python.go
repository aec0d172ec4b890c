package languages

import (
	"maharajah/internal/chunker"

	"github.com/smacker/go-tree-sitter/python"
)

func RegisterPython(r *chunker.Registry) {
	r.Register("python", &chunker.LanguageSpec{
		Language:   python.GetLanguage(),
		Extensions: []string{"py"},
		ChunkKinds: []string{
			"function_definition",
			"class_definition",
			"decorated_definition",
		},
		SummaryKinds: []string{
			"function_definition", "class_definition", "decorated_definition",
		},
		CommentKinds:  []string{"comment"},
		LinePrefixes:  []string{"#"},
		BodyDocstring: true,
	})
}
