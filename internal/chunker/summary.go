package chunker

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractSummary pulls the doc comment for a chunkable node: the run of doc
// comment siblings immediately above it, or the body docstring for languages
// with that convention. The result is whitespace-collapsed; "" means none.
func (c *ASTChunker) extractSummary(spec *LanguageSpec, node *sitter.Node, src []byte) string {
	if spec.BodyDocstring {
		if doc := bodyDocstring(node, src); doc != "" {
			return normalize(doc)
		}
	}
	if len(spec.CommentKinds) == 0 {
		return ""
	}

	var parts []string
	sib := node.PrevNamedSibling()
	for sib != nil {
		kind := sib.Type()
		raw := string(src[sib.StartByte():sib.EndByte()])
		switch {
		case contains(spec.CommentKinds, kind):
			if spec.IsDoc != nil && !spec.IsDoc(raw) {
				// An ordinary comment directly above the declaration
				// separates it from any doc comment further up.
				sib = nil
				continue
			}
			parts = append(parts, stripMarkers(raw, spec))
			sib = sib.PrevNamedSibling()
		case contains(spec.SkipKinds, kind):
			sib = sib.PrevNamedSibling()
		default:
			sib = nil
		}
	}

	// Siblings were walked bottom-up.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return normalize(strings.Join(parts, " "))
}

// bodyDocstring finds a string literal that is the first statement inside
// the node's block (the Python docstring convention).
func bodyDocstring(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "function_definition" || child.Type() == "class_definition" {
			// decorated_definition wraps the real definition
			return bodyDocstring(child, src)
		}
		if child.Type() != "block" {
			continue
		}
		first := child.NamedChild(0)
		if first == nil || first.Type() != "expression_statement" {
			return ""
		}
		expr := first.NamedChild(0)
		if expr == nil || expr.Type() != "string" {
			return ""
		}
		return stripStringQuotes(string(src[expr.StartByte():expr.EndByte()]))
	}
	return ""
}

// stripStringQuotes removes triple- or single-quote delimiters from a
// string literal.
func stripStringQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// stripMarkers removes comment delimiters from a raw comment's text.
func stripMarkers(raw string, spec *LanguageSpec) string {
	trimmed := strings.TrimSpace(raw)
	var text string

	if strings.HasPrefix(trimmed, "/*") {
		inner := strings.TrimPrefix(trimmed, "/**")
		if inner == trimmed {
			inner = strings.TrimPrefix(trimmed, "/*")
		}
		inner = strings.TrimSuffix(inner, "*/")

		var cleaned []string
		for _, line := range strings.Split(inner, "\n") {
			s := strings.TrimSpace(line)
			s = strings.TrimSpace(strings.TrimPrefix(s, "*"))
			if s != "" {
				cleaned = append(cleaned, s)
			}
		}
		text = strings.Join(cleaned, " ")
	} else {
		var cleaned []string
		for _, line := range strings.Split(trimmed, "\n") {
			s := strings.TrimSpace(line)
			for _, prefix := range spec.LinePrefixes {
				if strings.HasPrefix(s, prefix) {
					s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
					break
				}
			}
			cleaned = append(cleaned, s)
		}
		text = strings.Join(cleaned, " ")
	}

	if spec.StripXMLTags {
		text = stripXMLTags(text)
	}
	return text
}

// stripXMLTags drops <...> tags, keeping only text content. Used for C#
// <summary> doc comments.
func stripXMLTags(s string) string {
	var out strings.Builder
	inTag := false
	for _, ch := range s {
		switch {
		case ch == '<':
			inTag = true
		case ch == '>':
			inTag = false
		case !inTag:
			out.WriteRune(ch)
		}
	}
	return out.String()
}

// normalize collapses whitespace runs to single spaces and trims.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
