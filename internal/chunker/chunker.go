// Package chunker parses source files with tree-sitter and slices them into
// AST-aligned chunks with extracted doc-comment summaries.
package chunker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// RawChunk is a chunk extracted from a source file before embedding.
type RawChunk struct {
	Symbol    string
	StartLine int // 1-based, inclusive
	EndLine   int
	Content   string
	Summary   string // "" means no summary
}

// ASTChunker parses source files and extracts semantic chunks.
type ASTChunker struct {
	registry *Registry
	maxLines int
}

// NewASTChunker creates a chunker backed by the given registry. maxLines is
// the upper bound on lines per chunk; larger nodes are split into windows.
func NewASTChunker(r *Registry, maxLines int) *ASTChunker {
	return &ASTChunker{registry: r, maxLines: maxLines}
}

// Chunk parses the source and returns chunks in document order. If no
// grammar is registered for the file it returns (nil, nil) and the file is
// skipped by the caller.
func (c *ASTChunker) Chunk(ctx context.Context, path string, src []byte) ([]RawChunk, error) {
	spec, _ := c.registry.Lookup(path)
	if spec == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	text := string(src)
	lines := strings.Split(text, "\n")
	covered := make([]bool, len(lines)+2)

	var nodes []nodeChunk
	c.collect(spec, tree.RootNode(), src, covered, &nodes)

	var chunks []RawChunk
	for _, nc := range nodes {
		span := nc.endLine - nc.startLine + 1
		if span <= c.maxLines {
			chunks = append(chunks, RawChunk{
				Symbol:    nc.symbol,
				StartLine: nc.startLine,
				EndLine:   nc.endLine,
				Content:   nc.content,
				Summary:   nc.summary,
			})
			continue
		}
		chunks = append(chunks, c.splitWindows(
			lines[nc.startLine-1:nc.endLine], nc.startLine, nc.symbol, nc.summary)...)
	}

	chunks = append(chunks, c.orphans(lines, covered)...)
	sortChunks(chunks)
	return chunks, nil
}

// nodeChunk is a chunkable AST node captured during collection.
type nodeChunk struct {
	symbol    string
	summary   string
	startLine int
	endLine   int
	content   string
}

// collect walks the AST. Matching stops at the outermost chunkable node;
// comments and header clauses are marked covered so they never become
// orphan chunks.
func (c *ASTChunker) collect(spec *LanguageSpec, node *sitter.Node, src []byte, covered []bool, out *[]nodeChunk) {
	kind := node.Type()

	if contains(spec.ChunkKinds, kind) {
		start := int(node.StartPoint().Row) + 1
		end := int(node.EndPoint().Row) + 1
		markCovered(covered, start, end)

		summary := ""
		if contains(spec.SummaryKinds, kind) {
			summary = c.extractSummary(spec, node, src)
		}
		symbol := nodeName(node, src)
		if symbol == "" {
			// Anonymous functions borrow the enclosing declaration's name,
			// e.g. const f = () => {}.
			if parent := node.Parent(); parent != nil {
				symbol = nodeName(parent, src)
			}
		}
		*out = append(*out, nodeChunk{
			symbol:    symbol,
			summary:   summary,
			startLine: start,
			endLine:   end,
			content:   string(src[node.StartByte():node.EndByte()]),
		})
		return
	}

	if contains(spec.CommentKinds, kind) || contains(spec.HeaderKinds, kind) {
		markCovered(covered, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1)
		return
	}

	if contains(spec.PruneKinds, kind) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		c.collect(spec, node.Child(i), src, covered, out)
	}
}

// splitWindows slices an oversized node into windows of at most maxLines
// lines. Each part inherits the symbol with a 1-based part suffix; only the
// first part keeps the summary. Cuts prefer a blank line at the limit or up
// to five lines before it.
func (c *ASTChunker) splitWindows(lines []string, baseLine int, symbol, summary string) []RawChunk {
	var chunks []RawChunk
	part := 1
	for offset := 0; offset < len(lines); part++ {
		end := offset + c.maxLines
		if end >= len(lines) {
			end = len(lines)
		} else {
			for back := 0; back <= 5 && end-back > offset+1; back++ {
				if strings.TrimSpace(lines[end-back-1]) == "" {
					end -= back
					break
				}
			}
		}

		chunkSummary := ""
		if part == 1 {
			chunkSummary = summary
		}
		chunks = append(chunks, RawChunk{
			Symbol:    fmt.Sprintf("%s#%d", symbol, part),
			StartLine: baseLine + offset,
			EndLine:   baseLine + end - 1,
			Content:   strings.Join(lines[offset:end], "\n"),
			Summary:   chunkSummary,
		})
		offset = end
	}
	return chunks
}

// orphans groups uncovered non-empty lines into contiguous runs, each
// batched into windows of at most maxLines lines with an empty symbol.
func (c *ASTChunker) orphans(lines []string, covered []bool) []RawChunk {
	var chunks []RawChunk
	runStart := -1

	flush := func(end int) { // end is exclusive, 0-based
		if runStart < 0 {
			return
		}
		for offset := runStart; offset < end; offset += c.maxLines {
			stop := offset + c.maxLines
			if stop > end {
				stop = end
			}
			chunks = append(chunks, RawChunk{
				StartLine: offset + 1,
				EndLine:   stop,
				Content:   strings.Join(lines[offset:stop], "\n"),
			})
		}
		runStart = -1
	}

	for i, line := range lines {
		if covered[i+1] || strings.TrimSpace(line) == "" {
			flush(i)
			continue
		}
		if runStart < 0 {
			runStart = i
		}
	}
	flush(len(lines))
	return chunks
}

func markCovered(covered []bool, start, end int) {
	for i := start; i <= end && i < len(covered); i++ {
		covered[i] = true
	}
}

func sortChunks(chunks []RawChunk) {
	// Node and orphan chunks never overlap, so start line is a total order.
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].StartLine < chunks[j].StartLine
	})
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// nameKinds are child node kinds that carry a declaration's name.
var nameKinds = []string{
	"identifier", "type_identifier", "simple_identifier", "name",
	"field_identifier", "property_identifier", "constant", "variable",
}

// wrapperKinds are descended into one level when the name is nested,
// e.g. Go's type_declaration → type_spec → type_identifier.
var wrapperKinds = []string{
	"type_spec", "const_spec", "var_spec", "variable_declarator",
	"function_definition", "class_definition", "lexical_declaration",
}

// nodeName extracts a best-effort identifier for a chunkable node.
func nodeName(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		kind := child.Type()
		if contains(nameKinds, kind) {
			return string(src[child.StartByte():child.EndByte()])
		}
		if contains(wrapperKinds, kind) {
			if name := nodeName(child, src); name != "" {
				return name
			}
		}
	}
	return ""
}
