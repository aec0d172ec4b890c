// Package embed converts text into dense vectors via a local model server,
// with a single actor serializing access to the shared model.
package embed

import "context"

// Role marks whether a text is being encoded as indexed content or as a
// retrieval prompt. Query embeddings get the model's retrieval prefix.
type Role string

const (
	RoleDocument Role = "document"
	RoleQuery    Role = "query"
)

// QueryPrefix is the retrieval instruction CodeRankEmbed expects in front
// of query text. Document text is embedded raw.
const QueryPrefix = "Represent this query for searching relevant code: "

// Embedder converts texts into fixed-dimension vectors. Output order
// matches input order. Implementations serialize concurrent calls.
type Embedder interface {
	Embed(ctx context.Context, texts []string, role Role) ([][]float32, error)
	Dimension() int
	ModelID() string
}
