package search

import (
	"sort"

	"maharajah/internal/store"
)

// rrfConstant is the fixed smoothing constant of Reciprocal Rank Fusion.
const rrfConstant = 60

type chunkKey struct {
	filePath string
	chunkID  int
}

// rrfMerge fuses two ranked lists. Each appearance at 1-based rank r
// contributes 1/(60+r); a row missing from a list contributes nothing
// there. The result is sorted by fused score descending, ties broken by
// (file_path, chunk_id) ascending.
func rrfMerge(contentHits, summaryHits []store.SearchResult) []Result {
	fused := make(map[chunkKey]*Result)

	accumulate := func(hits []store.SearchResult) {
		for rank, h := range hits {
			key := chunkKey{h.FilePath, h.ChunkID}
			score := 1.0 / float64(rrfConstant+rank+1)
			if existing, ok := fused[key]; ok {
				existing.Score += score
				continue
			}
			r := fromHit(h, score)
			fused[key] = &r
		}
	}
	accumulate(contentHits)
	accumulate(summaryHits)

	merged := make([]Result, 0, len(fused))
	for _, r := range fused {
		merged = append(merged, *r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if merged[i].FilePath != merged[j].FilePath {
			return merged[i].FilePath < merged[j].FilePath
		}
		return merged[i].chunkID < merged[j].chunkID
	})
	return merged
}
