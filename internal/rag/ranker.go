package rag

import (
	"math"
	"sort"

	"secop-rag/internal/storage"
)

// simEpsilon guards division by zero for zero vectors.
const simEpsilon = 1e-9

// ScoredChunk is a stored chunk paired with its similarity to a query.
type ScoredChunk struct {
	Score   float64
	ChunkID int64
	DocID   int64
	Ord     int
	Text    string
	Titulo  string
}

// RankBySimilarity scores every stored chunk against the query vector by
// cosine similarity and returns the chunks sorted by descending score.
// Ties keep the original storage order (stable sort). An empty store yields
// an empty result, which callers must treat as "no documents available".
//
// This is a deliberate O(N·D) full scan with no index; it is sized for a
// single-tenant store, not for more than low tens of thousands of chunks.
func RankBySimilarity(query []float32, items []storage.ChunkVector) []ScoredChunk {
	if len(items) == 0 {
		return nil
	}

	qNorm := vectorNorm(query) + simEpsilon

	out := make([]ScoredChunk, 0, len(items))
	for _, item := range items {
		sim := dot(query, item.Embedding) / (qNorm * (vectorNorm(item.Embedding) + simEpsilon))
		out = append(out, ScoredChunk{
			Score:   sim,
			ChunkID: item.ChunkID,
			DocID:   item.DocID,
			Ord:     item.Ord,
			Text:    item.Text,
			Titulo:  item.Titulo,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
