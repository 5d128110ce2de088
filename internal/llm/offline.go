package llm

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// DefaultOfflineDim is the dimensionality of offline embeddings.
const DefaultOfflineDim = 512

// OfflineEmbedder derives vectors deterministically from the input text, so
// embeddings exist without network access or credentials. The vectors carry
// no semantic meaning; the same string always maps to the same unit vector,
// across runs and processes.
type OfflineEmbedder struct {
	Dim int
}

// NewOfflineEmbedder creates an offline embedder with the given
// dimensionality, defaulting when dim is not positive.
func NewOfflineEmbedder(dim int) *OfflineEmbedder {
	if dim <= 0 {
		dim = DefaultOfflineDim
	}
	return &OfflineEmbedder{Dim: dim}
}

// EmbedTexts embeds a batch of texts.
func (e *OfflineEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

// EmbedText embeds a single text. The empty string embeds like any other string.
func (e *OfflineEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// embed seeds a PRNG with a stable 32-bit hash of the string, draws normal
// samples and L2-normalizes the result.
func (e *OfflineEmbedder) embed(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := int64(uint32(h.Sum64()))

	rng := rand.New(rand.NewSource(seed))
	vec := make([]float32, e.Dim)
	var sumSq float64
	for i := range vec {
		v := rng.NormFloat64()
		vec[i] = float32(v)
		sumSq += v * v
	}

	norm := float32(math.Sqrt(sumSq)) + 1e-10
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
