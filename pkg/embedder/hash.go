package embedder

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// HashClient embeds text offline by hashing word unigrams and bigrams into a
// fixed number of signed buckets. Output is L2-normalized and deterministic.
type HashClient struct {
	dim int
}

func NewHashClient(dim int) *HashClient {
	if dim <= 0 {
		dim = 512
	}
	return &HashClient{dim: dim}
}

// Dim returns the vector length
func (h *HashClient) Dim() int {
	return h.dim
}

// CreateEmbedding implements embeddings.EmbedderClient
func (h *HashClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h *HashClient) embed(text string) []float32 {
	acc := make([]float64, h.dim)

	tokens := tokenize(text)
	for i, tok := range tokens {
		h.add(acc, tok)
		if i > 0 {
			h.add(acc, tokens[i-1]+" "+tok)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, h.dim)
	for i, v := range acc {
		if norm > 0 {
			v /= norm
		}
		vec[i] = float32(v)
	}
	return vec
}

func (h *HashClient) add(acc []float64, feature string) {
	sum := xxhash.Sum64String(feature)
	idx := sum % uint64(h.dim)
	// top bit picks the sign so collisions tend to cancel
	if sum>>63 == 1 {
		acc[idx]--
	} else {
		acc[idx]++
	}
}

// tokenize lowercases text and splits it into words, keeping @mentions,
// #hashtags and apostrophes attached
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '@' || r == '#' || r == '\'')
	})
}
