package vector

import (
	"context"
	"math"
)

// Match is a single similarity-search hit.
type Match struct {
	ID    string
	Text  string
	Score float32
}

// Store defines the similarity-search capability the retrieval stage
// consumes. Implementations return matches ordered by descending score;
// equally scored matches keep their insertion order.
type Store interface {
	// Add stores a text with its embedding under the given id.
	Add(ctx context.Context, id, text string, embedding []float32) error

	// FindRelevant returns at most maxResults matches whose score is at
	// least minScore, best first.
	FindRelevant(ctx context.Context, embedding []float32, maxResults int, minScore float32) ([]Match, error)

	// Delete removes an entry by id.
	Delete(ctx context.Context, id string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB)))
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
