// Package embeddings defines the Provider interface for vector embedding backends.
//
// An embeddings provider maps text strings to dense float32 vectors. Protokoll
// uses these vectors to index transcript segments in pgvector so that meetings
// can be searched semantically ("what did we decide about the rollout?") rather
// than by keyword only.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by a single Provider instance share the dimensionality
// reported by Dimensions. Vectors from different instances must not be mixed
// in one similarity computation unless both use the same model and space —
// the transcript index stores the model ID alongside each vector for this
// reason.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed computes the embedding vector for a single text string. Returns a
	// float32 slice of length Dimensions() or an error if the request fails or
	// ctx is cancelled. Text is passed through verbatim; any model-specific
	// prefixing is the caller's responsibility.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes embedding vectors for a slice of texts in a single
	// provider call. The returned slice has the same length as texts with the
	// i-th element corresponding to texts[i]. On error the entire result is
	// nil; partial results are not returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider, constant for the lifetime of the instance.
	Dimensions() int

	// ModelID returns the provider-specific model identifier
	// (e.g. "text-embedding-3-small"). Stored with indexed vectors and used
	// for logging.
	ModelID() string
}
