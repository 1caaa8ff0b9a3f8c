package domain

import "context"

// Embedder converts text into a numeric vector representation. The same
// model must be used at ingest and query time; a mismatch degrades
// relevance with no error signal.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
	Model() string
}

// VectorStore persists chunk vectors and supports filtered similarity
// search under cosine distance.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int, filter Filter) ([]RetrievalHit, error)
}

// Completer invokes a hosted generative model. The returned text is
// unreliable prose, not guaranteed structured output.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

// Classifier maps an utterance to a probability distribution over a
// fixed emotion label set, expressed as percentages.
type Classifier interface {
	Classify(ctx context.Context, text string) (EmotionScores, error)
}

// EventStore lists logged events for a conversation, most recent first.
type EventStore interface {
	ListEvents(ctx context.Context, chatID int64) ([]Event, error)
}
