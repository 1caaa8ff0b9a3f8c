package retrieval

import (
	"context"
	"fmt"
	"strings"

	"dodam/internal/domain"
)

// NoDocumentsFound is returned when nothing in the store matches the
// filter. Callers display it as-is; absence of knowledge is a valid
// outcome, not an error.
const NoDocumentsFound = "- 관련 문서를 찾지 못했습니다."

// Retriever embeds a query and performs filtered top-k similarity
// search, formatting the hits into a single context string.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	topK     int
}

func NewRetriever(embedder domain.Embedder, store domain.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns the formatted context for a query, restricted to the
// given category and, when non-empty, section. Hits keep the store's
// relevance ordering, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query, category, section string) (string, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Search(ctx, vec, r.topK, domain.Filter{Category: category, Section: section})
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return NoDocumentsFound, nil
	}
	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		lines = append(lines, fmt.Sprintf("- %s\n(출처: %s)", h.Text, h.Source))
	}
	return strings.Join(lines, "\n\n"), nil
}
