package agent

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

const embedQueryRetries = 2

// Retriever embeds a query once and searches the vector store under the
// caller's scope.
type Retriever struct {
	embedder Embedder
	store    vectorstore.Store
	topK     int
}

func NewRetriever(embedder Embedder, store vectorstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns the top passages for query within scope, best first.
// Zero-similarity results are dropped rather than padded out to topK.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope vectorstore.Scope) ([]vectorstore.Result, error) {
	var vector []float32
	op := func() error {
		v, err := r.embedder.Embed(ctx, query)
		if err != nil {
			if !ai.IsRetryableEmbedding(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		vector = v
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), embedQueryRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	results, err := r.store.Search(ctx, scope, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	filtered := results[:0]
	for _, res := range results {
		if res.Score > 0 {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}
