package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(t *testing.T, received *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*received = append(*received, req.Input)

		type item struct {
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for range req.Input {
			resp.Data = append(resp.Data, item{Embedding: []float32{1, 0}})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestEmbedBatchOneVectorPerInput(t *testing.T) {
	var received [][]string
	srv := newEmbeddingServer(t, &received)
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := EmbeddingConfig{BaseURL: srv.URL, APIKey: "key", Model: "embed-model"}

	vectors, err := client.EmbedBatch(context.Background(), cfg, []string{"real content", "            ", "more content"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Nil(t, vectors[1])
	assert.Equal(t, []float32{1, 0}, vectors[2])

	require.Len(t, received, 1)
	assert.Equal(t, []string{"real content", "more content"}, received[0])
}

func TestEmbedBatchAllBlankSkipsProvider(t *testing.T) {
	var received [][]string
	srv := newEmbeddingServer(t, &received)
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := EmbeddingConfig{BaseURL: srv.URL, APIKey: "key", Model: "embed-model"}

	vectors, err := client.EmbedBatch(context.Background(), cfg, []string{"   ", "\n\t"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Nil(t, vectors[0])
	assert.Nil(t, vectors[1])
	assert.Empty(t, received)
}

func TestEmbedRejectsBlankInput(t *testing.T) {
	client := NewOpenAICompatibleClient()
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: "http://127.0.0.1:0"}, "   ")
	require.Error(t, err)
	assert.False(t, IsRetryableEmbedding(err))
}
