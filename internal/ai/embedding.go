package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmbeddingConfig holds API settings for text-embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// EmbeddingError distinguishes transient provider failures (worth retrying)
// from terminal ones. Network errors, 429 and 5xx are retryable; other
// non-2xx statuses are not.
type EmbeddingError struct {
	Retryable bool
	Err       error
}

func (e *EmbeddingError) Error() string {
	return e.Err.Error()
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// IsRetryableEmbedding reports whether err is a retryable embedding failure.
func IsRetryableEmbedding(err error) bool {
	var ee *EmbeddingError
	return errors.As(err, &ee) && ee.Retryable
}

func embeddingStatusError(status int, body []byte) error {
	return &EmbeddingError{
		Retryable: status == http.StatusTooManyRequests || status >= 500,
		Err:       fmt.Errorf("embedding response status %d: %s", status, string(body)),
	}
}

// Embed returns the embedding vector for the given text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, cfg EmbeddingConfig, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &EmbeddingError{Err: errors.New("embedding input is empty")}
	}

	vectors, err := c.requestEmbeddings(ctx, cfg, text, 30*time.Second)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, &EmbeddingError{Err: errors.New("empty embedding in response")}
	}
	return vectors[0], nil
}

// EmbedBatch returns embeddings for multiple texts in one call. The result
// always has one entry per input text: blank inputs are never sent to the
// provider and come back as nil vectors, so callers can rely on positional
// alignment.
func (c *OpenAICompatibleClient) EmbedBatch(ctx context.Context, cfg EmbeddingConfig, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	inputs := make([]string, 0, len(texts))
	positions := make([]int, 0, len(texts))
	for i, t := range texts {
		if s := strings.TrimSpace(t); s != "" {
			inputs = append(inputs, s)
			positions = append(positions, i)
		}
	}
	result := make([][]float32, len(texts))
	if len(inputs) == 0 {
		return result, nil
	}

	vectors, err := c.requestEmbeddings(ctx, cfg, inputs, 60*time.Second)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(inputs) {
		return nil, &EmbeddingError{Err: fmt.Errorf("embedding count mismatch: sent %d, got %d", len(inputs), len(vectors))}
	}
	for i, pos := range positions {
		result[pos] = vectors[i]
	}
	return result, nil
}

// requestEmbeddings posts input (string or []string) to the /embeddings
// endpoint and returns the vectors in request order.
func (c *OpenAICompatibleClient) requestEmbeddings(ctx context.Context, cfg EmbeddingConfig, input interface{}, timeout time.Duration) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": cfg.Model,
		"input": input,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("marshal embedding request failed: %w", err)}
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("build embedding request failed: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &EmbeddingError{Retryable: true, Err: fmt.Errorf("embedding request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EmbeddingError{Retryable: true, Err: fmt.Errorf("read embedding response failed: %w", err)}
	}
	if resp.StatusCode >= 300 {
		return nil, embeddingStatusError(resp.StatusCode, raw)
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("parse embedding json failed: %w", err)}
	}
	result := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		result[i] = parsed.Data[i].Embedding
	}
	return result, nil
}

// Embedder binds an EmbeddingConfig the way ChatModel binds a ChatConfig.
type Embedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig) *Embedder {
	return &Embedder{client: client, cfg: cfg}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.client.Embed(ctx, e.cfg, text)
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.client.EmbedBatch(ctx, e.cfg, texts)
}
