// Package ingest runs the document processing pipeline: parse, chunk,
// embed, index. The pipeline is an explicit state machine so a failure
// reports the stage it died in, and so the synchronous entry point can be
// moved behind a queue later without changing the contract.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
	"github.com/dungca200/rag-chatbot-sub000/internal/chunker"
	"github.com/dungca200/rag-chatbot-sub000/internal/parser"
	"github.com/dungca200/rag-chatbot-sub000/internal/pkg/logger"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

// Stage identifies how far an upload made it through the pipeline.
type Stage string

const (
	StageReceived Stage = "received"
	StageParsed   Stage = "parsed"
	StageChunked  Stage = "chunked"
	StageEmbedded Stage = "embedded"
	StageIndexed  Stage = "indexed"
)

var ErrInvalidUpload = errors.New("invalid upload")

// StageError wraps a pipeline failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingest failed at stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Embedder is the slice of the AI client the pipeline needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Options struct {
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
	MaxRetries     int
}

type Processor struct {
	embedder Embedder
	store    vectorstore.Store
	opts     Options
}

func NewProcessor(embedder Embedder, store vectorstore.Store, opts Options) *Processor {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunker.DefaultSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = 10
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &Processor{embedder: embedder, store: store, opts: opts}
}

// Upload is one file to ingest. Persist=false ties the chunks to the
// conversation; Persist=true indexes them into the owner's permanent
// library.
type Upload struct {
	OwnerID        uint
	ConversationID uint
	FileName       string
	MediaType      string
	Data           []byte
	Persist        bool
}

type Result struct {
	DocumentKey       string
	ChunkCount        int
	Stage             Stage
	LowConfidenceRows int
}

// DocumentKey derives the stable content-addressed key for a file. The same
// bytes always map to the same key, which is what makes re-ingestion
// idempotent.
func DocumentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:32]
}

// Process runs the full pipeline. Chunks are written under a staging key
// and only published to the document key once every chunk is indexed, so a
// failure at any stage leaves nothing visible to retrieval.
func (p *Processor) Process(ctx context.Context, upload Upload) (*Result, error) {
	if upload.OwnerID == 0 || len(upload.Data) == 0 {
		return nil, &StageError{Stage: StageReceived, Err: ErrInvalidUpload}
	}
	if !upload.Persist && upload.ConversationID == 0 {
		return nil, &StageError{Stage: StageReceived, Err: fmt.Errorf("%w: session-only upload without a conversation", ErrInvalidUpload)}
	}

	declaredType := upload.MediaType
	if declaredType == "" {
		declaredType = upload.FileName
	}

	segments, err := parser.Parse(upload.Data, declaredType)
	if err != nil {
		return nil, &StageError{Stage: StageParsed, Err: err}
	}

	entries, lowConfidence := p.chunkSegments(segments, upload.FileName)
	if len(entries) == 0 {
		return nil, &StageError{Stage: StageChunked, Err: errors.New("no passages produced")}
	}

	if err := p.embedEntries(ctx, entries); err != nil {
		return nil, &StageError{Stage: StageEmbedded, Err: err}
	}

	scope := vectorstore.Scope{UserID: upload.OwnerID}
	if !upload.Persist {
		scope.ConversationID = upload.ConversationID
	}

	documentKey := DocumentKey(upload.Data)
	stagingKey := "staging-" + uuid.NewString()

	if err := p.store.Upsert(ctx, scope, stagingKey, entries); err != nil {
		return nil, &StageError{Stage: StageIndexed, Err: err}
	}
	if err := p.store.Publish(ctx, scope, stagingKey, documentKey); err != nil {
		// Drop the staged rows so a retried upload starts clean.
		if cleanupErr := p.store.Delete(context.WithoutCancel(ctx), scope, stagingKey); cleanupErr != nil {
			logger.Warnf("ingest: cleanup staged chunks for %s failed: %v", stagingKey, cleanupErr)
		}
		return nil, &StageError{Stage: StageIndexed, Err: err}
	}

	return &Result{
		DocumentKey:       documentKey,
		ChunkCount:        len(entries),
		Stage:             StageIndexed,
		LowConfidenceRows: lowConfidence,
	}, nil
}

func (p *Processor) chunkSegments(segments []parser.Segment, documentName string) ([]vectorstore.Entry, int) {
	var entries []vectorstore.Entry
	lowConfidence := 0
	for _, seg := range segments {
		marker := seg.Marker
		if seg.LowConfidence {
			lowConfidence++
			marker = flagLowConfidence(marker)
		}
		for _, passage := range chunker.Split(seg.Text, p.opts.ChunkSize, p.opts.ChunkOverlap) {
			// Long whitespace runs in layout-heavy extractions can yield
			// blank passages; they carry nothing worth indexing.
			if strings.TrimSpace(passage.Text) == "" {
				continue
			}
			entries = append(entries, vectorstore.Entry{
				Ordinal:      len(entries),
				Content:      passage.Text,
				Marker:       marker,
				DocumentName: documentName,
			})
		}
	}
	return entries, lowConfidence
}

func flagLowConfidence(marker string) string {
	if marker == "" {
		return "low confidence"
	}
	return marker + " (low confidence)"
}

// embedEntries fills in the vectors batch by batch, retrying transient
// provider failures with exponential backoff. Terminal embedding errors
// abort immediately.
func (p *Processor) embedEntries(ctx context.Context, entries []vectorstore.Entry) error {
	for start := 0; start < len(entries); start += p.opts.EmbedBatchSize {
		end := start + p.opts.EmbedBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, e.Content)
		}

		var vectors [][]float32
		operation := func() error {
			var embedErr error
			vectors, embedErr = p.embedder.EmbedBatch(ctx, texts)
			if embedErr != nil && !ai.IsRetryableEmbedding(embedErr) {
				return backoff.Permanent(embedErr)
			}
			return embedErr
		}

		policy := backoff.WithContext(newRetryPolicy(p.opts.MaxRetries), ctx)
		if err := backoff.Retry(operation, policy); err != nil {
			return fmt.Errorf("embed batch starting at %d failed: %w", start, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embed batch starting at %d returned %d vectors for %d texts", start, len(vectors), len(texts))
		}
		for i := range vectors {
			entries[start+i].Vector = vectors[i]
		}
	}
	return nil
}

func newRetryPolicy(maxRetries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return backoff.WithMaxRetries(b, uint64(maxRetries))
}
