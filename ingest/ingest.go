// Package ingest prepares documents for retrieval: clean, chunk, embed
// and index. Chunks overlap so answers spanning a boundary stay
// retrievable.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sweetpotato0/transagent/pkg/logging"
	"github.com/sweetpotato0/transagent/vector"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
)

// Writer is the indexing side of a vector store.
type Writer interface {
	Add(ctx context.Context, id, text string, embedding []float32) error
}

// Chunker splits text into overlapping rune windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Non-positive size falls back to the
// default; overlap is clamped below size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk splits text into windows of the configured size. Blank input
// yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// CleanHTML extracts readable text from an HTML document, dropping
// script and style content and collapsing whitespace.
func CleanHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// Indexer chunks documents, embeds each chunk and writes it to a vector
// store.
type Indexer struct {
	embedder vector.Embedder
	store    Writer
	chunker  *Chunker
	logger   *slog.Logger
}

// Option configures the indexer
type Option func(*Indexer)

// WithChunker overrides the default chunker.
func WithChunker(c *Chunker) Option {
	return func(i *Indexer) {
		if c != nil {
			i.chunker = c
		}
	}
}

// NewIndexer creates a document indexer.
func NewIndexer(embedder vector.Embedder, store Writer, opts ...Option) *Indexer {
	i := &Indexer{
		embedder: embedder,
		store:    store,
		chunker:  NewChunker(defaultChunkSize, defaultChunkOverlap),
		logger:   logging.WithComponent("ingest"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IndexText chunks and indexes a plain-text document under the given ID.
// It returns the number of chunks written.
func (i *Indexer) IndexText(ctx context.Context, docID, text string) (int, error) {
	chunks := i.chunker.Chunk(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := i.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document %q: %w", docID, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	for n, chunk := range chunks {
		id := fmt.Sprintf("%s#%d", docID, n)
		if err := i.store.Add(ctx, id, chunk, embeddings[n]); err != nil {
			return n, fmt.Errorf("failed to index chunk %q: %w", id, err)
		}
	}

	i.logger.Info("document indexed",
		slog.String("doc_id", docID),
		slog.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// IndexHTML cleans an HTML document and indexes the extracted text.
func (i *Indexer) IndexHTML(ctx context.Context, docID string, r io.Reader) (int, error) {
	text, err := CleanHTML(r)
	if err != nil {
		return 0, err
	}
	return i.IndexText(ctx, docID, text)
}
