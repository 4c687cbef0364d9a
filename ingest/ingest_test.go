package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/transagent/contrib/vector/inmemory"
)

type countingEmbedder struct {
	batches int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batches++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int { return 1 }

func TestChunkerShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100, 10)
	chunks := c.Chunk("un texte court")
	if len(chunks) != 1 || chunks[0] != "un texte court" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(100, 10)
	if chunks := c.Chunk("   \n  "); chunks != nil {
		t.Errorf("expected no chunks, got %v", chunks)
	}
}

func TestChunkerOverlap(t *testing.T) {
	c := NewChunker(10, 4)
	text := "abcdefghijklmnopqrst" // 20 runes
	chunks := c.Chunk(text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "abcdefghij" {
		t.Errorf("chunk 0 = %q", chunks[0])
	}
	if chunks[1] != "ghijklmnop" {
		t.Errorf("chunk 1 = %q", chunks[1])
	}
	if chunks[2] != "mnopqrst" {
		t.Errorf("chunk 2 = %q", chunks[2])
	}
}

func TestChunkerRuneSafety(t *testing.T) {
	c := NewChunker(5, 0)
	text := strings.Repeat("é", 12)
	chunks := c.Chunk(text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if strings.Contains(chunk, "�") {
			t.Errorf("chunk %d contains replacement rune: %q", i, chunk)
		}
	}
}

func TestCleanHTML(t *testing.T) {
	html := `<html><head><style>body{color:red}</style></head>
<body><h1>Titre</h1><script>alert("x")</script><p>Premier   paragraphe.</p><p>Second.</p></body></html>`

	text, err := CleanHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("CleanHTML: %v", err)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color:red") {
		t.Errorf("script/style content leaked: %q", text)
	}
	if !strings.Contains(text, "Titre") || !strings.Contains(text, "Premier paragraphe.") {
		t.Errorf("text content missing: %q", text)
	}
}

func TestIndexText(t *testing.T) {
	embedder := &countingEmbedder{}
	store := inmemory.NewInMemoryVectorStore()
	indexer := NewIndexer(embedder, store, WithChunker(NewChunker(10, 0)))

	n, err := indexer.IndexText(context.Background(), "doc-1", "abcdefghijklmnopqrst")
	if err != nil {
		t.Fatalf("IndexText: %v", err)
	}
	if n != 2 {
		t.Errorf("chunks written = %d, want 2", n)
	}
	if embedder.batches != 1 {
		t.Errorf("EmbedBatch calls = %d, want 1", embedder.batches)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("store count = %d, want 2", count)
	}
}

func TestIndexTextEmpty(t *testing.T) {
	indexer := NewIndexer(&countingEmbedder{}, inmemory.NewInMemoryVectorStore())

	n, err := indexer.IndexText(context.Background(), "doc-1", "")
	if err != nil {
		t.Fatalf("IndexText: %v", err)
	}
	if n != 0 {
		t.Errorf("chunks written = %d, want 0", n)
	}
}

func TestIndexHTML(t *testing.T) {
	embedder := &countingEmbedder{}
	store := inmemory.NewInMemoryVectorStore()
	indexer := NewIndexer(embedder, store)

	n, err := indexer.IndexHTML(context.Background(), "page-1",
		strings.NewReader("<html><body><p>Contenu de la page.</p></body></html>"))
	if err != nil {
		t.Fatalf("IndexHTML: %v", err)
	}
	if n != 1 {
		t.Errorf("chunks written = %d, want 1", n)
	}
}
