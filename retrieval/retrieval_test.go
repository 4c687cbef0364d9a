package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sweetpotato0/transagent/vector"
)

// stubEmbedder returns a fixed vector per input text so the store stub
// can distinguish queries.
type stubEmbedder struct {
	calls []string
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls = append(e.calls, text)
	return []float32{float32(len(text))}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int { return 1 }

type searchCall struct {
	maxResults int
	minScore   float32
}

// stubStore answers a scripted response per call index
type stubStore struct {
	calls   []searchCall
	answers func(call int) []vector.Match
}

func (s *stubStore) Add(ctx context.Context, id, text string, embedding []float32) error { return nil }
func (s *stubStore) Delete(ctx context.Context, id string) error                         { return nil }
func (s *stubStore) Clear(ctx context.Context) error                                     { return nil }
func (s *stubStore) Count(ctx context.Context) (int, error)                              { return 0, nil }

func (s *stubStore) FindRelevant(ctx context.Context, embedding []float32, maxResults int, minScore float32) ([]vector.Match, error) {
	call := len(s.calls)
	s.calls = append(s.calls, searchCall{maxResults: maxResults, minScore: minScore})
	if s.answers == nil {
		return nil, nil
	}
	return s.answers(call), nil
}

func passage(text string) []vector.Match {
	return []vector.Match{{ID: "p1", Text: text, Score: 0.8}}
}

func TestSearchFirstThresholdHit(t *testing.T) {
	store := &stubStore{answers: func(call int) []vector.Match {
		return passage("Conclusion: X improves Y by 10%.")
	}}
	r := New(&stubEmbedder{}, store)

	got := r.Search(context.Background(), "Summarize the conclusions")
	if !strings.Contains(got, "【 Extrait 1 】") {
		t.Errorf("context missing numbered block: %q", got)
	}
	if !strings.Contains(got, "Conclusion: X improves Y by 10%.") {
		t.Errorf("context missing passage text: %q", got)
	}
	if len(store.calls) != 1 {
		t.Errorf("expected a single store call, got %d", len(store.calls))
	}
	if store.calls[0].minScore != 0.0 || store.calls[0].maxResults != 30 {
		t.Errorf("unexpected first call: %+v", store.calls[0])
	}
}

func TestSearchThresholdLadderOrder(t *testing.T) {
	// Nothing until the widened search
	store := &stubStore{answers: func(call int) []vector.Match {
		if call == 5 {
			return passage("late hit")
		}
		return nil
	}}
	r := New(&stubEmbedder{}, store)

	got := r.Search(context.Background(), "question sans réponse directe")
	if !strings.Contains(got, "late hit") {
		t.Fatalf("expected widened search hit, got %q", got)
	}

	wantScores := []float32{0.0, 0.1, 0.2, 0.3, 0.5, 0.0}
	if len(store.calls) != len(wantScores) {
		t.Fatalf("expected %d calls, got %d", len(wantScores), len(store.calls))
	}
	for i, want := range wantScores {
		if store.calls[i].minScore != want {
			t.Errorf("call %d minScore = %v, want %v", i, store.calls[i].minScore, want)
		}
	}
	if store.calls[5].maxResults != 100 {
		t.Errorf("widened call maxResults = %d, want 100", store.calls[5].maxResults)
	}
}

func TestSearchKeywordFallback(t *testing.T) {
	embedder := &stubEmbedder{}
	// Thresholds (5) + widened (1) miss; the first keyword query hits.
	store := &stubStore{answers: func(call int) []vector.Match {
		if call == 6 {
			return passage("keyword passage")
		}
		return nil
	}}
	r := New(embedder, store)

	got := r.Search(context.Background(), "le questionnaire spécifique")
	if !strings.Contains(got, "keyword passage") {
		t.Fatalf("expected keyword hit, got %q", got)
	}
	if store.calls[6].maxResults != 20 || store.calls[6].minScore != 0.0 {
		t.Errorf("unexpected keyword call: %+v", store.calls[6])
	}

	// "le" is a stopword and too short; "questionnaire" is the first
	// embedded keyword after the question itself.
	if embedder.calls[1] != "questionnaire" {
		t.Errorf("first keyword embedded = %q, want %q", embedder.calls[1], "questionnaire")
	}
}

func TestSearchEmptyEverywhere(t *testing.T) {
	store := &stubStore{}
	r := New(&stubEmbedder{}, store)

	if got := r.Search(context.Background(), "rien à trouver ici"); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}

	// The absolute fallback must have been reached
	last := store.calls[len(store.calls)-1]
	if last.minScore != -10.0 || last.maxResults != 1000 {
		t.Errorf("unexpected final fallback call: %+v", last)
	}
}

func TestSearchNilDependencies(t *testing.T) {
	r := New(nil, nil)
	if got := r.Search(context.Background(), "question"); got != "" {
		t.Errorf("expected empty context without dependencies, got %q", got)
	}
}

func TestSearchIdempotent(t *testing.T) {
	mk := func() *Retriever {
		store := &stubStore{answers: func(call int) []vector.Match {
			return passage("stable passage")
		}}
		return New(&stubEmbedder{}, store)
	}
	first := mk().Search(context.Background(), "même question")
	second := mk().Search(context.Background(), "même question")
	if first != second {
		t.Error("search output changed between identical invocations")
	}
}

func TestBuildContextTruncatesPassages(t *testing.T) {
	long := strings.Repeat("x", 6000)
	store := &stubStore{answers: func(call int) []vector.Match {
		return passage(long)
	}}
	r := New(&stubEmbedder{}, store)

	got := r.Search(context.Background(), "question")
	if strings.Contains(got, long) {
		t.Error("passage was not truncated")
	}
	if !strings.Contains(got, strings.Repeat("x", 5000)+"...") {
		t.Error("expected truncated passage with ellipsis")
	}
}

func TestBuildContextNumbersPassages(t *testing.T) {
	store := &stubStore{answers: func(call int) []vector.Match {
		return []vector.Match{
			{ID: "a", Text: "premier", Score: 0.9},
			{ID: "b", Text: "deuxième", Score: 0.8},
			{ID: "c", Text: "   ", Score: 0.7},
		}
	}}
	r := New(&stubEmbedder{}, store)

	got := r.Search(context.Background(), "question")
	for _, want := range []string{"【 Extrait 1 】", "【 Extrait 2 】"} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q", want)
		}
	}
	// Blank passages are skipped, not numbered
	if strings.Contains(got, "【 Extrait 3 】") {
		t.Error("blank passage should not be numbered")
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	text := strings.Repeat("é", 10)
	got := truncate(text, 5)
	if got != strings.Repeat("é", 5)+"..." {
		t.Errorf("truncate = %q", got)
	}
	for i, r := range got {
		if r == '�' {
			t.Fatalf("invalid rune at %d", i)
		}
	}
}

func TestSearchGenericTermSubsets(t *testing.T) {
	embedder := &stubEmbedder{}
	store := &stubStore{}
	r := New(embedder, store)

	r.Search(context.Background(), "analyse des données")

	joined := fmt.Sprint(embedder.calls)
	if !strings.Contains(joined, "analyse de données") {
		t.Errorf("expected data-analysis generic terms to be tried, calls: %v", embedder.calls)
	}
	if strings.Contains(joined, "machine learning") {
		t.Errorf("expected the specific subset, not the full generic list, calls: %v", embedder.calls)
	}
}
