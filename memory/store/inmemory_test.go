package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sweetpotato0/transagent/memory"
)

func TestInMemoryStoreAppendAndHistory(t *testing.T) {
	s := NewInMemoryStore(10)
	ctx := context.Background()

	q, a := memory.NewExchange("Quel est le solde du compte 42 ?", "Le solde du compte 42 est de 150.00")
	if err := s.AppendExchange(ctx, "chat-1", q, a); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	history, err := s.History(ctx, "chat-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Content != q.Content {
		t.Errorf("question = %q, want %q", history[0].Content, q.Content)
	}
	if history[1].Content != a.Content {
		t.Errorf("answer = %q, want %q", history[1].Content, a.Content)
	}
}

func TestInMemoryStoreUnknownChat(t *testing.T) {
	s := NewInMemoryStore(10)

	history, err := s.History(context.Background(), "missing")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d messages", len(history))
	}
}

func TestInMemoryStoreWindowTrims(t *testing.T) {
	s := NewInMemoryStore(4)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q, a := memory.NewExchange(fmt.Sprintf("question %d", i), fmt.Sprintf("réponse %d", i))
		if err := s.AppendExchange(ctx, "chat-1", q, a); err != nil {
			t.Fatalf("AppendExchange: %v", err)
		}
	}

	history, err := s.History(ctx, "chat-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 messages after trim, got %d", len(history))
	}
	if history[0].Content != "question 3" {
		t.Errorf("oldest kept = %q, want %q", history[0].Content, "question 3")
	}
	if history[3].Content != "réponse 4" {
		t.Errorf("newest = %q, want %q", history[3].Content, "réponse 4")
	}
}

func TestInMemoryStoreChatIsolation(t *testing.T) {
	s := NewInMemoryStore(10)
	ctx := context.Background()

	q1, a1 := memory.NewExchange("q1", "a1")
	q2, a2 := memory.NewExchange("q2", "a2")
	if err := s.AppendExchange(ctx, "chat-1", q1, a1); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}
	if err := s.AppendExchange(ctx, "chat-2", q2, a2); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	if err := s.Clear(ctx, "chat-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	h1, _ := s.History(ctx, "chat-1")
	if len(h1) != 0 {
		t.Errorf("chat-1 should be empty after Clear, got %d messages", len(h1))
	}
	h2, _ := s.History(ctx, "chat-2")
	if len(h2) != 2 {
		t.Errorf("chat-2 should keep its history, got %d messages", len(h2))
	}
}

func TestInMemoryStoreConcurrentAppends(t *testing.T) {
	s := NewInMemoryStore(100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			q, a := memory.NewExchange(fmt.Sprintf("q%d", n), fmt.Sprintf("a%d", n))
			if err := s.AppendExchange(ctx, "chat-1", q, a); err != nil {
				t.Errorf("AppendExchange: %v", err)
			}
		}(i)
	}
	wg.Wait()

	history, err := s.History(ctx, "chat-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 40 {
		t.Fatalf("expected 40 messages, got %d", len(history))
	}
	// exchanges stay paired even under concurrency
	for i := 0; i < len(history); i += 2 {
		if history[i].Content[0] != 'q' || history[i+1].Content[0] != 'a' {
			t.Fatalf("exchange at %d interleaved: %q then %q", i, history[i].Content, history[i+1].Content)
		}
	}
}

func TestInMemoryStoreHistoryIsCopy(t *testing.T) {
	s := NewInMemoryStore(10)
	ctx := context.Background()

	q, a := memory.NewExchange("q", "a")
	if err := s.AppendExchange(ctx, "chat-1", q, a); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	history, _ := s.History(ctx, "chat-1")
	history[0].Content = "mutated"

	again, _ := s.History(ctx, "chat-1")
	if again[0].Content != "q" {
		t.Errorf("stored message mutated through History result")
	}
}
