package store

import (
	"context"
	"sync"

	"github.com/sweetpotato0/transagent/memory"
	"github.com/sweetpotato0/transagent/message"
)

// InMemoryStore keeps conversation history in process memory. Each chat
// owns its own lock so concurrent chats never contend.
type InMemoryStore struct {
	mu     sync.RWMutex
	chats  map[string]*chatHistory
	window int
}

type chatHistory struct {
	mu       sync.Mutex
	messages []*message.Message
}

// NewInMemoryStore creates a store trimming each chat to window messages.
// A non-positive window falls back to memory.DefaultWindow.
func NewInMemoryStore(window int) *InMemoryStore {
	if window <= 0 {
		window = memory.DefaultWindow
	}
	return &InMemoryStore{
		chats:  make(map[string]*chatHistory),
		window: window,
	}
}

func (s *InMemoryStore) chat(chatID string) *chatHistory {
	s.mu.RLock()
	ch, ok := s.chats[chatID]
	s.mu.RUnlock()
	if ok {
		return ch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok = s.chats[chatID]; ok {
		return ch
	}
	ch = &chatHistory{}
	s.chats[chatID] = ch
	return ch
}

// History returns a copy of the chat's messages, oldest first.
func (s *InMemoryStore) History(ctx context.Context, chatID string) ([]*message.Message, error) {
	s.mu.RLock()
	ch, ok := s.chats[chatID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	return message.CloneMessages(ch.messages), nil
}

// AppendExchange records the question and answer together, then trims
// the history to the window.
func (s *InMemoryStore) AppendExchange(ctx context.Context, chatID string, question, answer *message.Message) error {
	ch := s.chat(chatID)

	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.messages = append(ch.messages, message.Clone(question), message.Clone(answer))
	if over := len(ch.messages) - s.window; over > 0 {
		ch.messages = append([]*message.Message(nil), ch.messages[over:]...)
	}
	return nil
}

// Clear removes the chat's history.
func (s *InMemoryStore) Clear(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, chatID)
	return nil
}
