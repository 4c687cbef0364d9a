package ollama

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/llm"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Provider) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(&Config{BaseURL: server.URL, Model: "mistral"})
}

func TestGenerate(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream must be disabled")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message: ollamaMessage{Role: "assistant", Content: "Le solde est de 150.00"},
		})
	})

	resp, err := provider.Generate(context.Background(), llm.NewRequest("système", "question"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Message.Text() != "Le solde est de 150.00" {
		t.Errorf("response = %q", resp.Message.Text())
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{
			Message: ollamaMessage{Role: "assistant", Content: ""},
		})
	})

	_, err := provider.Generate(context.Background(), llm.NewRequest("système", "question"))
	if !stderrors.Is(err, errors.ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestGenerateAPIError(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Error: "model not found"})
	})

	_, err := provider.Generate(context.Background(), llm.NewRequest("système", "question"))
	if err == nil {
		t.Fatal("expected error")
	}
	if stderrors.Is(err, errors.ErrEmptyResponse) {
		t.Error("api error must not be reported as empty response")
	}
}

func TestGenerateHTTPError(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := provider.Generate(context.Background(), llm.NewRequest("système", "question")); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestGenerateNilRequest(t *testing.T) {
	provider := New(nil)
	if _, err := provider.Generate(context.Background(), nil); err == nil {
		t.Fatal("expected error on nil request")
	}
}
