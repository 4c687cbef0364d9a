package verify

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sweetpotato0/transagent/llm"
	"github.com/sweetpotato0/transagent/message"
)

// axisLLM answers each axis with a fixed reply, keyed off the system prompt
type axisLLM struct {
	coherence     string
	hallucination string
	relevance     string
	corrected     string
	correctionErr error
	calls         []string
}

func (a *axisLLM) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	var system string
	for _, msg := range req.Messages {
		if msg.Role == message.RoleSystem {
			system = msg.Content
		}
	}

	var reply string
	switch {
	case strings.Contains(system, "cohérence"):
		a.calls = append(a.calls, "coherence")
		reply = a.coherence
	case strings.Contains(system, "hallucinations"):
		a.calls = append(a.calls, "hallucination")
		reply = a.hallucination
	case strings.Contains(system, "pertinence"):
		a.calls = append(a.calls, "relevance")
		reply = a.relevance
	case strings.Contains(system, "correction"):
		a.calls = append(a.calls, "correction")
		if a.correctionErr != nil {
			return nil, a.correctionErr
		}
		reply = a.corrected
	}
	return &llm.GenerateResponse{Message: message.NewMessage(message.RoleAssistant, reply)}, nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestVerifyHighScoresNoCorrection(t *testing.T) {
	client := &axisLLM{coherence: "0.9", hallucination: "0.9", relevance: "0.9"}
	v := New(client)

	result := v.Verify(context.Background(), "question", "réponse", "contexte")

	if !almostEqual(result.Confidence, 0.9) {
		t.Errorf("Confidence = %v, want 0.9", result.Confidence)
	}
	if result.NeedsCorrection {
		t.Error("high scores must not trigger correction")
	}
	if len(result.Issues) != 0 {
		t.Errorf("unexpected issues: %v", result.Issues)
	}
	for _, call := range client.calls {
		if call == "correction" {
			t.Error("correction call must not be made")
		}
	}
}

func TestVerifyHallucinationTriggersCorrection(t *testing.T) {
	client := &axisLLM{
		coherence:     "0.9",
		hallucination: "0.3",
		relevance:     "0.9",
		corrected:     "Réponse corrigée.",
	}
	v := New(client)

	result := v.Verify(context.Background(), "question", "réponse", "contexte")

	// 0.4*0.9 + 0.4*0.3 + 0.2*0.9 = 0.66
	if !almostEqual(result.Confidence, 0.66) {
		t.Errorf("Confidence = %v, want 0.66", result.Confidence)
	}
	if !result.NeedsCorrection {
		t.Error("expected correction to be needed")
	}
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue, "hallucination") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues missing hallucination flag: %v", result.Issues)
	}
	if result.CorrectedAnswer != "Réponse corrigée." {
		t.Errorf("CorrectedAnswer = %q", result.CorrectedAnswer)
	}
}

func TestVerifyCorrectionFailureKeepsOriginal(t *testing.T) {
	client := &axisLLM{
		coherence:     "0.5",
		hallucination: "0.5",
		relevance:     "0.5",
		correctionErr: errors.New("model down"),
	}
	v := New(client)

	result := v.Verify(context.Background(), "question", "réponse originale", "contexte")

	if !result.NeedsCorrection {
		t.Fatal("expected correction to be needed")
	}
	if result.CorrectedAnswer != "réponse originale" {
		t.Errorf("CorrectedAnswer = %q, want the original answer", result.CorrectedAnswer)
	}
}

func TestVerifyEmptyContextAxisDefaults(t *testing.T) {
	client := &axisLLM{relevance: "0.9"}
	v := New(client)

	result := v.Verify(context.Background(), "question", "réponse", "")

	// coherence defaults 0.5, hallucination fails closed at 0.3:
	// 0.4*0.5 + 0.4*0.3 + 0.2*0.9 = 0.5
	if !almostEqual(result.Confidence, 0.5) {
		t.Errorf("Confidence = %v, want 0.5", result.Confidence)
	}
	// Neither context axis issues a model call without context
	for _, call := range client.calls {
		if call == "coherence" || call == "hallucination" {
			t.Errorf("unexpected %s call without context", call)
		}
	}
}

func TestVerifyConfidenceAlwaysClamped(t *testing.T) {
	tests := []struct {
		name                               string
		coherence, hallucination, relevance string
	}{
		{"out of range high", "5.0", "7.3", "2.0"},
		{"out of range low", "0.0", "0.0", "0.0"},
		{"unparsable", "pas un nombre", "???", ""},
		{"score with prose", "Score: 0.8", "environ 0.9", "0.7 sur 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &axisLLM{
				coherence:     tt.coherence,
				hallucination: tt.hallucination,
				relevance:     tt.relevance,
				corrected:     "corrigée",
			}
			v := New(client)
			result := v.Verify(context.Background(), "q", "r", "ctx")
			if result.Confidence < 0 || result.Confidence > 1 {
				t.Errorf("Confidence out of range: %v", result.Confidence)
			}
		})
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.8", 0.8},
		{" 0.75\n", 0.75},
		{"Score: 0.6", 0.6},
		{"5.0", 1.0},
		{"", 0.5},
		{"aucun score", 0.5},
	}
	for _, tt := range tests {
		if got := parseScore(tt.in); !almostEqual(got, tt.want) {
			t.Errorf("parseScore(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerifyIdempotent(t *testing.T) {
	mk := func() *Verifier {
		return New(&axisLLM{coherence: "0.8", hallucination: "0.8", relevance: "0.8"})
	}
	first := mk().Verify(context.Background(), "q", "r", "ctx")
	second := mk().Verify(context.Background(), "q", "r", "ctx")
	if first.Confidence != second.Confidence || first.NeedsCorrection != second.NeedsCorrection {
		t.Error("verification changed between identical invocations")
	}
}
