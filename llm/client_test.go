package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientComplete(t *testing.T) {
	var gotReq ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		resp := ChatResponse{Model: "test-model"}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{})
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = "Epidiolex Lennox-Gastaut policy"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model", time.Minute)
	out, err := client.Complete(context.Background(), "formulate a query", Deterministic(512), []ChatMessage{
		{Role: "user", Content: "Diagnosis: Lennox-Gastaut Syndrome"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "Epidiolex Lennox-Gastaut policy" {
		t.Errorf("unexpected completion %q", out)
	}

	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("expected system message first, got %+v", gotReq.Messages)
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0 {
		t.Errorf("expected explicit temperature 0, got %v", gotReq.Temperature)
	}
	if gotReq.MaxTokens != 512 {
		t.Errorf("expected max_tokens 512, got %d", gotReq.MaxTokens)
	}
}

func TestClientComplete_JSONOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format, got %+v", req.ResponseFormat)
		}

		resp := ChatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{})
		resp.Choices[0].Message.Content = `{"policies": [], "reasoning": [], "retry": true}`
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := Deterministic(256)
	cfg.JSONOutput = true

	client := NewClient(server.URL, "", "test-model", time.Minute)
	if _, err := client.Complete(context.Background(), "evaluate", cfg, nil); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestClientComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(ChatResponse{Error: &APIError{Message: "rate limited", Type: "rate_limit"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "test-model", time.Minute)
	if _, err := client.Complete(context.Background(), "", Deterministic(0), nil); err == nil {
		t.Fatal("expected error from API error payload")
	}
}

func TestClientComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "test-model", time.Minute)
	if _, err := client.Complete(context.Background(), "", Deterministic(0), nil); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestClientComplete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL, "", "test-model", time.Minute)
	if _, err := client.Complete(ctx, "", Deterministic(0), nil); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
