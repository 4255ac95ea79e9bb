package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081", "test-key", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.APIKey != "test-key" {
		t.Errorf("NewClient() APIKey = %v, want test-key", client.APIKey)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client == nil {
		t.Error("NewClient() client should not be nil")
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	tests := []struct {
		name       string
		params     ChatParams
		serverResp func(w http.ResponseWriter, r *http.Request)
		want       Completion
		wantErr    bool
	}{
		{
			name:   "successful completion",
			params: ChatParams{Model: "custom-model", MaxTokens: 100},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer") {
					t.Error("missing Authorization header")
				}

				var req ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req) // Ignore decode error in test
				if len(req.Messages) != 2 {
					t.Errorf("expected 2 messages, got %d", len(req.Messages))
				}
				if req.Model != "custom-model" || req.MaxTokens != 100 {
					t.Errorf("unexpected request %+v", req)
				}

				resp := ChatResponse{
					ID:     "test-id",
					Object: "chat.completion",
					Model:  "served-model",
					Choices: []ChatChoice{
						{Message: Message{Role: "assistant", Content: "Response"}, FinishReason: "stop"},
					},
					Usage: Usage{PromptTokens: 40, CompletionTokens: 2, TotalTokens: 42},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			want: Completion{Content: "Response", Model: "served-model", TotalTokens: 42},
		},
		{
			name:   "no choices returned",
			params: ChatParams{},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "test-id", Choices: []ChatChoice{}})
			},
			wantErr: true,
		},
		{
			name:   "server error",
			params: ChatParams{},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("Internal Server Error"))
			},
			wantErr: true,
		},
		{
			name:   "invalid json",
			params: ChatParams{},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("not json"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			messages := []Message{
				{Role: "system", Content: "You are a helpful assistant"},
				{Role: "user", Content: "Hello"},
			}

			got, err := client.ChatWithMessages(context.Background(), messages, tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("ChatWithMessages() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ChatWithMessages() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClient_ChatWithMessages_DefaultModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw) // Ignore decode error in test

		if raw["model"] != "test-model" {
			t.Errorf("expected model test-model, got %v", raw["model"])
		}
		if temp, ok := raw["temperature"]; !ok || temp != float64(0) {
			t.Errorf("temperature should be sent as 0, got %v", temp)
		}

		resp := ChatResponse{
			Choices: []ChatChoice{{Message: Message{Content: "Response"}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")

	got, err := client.ChatWithMessages(context.Background(), []Message{{Role: "user", Content: "Hello"}}, ChatParams{})
	if err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}
	if got.Content != "Response" || got.Model != "test-model" {
		t.Errorf("ChatWithMessages() = %+v, want Response from test-model", got)
	}
}
