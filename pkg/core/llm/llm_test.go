package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatCompletionsProvider_GenerateResponse(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"Looks viable."}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider()
	p.BaseURL = srv.URL + "/v1/"

	out, err := p.GenerateResponse(context.Background(), "analyse", "be brief", map[string]interface{}{
		OptAPIKey: "test-key",
		OptModel:  "gpt-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Looks viable." {
		t.Errorf("got %q", out)
	}
	if got.Model != "gpt-test" {
		t.Errorf("model: got %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "analyse" {
		t.Errorf("messages: %+v", got.Messages)
	}
}

func TestChatCompletionsProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, nil},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`, nil},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewDeepSeekProvider()
			p.BaseURL = srv.URL
			_, err := p.GenerateResponse(context.Background(), "x", "", map[string]interface{}{OptAPIKey: "k"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestChatCompletionsProvider_MissingKey(t *testing.T) {
	p := &ChatCompletionsProvider{Name: "test", BaseURL: "http://127.0.0.1:0", APIKeyEnv: []string{"FINMODEL_TEST_UNSET_KEY"}}
	t.Setenv("FINMODEL_TEST_UNSET_KEY", "")
	_, err := p.GenerateResponse(context.Background(), "x", "", nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestQwenProvider_GenerateResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "qwen-max" {
			t.Errorf("model: got %v", body["model"])
		}
		w.Write([]byte(`{"output":{"choices":[{"message":{"content":"ok"}}]}}`))
	}))
	defer srv.Close()

	p := &QwenProvider{Endpoint: srv.URL}
	out, err := p.GenerateResponse(context.Background(), "x", "sys", map[string]interface{}{OptAPIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("got %q", out)
	}
}

func TestQwenProvider_APIErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"InvalidApiKey","message":"bad key"}`))
	}))
	defer srv.Close()

	p := &QwenProvider{Endpoint: srv.URL}
	if _, err := p.GenerateResponse(context.Background(), "x", "", map[string]interface{}{OptAPIKey: "k"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOptionHelpers(t *testing.T) {
	opts := map[string]interface{}{OptTemperature: 0.2, OptMaxTokens: 512, OptModel: "m"}
	if optFloat(opts, OptTemperature, 1) != 0.2 {
		t.Error("optFloat")
	}
	if optInt(opts, OptMaxTokens, 1) != 512 {
		t.Error("optInt")
	}
	if optInt(nil, OptMaxTokens, 7) != 7 {
		t.Error("optInt default on nil map")
	}
	if optString(opts, OptModel) != "m" {
		t.Error("optString")
	}
}
