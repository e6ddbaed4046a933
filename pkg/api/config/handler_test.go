package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finmodel/pkg/core/agent"
)

func TestHandleConfig(t *testing.T) {
	h := NewHandler(agent.NewManager(agent.Config{ActiveProvider: "deepseek"}))

	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ActiveProvider != "deepseek" {
		t.Errorf("active: %s", resp.ActiveProvider)
	}
	if len(resp.Available) != 7 {
		t.Errorf("available: %v", resp.Available)
	}
}

func TestHandleSwitch(t *testing.T) {
	mgr := agent.NewManager(agent.Config{})
	mux := http.NewServeMux()
	NewHandler(mgr).Register(mux)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"switch", http.MethodPost, `{"provider":"gemini"}`, http.StatusOK},
		{"unknown provider", http.MethodPost, `{"provider":"nope"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"preflight", http.MethodOptions, "", http.StatusOK},
		{"get", http.MethodGet, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/config/switch", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	if mgr.GetActiveProvider() != "gemini" {
		t.Errorf("active provider: %s", mgr.GetActiveProvider())
	}
}
