package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatCompletion_WritesRequestedSection(t *testing.T) {
	srv := httptest.NewServer(newMux("m"))
	defer srv.Close()

	body := `{"model":"m","messages":[{"role":"system","content":"s"},{"role":"user","content":"intro\nTOPIC: Edge AI\nSECTION: Methodology\nDOMAIN: general"}]}`
	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Choices) != 1 || !strings.Contains(out.Choices[0].Message.Content, "Edge AI") || !strings.Contains(out.Choices[0].Message.Content, "## Methodology") {
		t.Fatalf("unexpected completion: %+v", out)
	}
}

func TestChatCompletion_RejectsUnknownPrompt(t *testing.T) {
	srv := httptest.NewServer(newMux("m"))
	defer srv.Close()
	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}
