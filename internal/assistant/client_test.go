package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSuggestActivities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "Kyoto") {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"- Fushimi Inari at dawn"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gpt-4o-mini", zerolog.Nop())

	out, err := client.SuggestActivities(context.Background(), "Kyoto", []string{"temples"})
	if err != nil {
		t.Fatalf("SuggestActivities: %v", err)
	}
	if !strings.Contains(out, "Fushimi Inari") {
		t.Fatalf("unexpected suggestion %q", out)
	}
}

func TestChatRequiresAPIKey(t *testing.T) {
	client := NewClient("https://api.openai.com/v1", "", "gpt-4o-mini", zerolog.Nop())
	if _, err := client.Chat(context.Background(), nil); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
