package social

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookPoster_Post(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("invalid payload: %v", err)
		}
		received = payload["text"]
	}))
	defer srv.Close()

	p := NewWebhookPoster(srv.URL)
	if err := p.Post(context.Background(), "APY is climbing"); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if received != "APY is climbing" {
		t.Errorf("received = %q", received)
	}
}

func TestWebhookPoster_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewWebhookPoster(srv.URL)
	if err := p.Post(context.Background(), "text"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
