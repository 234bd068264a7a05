package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken123/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("chat_id") != "chat42" {
			t.Errorf("unexpected chat id: %s", r.PostForm.Get("chat_id"))
		}
		if r.PostForm.Get("text") != "digest body" {
			t.Errorf("unexpected text: %s", r.PostForm.Get("text"))
		}
		if r.PostForm.Get("parse_mode") != "Markdown" {
			t.Errorf("unexpected parse mode: %s", r.PostForm.Get("parse_mode"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier("token123", "chat42")
	n.apiBase = server.URL

	if err := n.PublishDigest(context.Background(), "digest body"); err != nil {
		t.Fatalf("PublishDigest returned error: %v", err)
	}
}

func TestPublishDigestAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier("token123", "chat42")
	n.apiBase = server.URL

	if err := n.PublishDigest(context.Background(), "digest body"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestPublishDigestMisconfigured(t *testing.T) {
	t.Parallel()

	n := NewNotifier("", "")
	if err := n.PublishDigest(context.Background(), "digest"); err == nil {
		t.Fatal("expected error when token and chat are missing")
	}
}
