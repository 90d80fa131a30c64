package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQdrantClient_SearchFiltersByMinScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/points/search" {
			t.Errorf("path = %s, want /collections/docs/points/search", r.URL.Path)
		}
		var req qdrantSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := qdrantSearchResponse{
			Status: "ok",
			Result: []qdrantScoredPoint{
				{ID: "1", Score: 0.9, Payload: map[string]any{"text": "high", "filename": "a.txt"}},
				{ID: "2", Score: 0.2, Payload: map[string]any{"text": "low", "filename": "b.txt"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewQdrantClient(QdrantConfig{BaseURL: server.URL, Collection: "docs"})
	if err != nil {
		t.Fatalf("NewQdrantClient error: %v", err)
	}

	segments, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5, 0.5)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(segments))
	}
	if segments[0].Text != "high" || segments[0].Metadata.Filename != "a.txt" {
		t.Fatalf("unexpected segment: %+v", segments[0])
	}
}

func TestQdrantClient_SearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client, _ := NewQdrantClient(QdrantConfig{BaseURL: server.URL, Collection: "docs"})
	if _, err := client.Search(context.Background(), []float32{0.1}, 5, 0); err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestNewQdrantClient_RequiresCollection(t *testing.T) {
	if _, err := NewQdrantClient(QdrantConfig{}); err == nil {
		t.Fatal("expected error when collection is missing")
	}
}
