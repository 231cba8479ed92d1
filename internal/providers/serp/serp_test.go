package serp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Client: server.Client()})
}

func TestEnabledRequiresAPIKey(t *testing.T) {
	if NewClient(Config{}).Enabled() {
		t.Error("client without an api key reported enabled")
	}
	if !NewClient(Config{APIKey: "k"}).Enabled() {
		t.Error("client with an api key reported disabled")
	}
}

func TestFetchNewsQueryParams(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{"news_results": []any{}})
	})

	list, err := NewNewsClient(client).FetchNews(context.Background(), "climate change", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := query["q"]; len(got) != 1 || got[0] != "climate change news" {
		t.Errorf("unexpected q: %v", got)
	}
	if got := query["tbm"]; len(got) != 1 || got[0] != "nws" {
		t.Errorf("unexpected tbm: %v", got)
	}
	if got := query["num"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("unexpected num: %v", got)
	}
	if got := query["engine"]; len(got) != 1 || got[0] != "google" {
		t.Errorf("unexpected engine: %v", got)
	}
	if got := query["api_key"]; len(got) != 1 || got[0] != "test-key" {
		t.Errorf("unexpected api_key: %v", got)
	}
	if list.Failure != "No news found for: climate change" {
		t.Fatalf("unexpected failure: %q", list.Failure)
	}
}

func TestFetchNewsDefaultsAndTruncation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"news_results": []map[string]any{
				{"title": "First", "source": "Wire", "date": "2 hours ago", "link": "https://example.com/1", "snippet": "lead"},
				{},
				{"title": "Third"},
			},
		})
	})

	list, err := NewNewsClient(client).FetchNews(context.Background(), "ai", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("unexpected item count: %d", len(list.Items))
	}
	if list.Items[0].Title != "First" || list.Items[0].Source != "Wire" {
		t.Errorf("unexpected first item: %#v", list.Items[0])
	}
	blank := list.Items[1]
	if blank.Title != "Untitled Article" || blank.Source != "Unknown Source" ||
		blank.Date != "Unknown Date" || blank.Link != "#" ||
		blank.Thumbnail != placeholderURL || blank.Snippet != "No description available" {
		t.Errorf("unexpected defaults: %#v", blank)
	}
}

func TestFetchNewsTransportFault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := NewNewsClient(client).FetchNews(context.Background(), "anything", 5)
	if err == nil {
		t.Fatal("expected transport error")
	}
}

func TestWebSearchMapsKnowledgeGraph(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"knowledge_graph": map[string]any{
				"title":       "Go",
				"type":        "Programming language",
				"description": "Statically typed, compiled.",
				"thumbnail":   "https://example.com/go.png",
			},
			"organic_results": []map[string]any{
				{"title": "Docs", "link": "https://go.dev", "snippet": "docs"},
			},
		})
	})

	result, err := NewWebClient(client).WebSearch(context.Background(), "golang", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SearchQuery != "golang" {
		t.Errorf("unexpected search query: %q", result.SearchQuery)
	}
	if result.KnowledgeGraph == nil || result.KnowledgeGraph.Title != "Go" || result.KnowledgeGraph.Type != "Programming language" {
		t.Errorf("unexpected knowledge graph: %#v", result.KnowledgeGraph)
	}
	if len(result.OrganicResults) != 1 || result.OrganicResults[0].Link != "https://go.dev" {
		t.Errorf("unexpected organic results: %#v", result.OrganicResults)
	}
}

func TestWebSearchMissingSections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	result, err := NewWebClient(client).WebSearch(context.Background(), "obscure query", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.KnowledgeGraph != nil {
		t.Errorf("expected nil knowledge graph, got %#v", result.KnowledgeGraph)
	}
	if result.OrganicResults == nil || len(result.OrganicResults) != 0 {
		t.Errorf("expected empty non-nil organic results, got %#v", result.OrganicResults)
	}
	if result.Failed() {
		t.Errorf("empty page is not a failure")
	}
}

func TestWebSearchTruncatesOrganicResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]any{
				{"title": "a"}, {"title": "b"}, {"title": "c"}, {"title": "d"},
			},
		})
	})

	result, err := NewWebClient(client).WebSearch(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.OrganicResults) != 2 {
		t.Fatalf("unexpected organic count: %d", len(result.OrganicResults))
	}
}
