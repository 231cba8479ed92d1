package itunes

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"unifiedsearch/queryservice/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Client: server.Client()})
}

func TestSearchMusicNoCriteria(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for empty criteria")
	})

	list, err := client.SearchMusic(context.Background(), domain.MusicCriteria{}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Failure != "Please provide search criteria for music (artist, genre, or term)" {
		t.Fatalf("unexpected failure: %q", list.Failure)
	}
}

func TestSearchMusicArtistAttribute(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	})

	// Artist wins over genre and term when several criteria are present.
	list, err := client.SearchMusic(context.Background(), domain.MusicCriteria{Artist: "Adele", Genre: "pop"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := query["attribute"]; len(got) != 1 || got[0] != "artistTerm" {
		t.Errorf("unexpected attribute: %v", got)
	}
	if got := query["term"]; len(got) != 1 || got[0] != "Adele" {
		t.Errorf("unexpected term: %v", got)
	}
	if got := query["limit"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("unexpected limit: %v", got)
	}
	if list.Failure != "No music found for artist: Adele" {
		t.Fatalf("unexpected failure: %q", list.Failure)
	}
}

func TestSearchMusicFiltersNonSongs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"wrapperType": "collection", "kind": "album", "trackName": "An Album"},
				{"wrapperType": "track", "kind": "music-video", "trackName": "A Video"},
				{
					"wrapperType": "track", "kind": "song",
					"trackName": "Hello", "artistName": "Adele", "collectionName": "25",
					"primaryGenreName": "Pop", "releaseDate": "2015-10-23T07:00:00Z",
					"previewUrl":    "https://example.com/preview.m4a",
					"artworkUrl100": "https://example.com/art/100x100bb.jpg",
					"trackViewUrl":  "https://example.com/track",
					"trackPrice":    1.29,
				},
			},
		})
	})

	list, err := client.SearchMusic(context.Background(), domain.MusicCriteria{Artist: "Adele"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("unexpected item count: %d", len(list.Items))
	}
	item := list.Items[0]
	if item.Title != "Hello" || item.Artist != "Adele" || item.Album != "25" {
		t.Errorf("unexpected item: %#v", item)
	}
	if item.ReleaseDate != "2015-10-23" {
		t.Errorf("unexpected release date: %q", item.ReleaseDate)
	}
	if !strings.Contains(item.Artwork, "150x150") {
		t.Errorf("artwork not upscaled: %q", item.Artwork)
	}
	if !strings.HasPrefix(item.PreviewURL, "<audio controls") || !strings.Contains(item.PreviewURL, "https://example.com/preview.m4a") {
		t.Errorf("unexpected preview embed: %q", item.PreviewURL)
	}
	if !almostEqual(item.Popularity, 10-1.29) {
		t.Errorf("unexpected popularity: %v", item.Popularity)
	}
	if item.SearchType != domain.SearchTypeArtist || item.SearchValue != "Adele" {
		t.Errorf("unexpected provenance: %q %q", item.SearchType, item.SearchValue)
	}
}

func TestSearchMusicSortsByPopularityAndTruncates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"wrapperType": "track", "kind": "song", "trackName": "Expensive", "trackPrice": 9.99},
				{"wrapperType": "track", "kind": "song", "trackName": "Cheap", "trackPrice": 0.69},
				{"wrapperType": "track", "kind": "song", "trackName": "Mid", "trackPrice": 1.29},
			},
		})
	})

	list, err := client.SearchMusic(context.Background(), domain.MusicCriteria{Genre: "pop"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("unexpected item count: %d", len(list.Items))
	}
	// Cheaper tracks rank higher on the price-derived popularity score.
	if list.Items[0].Title != "Cheap" || list.Items[1].Title != "Mid" {
		t.Fatalf("unexpected order: %q, %q", list.Items[0].Title, list.Items[1].Title)
	}
	for i := 1; i < len(list.Items); i++ {
		if list.Items[i].Popularity > list.Items[i-1].Popularity {
			t.Fatalf("popularity not non-increasing at %d", i)
		}
	}
}

func TestPopularityPriceFallbacks(t *testing.T) {
	// Compared with a tolerance: the score is a float64 subtraction, and an
	// exact comparison against a constant expression trips on rounding.
	if got := popularity(trackResult{TrackPrice: ptr(1.29)}); !almostEqual(got, 10-1.29) {
		t.Errorf("track price: %v", got)
	}
	if got := popularity(trackResult{CollectionPrice: ptr(12.99)}); !almostEqual(got, 10-9.99) {
		t.Errorf("collection price should be capped: %v", got)
	}
	if got := popularity(trackResult{}); !almostEqual(got, 10-0.99) {
		t.Errorf("default price: %v", got)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSearchMusicDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"wrapperType": "track", "kind": "song"},
			},
		})
	})

	list, err := client.SearchMusic(context.Background(), domain.MusicCriteria{Term: "anything"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := list.Items[0]
	if item.Title != "Unknown Track" || item.Artist != "Unknown Artist" ||
		item.Album != "Unknown Album" || item.Genre != "Unknown Genre" {
		t.Errorf("unexpected defaults: %#v", item)
	}
	if item.ReleaseDate != "Unknown" {
		t.Errorf("unexpected release date: %q", item.ReleaseDate)
	}
	if item.PreviewURL != "" || item.Artwork != "" {
		t.Errorf("expected empty preview and artwork: %#v", item)
	}
}

func ptr(v float64) *float64 { return &v }
