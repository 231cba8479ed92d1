// Package itunes wraps the iTunes Search API for track lookups, normalized
// into the common music item shape.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"unifiedsearch/queryservice/internal/domain"
)

const (
	defaultBaseURL = "https://itunes.apple.com/search"

	// The store caps limit at 200; we over-fetch to survive the non-song
	// filter below.
	maxLimit = 200

	defaultPrice = 0.99
)

type Config struct {
	BaseURL string
	Client  *http.Client
}

// Client calls the iTunes Search API. The API is keyless; there is no
// credential to gate on.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) Name() string { return "itunes" }

type searchResponse struct {
	Results []trackResult `json:"results"`
}

type trackResult struct {
	WrapperType      string   `json:"wrapperType"`
	Kind             string   `json:"kind"`
	TrackName        string   `json:"trackName"`
	ArtistName       string   `json:"artistName"`
	CollectionName   string   `json:"collectionName"`
	PrimaryGenreName string   `json:"primaryGenreName"`
	ReleaseDate      string   `json:"releaseDate"`
	PreviewURL       string   `json:"previewUrl"`
	ArtworkURL100    string   `json:"artworkUrl100"`
	TrackViewURL     string   `json:"trackViewUrl"`
	TrackPrice       *float64 `json:"trackPrice"`
	CollectionPrice  *float64 `json:"collectionPrice"`
}

// SearchMusic dispatches on the first present selector in artist > genre >
// term order. An empty criteria set is a caller mistake reported as a Failure;
// transport faults come back as an error for the orchestrator.
func (c *Client) SearchMusic(ctx context.Context, criteria domain.MusicCriteria, count int) (domain.MusicList, error) {
	if count <= 0 {
		count = 5
	}

	params := url.Values{
		"media":   {"music"},
		"country": {"US"},
		"limit":   {strconv.Itoa(overFetchLimit(count))},
	}

	var searchType, searchValue string
	switch {
	case criteria.Artist != "":
		params.Set("term", criteria.Artist)
		params.Set("attribute", "artistTerm")
		searchType = domain.SearchTypeArtist
		searchValue = criteria.Artist
	case criteria.Genre != "":
		params.Set("term", criteria.Genre)
		params.Set("attribute", "genreIndex")
		searchType = domain.SearchTypeGenre
		searchValue = criteria.Genre
	case criteria.Term != "":
		params.Set("term", criteria.Term)
		searchType = domain.SearchTypeTerm
		searchValue = criteria.Term
	default:
		return domain.MusicList{Failure: "Please provide search criteria for music (artist, genre, or term)"}, nil
	}

	var response searchResponse
	if err := c.getJSON(ctx, params, &response); err != nil {
		return domain.MusicList{}, err
	}
	if len(response.Results) == 0 {
		return domain.MusicList{Failure: fmt.Sprintf("No music found for %s: %s", searchType, searchValue)}, nil
	}

	songs := normalizeTracks(response.Results, searchType, searchValue)
	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].Popularity > songs[j].Popularity
	})
	if len(songs) > count {
		songs = songs[:count]
	}
	return domain.MusicList{Items: songs}, nil
}

func overFetchLimit(count int) int {
	limit := count * 2
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

func normalizeTracks(results []trackResult, searchType, searchValue string) []domain.MusicItem {
	songs := make([]domain.MusicItem, 0, len(results))
	for _, result := range results {
		// Albums, music videos and audiobooks share the result list; only
		// actual songs survive.
		if result.WrapperType != "track" || result.Kind != "song" {
			continue
		}

		artwork := result.ArtworkURL100
		if artwork != "" {
			artwork = strings.Replace(artwork, "100x100", "150x150", 1)
		}

		preview := result.PreviewURL
		if preview != "" {
			preview = fmt.Sprintf(`<audio controls style="height:30px"><source src="%s" type="audio/mpeg"></audio>`, preview)
		}

		release := "Unknown"
		if result.ReleaseDate != "" {
			release = strings.SplitN(result.ReleaseDate, "T", 2)[0]
		}

		songs = append(songs, domain.MusicItem{
			Title:       orDefault(result.TrackName, "Unknown Track"),
			Artist:      orDefault(result.ArtistName, "Unknown Artist"),
			Album:       orDefault(result.CollectionName, "Unknown Album"),
			Genre:       orDefault(result.PrimaryGenreName, "Unknown Genre"),
			ReleaseDate: release,
			PreviewURL:  preview,
			Artwork:     artwork,
			TrackURL:    result.TrackViewURL,
			Popularity:  popularity(result),
			SearchType:  searchType,
			SearchValue: searchValue,
		})
	}
	return songs
}

// popularity is a proxy score derived from price (cheaper ranks higher); the
// store exposes no play-count signal. Track price wins over collection price,
// missing prices assume the common single price.
func popularity(result trackResult) float64 {
	price := defaultPrice
	switch {
	case result.TrackPrice != nil:
		price = *result.TrackPrice
	case result.CollectionPrice != nil:
		price = *result.CollectionPrice
	}
	if price > 9.99 {
		price = 9.99
	}
	return 10 - price
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func (c *Client) getJSON(ctx context.Context, params url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("itunes HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}
