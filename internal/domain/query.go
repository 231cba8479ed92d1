package domain

import (
	"encoding/json"
)

// QueryType is the search domain a free-text query is routed to. It is computed
// once per request and never reconsidered: one query, one domain.
type QueryType string

const (
	QueryTypeMovie   QueryType = "movie"
	QueryTypeMusic   QueryType = "music"
	QueryTypeNews    QueryType = "news"
	QueryTypeGeneral QueryType = "general"
)

// MovieCriteria holds structured movie search parameters extracted from free
// text. Zero values mean "not specified", mirroring the legacy criteria maps
// where an absent key and a falsy value were interchangeable.
type MovieCriteria struct {
	Genre     string  `json:"genre,omitempty"`
	Actor     string  `json:"actor,omitempty"`
	Director  string  `json:"director,omitempty"`
	Year      string  `json:"year,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
}

// HasPrimary reports whether any of the selectors that suppress the
// name-guessing fallback were extracted.
func (c MovieCriteria) HasPrimary() bool {
	return c.Genre != "" || c.Actor != "" || c.Director != ""
}

// MusicCriteria holds structured music search parameters. Exactly one of the
// fields drives the search, checked in artist > genre > term order.
type MusicCriteria struct {
	Artist string `json:"artist,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Term   string `json:"term,omitempty"`
}

func (c MusicCriteria) IsZero() bool {
	return c.Artist == "" && c.Genre == "" && c.Term == ""
}

// NewsQuery is a cleaned news topic plus the requested article count.
type NewsQuery struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Provenance search_type values recorded on every returned item.
const (
	SearchTypeActor    = "actor"
	SearchTypeDirector = "director"
	SearchTypeGenre    = "genre"
	SearchTypeYear     = "year"
	SearchTypePopular  = "popular"
	SearchTypeArtist   = "artist"
	SearchTypeTerm     = "term"
)

// Runtime is a movie runtime in minutes. The legacy payload carried the
// literal string "N/A" when the runtime was unknown; keep that shape on the
// wire while staying an int in code.
type Runtime int

func (r Runtime) MarshalJSON() ([]byte, error) {
	if r <= 0 {
		return []byte(`"N/A"`), nil
	}
	return json.Marshal(int(r))
}

func (r *Runtime) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		// "N/A" and any other non-numeric value decode to zero.
		*r = 0
		return nil
	}
	*r = Runtime(n)
	return nil
}

// MovieItem is the normalized movie result shape the formatting layer
// depends on. Field names are part of the external contract.
type MovieItem struct {
	Title       string  `json:"title"`
	Year        string  `json:"year"`
	Rating      string  `json:"rating"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Link        string  `json:"link"`
	Director    string  `json:"director"`
	Runtime     Runtime `json:"runtime"`
	Genres      string  `json:"genres"`
	SearchType  string  `json:"search_type"`
	SearchValue string  `json:"search_value"`
}

// MusicItem is the normalized track result shape.
type MusicItem struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	Genre       string  `json:"genre"`
	ReleaseDate string  `json:"release_date"`
	PreviewURL  string  `json:"preview_url"`
	Artwork     string  `json:"artwork"`
	TrackURL    string  `json:"track_url"`
	Popularity  float64 `json:"popularity"`
	SearchType  string  `json:"search_type"`
	SearchValue string  `json:"search_value"`
}

// NewsItem is the normalized news article shape.
type NewsItem struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	Date      string `json:"date"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Snippet   string `json:"snippet"`
}

// KnowledgeGraph is the structured answer block the web provider sometimes
// returns alongside organic results.
type KnowledgeGraph struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// OrganicResult is one plain web search hit.
type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// errorItem is the legacy sentinel: an error surfaced as data inside a result
// list rather than raised to the caller.
type errorItem struct {
	Error string `json:"error"`
}

// MovieList is the movie adapter result: either Items, or a Failure message
// that serializes as a single-element error list. Skipped counts detail
// fetches that were dropped without aborting the batch.
type MovieList struct {
	Items   []MovieItem `json:"-"`
	Failure string      `json:"-"`
	Skipped int         `json:"-"`
}

func (l MovieList) Failed() bool { return l.Failure != "" }

func (l MovieList) MarshalJSON() ([]byte, error) {
	if l.Failure != "" {
		return json.Marshal([]errorItem{{Error: l.Failure}})
	}
	items := l.Items
	if items == nil {
		items = []MovieItem{}
	}
	return json.Marshal(items)
}

// MusicList mirrors MovieList for tracks.
type MusicList struct {
	Items   []MusicItem `json:"-"`
	Failure string      `json:"-"`
}

func (l MusicList) Failed() bool { return l.Failure != "" }

func (l MusicList) MarshalJSON() ([]byte, error) {
	if l.Failure != "" {
		return json.Marshal([]errorItem{{Error: l.Failure}})
	}
	items := l.Items
	if items == nil {
		items = []MusicItem{}
	}
	return json.Marshal(items)
}

// NewsList mirrors MovieList for articles.
type NewsList struct {
	Items   []NewsItem `json:"-"`
	Failure string     `json:"-"`
}

func (l NewsList) Failed() bool { return l.Failure != "" }

func (l NewsList) MarshalJSON() ([]byte, error) {
	if l.Failure != "" {
		return json.Marshal([]errorItem{{Error: l.Failure}})
	}
	items := l.Items
	if items == nil {
		items = []NewsItem{}
	}
	return json.Marshal(items)
}

// WebResult is the general web adapter result. Unlike the other adapters it is
// a single structure: knowledge_graph is null when absent, organic_results is
// always a list, and a whole-operation fault collapses to {"error": ...}.
type WebResult struct {
	SearchQuery    string          `json:"search_query"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledge_graph"`
	OrganicResults []OrganicResult `json:"organic_results"`
	Failure        string          `json:"-"`
}

func (r WebResult) Failed() bool { return r.Failure != "" }

func (r WebResult) MarshalJSON() ([]byte, error) {
	if r.Failure != "" {
		return json.Marshal(errorItem{Error: r.Failure})
	}
	type plain WebResult
	p := plain(r)
	if p.OrganicResults == nil {
		p.OrganicResults = []OrganicResult{}
	}
	return json.Marshal(p)
}

// QueryResponse is what the orchestrator hands back to the HTTP layer:
// the committed domain plus the formatted content.
type QueryResponse struct {
	Type    QueryType `json:"type"`
	Content string    `json:"content"`
}

// ProviderStatus reports one adapter's circuit-breaker state for diagnostics.
type ProviderStatus struct {
	Name                string `json:"name"`
	Available           bool   `json:"available"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastError           string `json:"lastError,omitempty"`
	TotalRequests       int64  `json:"totalRequests"`
	TotalFailures       int64  `json:"totalFailures"`
}
