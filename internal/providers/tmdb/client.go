// Package tmdb wraps The Movie Database API: person search, credits, discover
// and per-movie detail, normalized into the common movie item shape.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"unifiedsearch/queryservice/internal/domain"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	posterBaseURL   = "https://image.tmdb.org/t/p/w500"
	movieLinkBase   = "https://www.themoviedb.org/movie/"
	placeholderURL  = "https://via.placeholder.com/150"
	directorJobName = "Director"
)

type Config struct {
	APIKey          string
	ReadAccessToken string
	BaseURL         string
	Client          *http.Client
	GenreCache      GenreCache
}

// Client calls TMDB with both auth mechanisms the API accepts: the bearer
// read-access token as a header and the api_key as a query parameter.
type Client struct {
	apiKey     string
	readToken  string
	baseURL    string
	http       *http.Client
	genreCache GenreCache
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
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		readToken:  strings.TrimSpace(cfg.ReadAccessToken),
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       httpClient,
		genreCache: cfg.GenreCache,
	}
}

func (c *Client) Name() string { return "tmdb" }

func (c *Client) Enabled() bool { return c.apiKey != "" }

type personSearchResponse struct {
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
}

type credit struct {
	ID          int     `json:"id"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Job         string  `json:"job"`
}

type creditsResponse struct {
	Cast []credit `json:"cast"`
	Crew []credit `json:"crew"`
}

type discoverResponse struct {
	Results []credit `json:"results"`
}

type genreEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []genreEntry `json:"genres"`
}

type movieDetail struct {
	Title       string       `json:"title"`
	PosterPath  string       `json:"poster_path"`
	Overview    string       `json:"overview"`
	VoteAverage *float64     `json:"vote_average"`
	ReleaseDate string       `json:"release_date"`
	Runtime     int          `json:"runtime"`
	Genres      []genreEntry `json:"genres"`
	Credits     struct {
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// SearchMovies dispatches on the primary selector: actor, then director, then
// discovery by genre/year/rating. Lookup misses and empty result sets come
// back as a Failure list; transport faults come back as an error for the
// orchestrator to convert and record.
func (c *Client) SearchMovies(ctx context.Context, criteria domain.MovieCriteria, count int) (domain.MovieList, error) {
	if count <= 0 {
		count = 5
	}
	switch {
	case criteria.Actor != "":
		return c.searchByPerson(ctx, criteria, count, false)
	case criteria.Director != "":
		return c.searchByPerson(ctx, criteria, count, true)
	default:
		return c.discover(ctx, criteria, count)
	}
}

func (c *Client) searchByPerson(ctx context.Context, criteria domain.MovieCriteria, count int, byDirector bool) (domain.MovieList, error) {
	name := criteria.Actor
	role := "actor"
	if byDirector {
		name = criteria.Director
		role = "director"
	}

	var people personSearchResponse
	if err := c.getJSON(ctx, "/search/person", url.Values{"query": {name}}, &people); err != nil {
		return domain.MovieList{}, err
	}
	if len(people.Results) == 0 {
		return domain.MovieList{Failure: fmt.Sprintf("Could not find %s: %s", role, name)}, nil
	}
	personID := people.Results[0].ID

	var credits creditsResponse
	if err := c.getJSON(ctx, "/person/"+strconv.Itoa(personID)+"/movie_credits", nil, &credits); err != nil {
		return domain.MovieList{}, err
	}

	var candidates []credit
	searchType := domain.SearchTypeActor
	if byDirector {
		searchType = domain.SearchTypeDirector
		if len(credits.Crew) == 0 {
			return domain.MovieList{Failure: fmt.Sprintf("No movies found for director: %s", name)}, nil
		}
		for _, item := range credits.Crew {
			if strings.EqualFold(item.Job, directorJobName) {
				candidates = append(candidates, item)
			}
		}
		if len(candidates) == 0 {
			return domain.MovieList{Failure: fmt.Sprintf("No movies found where %s was the director", name)}, nil
		}
	} else {
		if len(credits.Cast) == 0 {
			return domain.MovieList{Failure: fmt.Sprintf("No movies found for actor: %s", name)}, nil
		}
		candidates = credits.Cast
	}

	// Person-path results are filtered locally; the discovery path pushes the
	// same constraints into query parameters instead. The two paths are not
	// filter-equivalent and intentionally stay that way.
	candidates = filterCredits(candidates, criteria)

	items, skipped := c.detailItems(ctx, candidates, count, searchType, name)
	return domain.MovieList{Items: items, Skipped: skipped}, nil
}

func (c *Client) discover(ctx context.Context, criteria domain.MovieCriteria, count int) (domain.MovieList, error) {
	params := url.Values{"sort_by": {"popularity.desc"}}

	if criteria.Genre != "" {
		genreID, ok, err := c.genreID(ctx, criteria.Genre)
		if err != nil {
			return domain.MovieList{}, err
		}
		// An unresolvable genre is silently ignored rather than failing the search.
		if ok {
			params.Set("with_genres", strconv.Itoa(genreID))
		}
	}
	if criteria.Year != "" {
		params.Set("primary_release_year", criteria.Year)
	}
	if criteria.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(criteria.MinRating, 'f', -1, 64))
		// Require a minimum vote count so a high average over a handful of
		// votes does not dominate, and rank by rating instead of popularity.
		params.Set("vote_count.gte", "100")
		params.Set("sort_by", "vote_average.desc")
	}

	var discovered discoverResponse
	if err := c.getJSON(ctx, "/discover/movie", params, &discovered); err != nil {
		return domain.MovieList{}, err
	}
	if len(discovered.Results) == 0 {
		return domain.MovieList{Failure: "No movies found with the specified criteria"}, nil
	}

	searchType := domain.SearchTypePopular
	searchValue := "popular"
	switch {
	case criteria.Genre != "":
		searchType = domain.SearchTypeGenre
		searchValue = criteria.Genre
	case criteria.Year != "":
		searchType = domain.SearchTypeYear
		searchValue = criteria.Year
	}

	items, skipped := c.detailItems(ctx, discovered.Results, count, searchType, searchValue)
	return domain.MovieList{Items: items, Skipped: skipped}, nil
}

// genreID resolves a genre name to the provider's numeric category id using
// an exact case-insensitive match first, then a substring fallback.
func (c *Client) genreID(ctx context.Context, name string) (int, bool, error) {
	genres, err := c.genreList(ctx)
	if err != nil {
		return 0, false, err
	}
	lower := strings.ToLower(name)
	for _, genre := range genres {
		if strings.ToLower(genre.Name) == lower {
			return genre.ID, true, nil
		}
	}
	for _, genre := range genres {
		if strings.Contains(strings.ToLower(genre.Name), lower) {
			return genre.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *Client) genreList(ctx context.Context) ([]genreEntry, error) {
	if c.genreCache != nil {
		return c.genreCache.Genres(ctx, c.fetchGenreList)
	}
	return c.fetchGenreList(ctx)
}

func (c *Client) fetchGenreList(ctx context.Context) ([]genreEntry, error) {
	var response genreListResponse
	if err := c.getJSON(ctx, "/genre/movie/list", nil, &response); err != nil {
		return nil, err
	}
	return response.Genres, nil
}

func filterCredits(items []credit, criteria domain.MovieCriteria) []credit {
	filtered := items
	if criteria.Year != "" {
		kept := make([]credit, 0, len(filtered))
		for _, item := range filtered {
			if strings.HasPrefix(item.ReleaseDate, criteria.Year) {
				kept = append(kept, item)
			}
		}
		filtered = kept
	}
	if criteria.MinRating > 0 {
		kept := make([]credit, 0, len(filtered))
		for _, item := range filtered {
			if item.VoteAverage >= criteria.MinRating {
				kept = append(kept, item)
			}
		}
		filtered = kept
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].VoteAverage > filtered[j].VoteAverage
	})
	return filtered
}

// detailItems fetches full detail for up to count candidates. A failed detail
// fetch drops that one item and the batch proceeds; the skip count is
// returned for observability.
func (c *Client) detailItems(ctx context.Context, candidates []credit, count int, searchType, searchValue string) ([]domain.MovieItem, int) {
	if len(candidates) > count {
		candidates = candidates[:count]
	}

	items := make([]domain.MovieItem, 0, len(candidates))
	skipped := 0
	for _, candidate := range candidates {
		var detail movieDetail
		err := c.getJSON(ctx, "/movie/"+strconv.Itoa(candidate.ID), url.Values{"append_to_response": {"credits"}}, &detail)
		if err != nil {
			skipped++
			slog.Warn("movie detail fetch skipped",
				slog.Int("movieID", candidate.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, normalizeDetail(candidate.ID, detail, searchType, searchValue))
	}
	return items, skipped
}

func normalizeDetail(movieID int, detail movieDetail, searchType, searchValue string) domain.MovieItem {
	thumbnail := placeholderURL
	if detail.PosterPath != "" {
		thumbnail = posterBaseURL + detail.PosterPath
	}

	director := "N/A"
	for _, member := range detail.Credits.Crew {
		if member.Job == directorJobName {
			director = member.Name
			break
		}
	}

	year := "N/A"
	if detail.ReleaseDate != "" {
		year = strings.SplitN(detail.ReleaseDate, "-", 2)[0]
	}

	genreNames := make([]string, 0, len(detail.Genres))
	for _, genre := range detail.Genres {
		genreNames = append(genreNames, genre.Name)
	}

	title := detail.Title
	if title == "" {
		title = "Unknown Title"
	}
	description := detail.Overview
	if description == "" {
		description = "No description available"
	}

	return domain.MovieItem{
		Title:       title,
		Year:        year,
		Rating:      formatRating(detail.VoteAverage),
		Description: description,
		Thumbnail:   thumbnail,
		Link:        movieLinkBase + strconv.Itoa(movieID),
		Director:    director,
		Runtime:     domain.Runtime(detail.Runtime),
		Genres:      strings.Join(genreNames, ", "),
		SearchType:  searchType,
		SearchValue: searchValue,
	}
}

// formatRating renders the vote average the way the legacy payload did:
// always with a decimal point, "N/A" when the provider omitted the field.
func formatRating(value *float64) string {
	if value == nil {
		return "N/A"
	}
	formatted := strconv.FormatFloat(*value, 'f', -1, 64)
	if !strings.Contains(formatted, ".") {
		formatted += ".0"
	}
	return formatted
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if c.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.readToken)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tmdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}
