package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"unifiedsearch/queryservice/internal/domain"
)

type fakeMovieProvider struct {
	calls int
	list  domain.MovieList
	err   error
}

func (p *fakeMovieProvider) Name() string { return "fakemovies" }

func (p *fakeMovieProvider) SearchMovies(_ context.Context, _ domain.MovieCriteria, _ int) (domain.MovieList, error) {
	p.calls++
	return p.list, p.err
}

type fakeMusicProvider struct {
	calls int
	list  domain.MusicList
	err   error
}

func (p *fakeMusicProvider) Name() string { return "fakemusic" }

func (p *fakeMusicProvider) SearchMusic(_ context.Context, _ domain.MusicCriteria, _ int) (domain.MusicList, error) {
	p.calls++
	return p.list, p.err
}

type fakeNewsProvider struct {
	calls int
	list  domain.NewsList
	err   error
}

func (p *fakeNewsProvider) Name() string { return "fakenews" }

func (p *fakeNewsProvider) FetchNews(_ context.Context, _ string, _ int) (domain.NewsList, error) {
	p.calls++
	return p.list, p.err
}

type fakeWebProvider struct {
	calls     int
	lastCount int
	result    domain.WebResult
	err       error
}

func (p *fakeWebProvider) Name() string { return "fakeweb" }

func (p *fakeWebProvider) WebSearch(_ context.Context, _ string, count int) (domain.WebResult, error) {
	p.calls++
	p.lastCount = count
	return p.result, p.err
}

// captureFormatter records what the pipeline hands to the formatting layer and
// echoes the payload back as content.
type captureFormatter struct {
	instruction string
	payload     string
	err         error
}

func (f *captureFormatter) Format(_ context.Context, instruction, payload string) (string, error) {
	f.instruction = instruction
	f.payload = payload
	if f.err != nil {
		return "", f.err
	}
	return payload, nil
}

func TestRunRoutesMovieQuery(t *testing.T) {
	movies := &fakeMovieProvider{list: domain.MovieList{Items: []domain.MovieItem{{Title: "Inception"}}}}
	formatter := &captureFormatter{}
	svc := NewService(Providers{Movies: movies}, formatter, WithCacheDisabled(true))

	response, err := svc.Run(context.Background(), "movies starring Tom Hanks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Type != domain.QueryTypeMovie {
		t.Fatalf("unexpected type: %q", response.Type)
	}
	if movies.calls != 1 {
		t.Fatalf("unexpected provider calls: %d", movies.calls)
	}
	if !strings.Contains(formatter.payload, "Inception") {
		t.Fatalf("payload missing result: %s", formatter.payload)
	}
}

func TestRunEmptyQuery(t *testing.T) {
	svc := NewService(Providers{}, &captureFormatter{})
	if _, err := svc.Run(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestForcedRunsCommitToType(t *testing.T) {
	web := &fakeWebProvider{result: domain.WebResult{SearchQuery: "movie trivia"}}
	formatter := &captureFormatter{}
	svc := NewService(Providers{Web: web}, formatter, WithCacheDisabled(true))

	// "movie" would classify as a movie query; the forced run skips
	// classification entirely.
	response, err := svc.RunGeneral(context.Background(), "movie trivia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Type != domain.QueryTypeGeneral {
		t.Fatalf("unexpected type: %q", response.Type)
	}
	if web.calls != 1 {
		t.Fatalf("unexpected provider calls: %d", web.calls)
	}
}

func TestGeneralPipelineRequestsTenResults(t *testing.T) {
	web := &fakeWebProvider{result: domain.WebResult{SearchQuery: "anything"}}
	svc := NewService(Providers{Web: web}, &captureFormatter{}, WithCacheDisabled(true))

	if _, err := svc.RunGeneral(context.Background(), "anything"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if web.lastCount != 10 {
		t.Fatalf("unexpected result count: %d", web.lastCount)
	}
}

func TestTransportFaultBecomesFailurePayload(t *testing.T) {
	movies := &fakeMovieProvider{err: errors.New("connection refused")}
	formatter := &captureFormatter{}
	svc := NewService(Providers{Movies: movies}, formatter, WithCacheDisabled(true))

	response, err := svc.RunMovie(context.Background(), "top comedy movies")
	if err != nil {
		t.Fatalf("transport faults must not surface as errors: %v", err)
	}
	if response.Type != domain.QueryTypeMovie {
		t.Fatalf("unexpected type: %q", response.Type)
	}
	want := `[{"error":"Failed to fetch movies: connection refused"}]`
	if formatter.payload != want {
		t.Fatalf("unexpected payload: %s", formatter.payload)
	}
}

func TestMissingProviderReportsNotConfigured(t *testing.T) {
	formatter := &captureFormatter{}
	svc := NewService(Providers{}, formatter, WithCacheDisabled(true))

	if _, err := svc.RunMusic(context.Background(), "songs by Adele"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(formatter.payload, "Failed to fetch music: music search is not configured") {
		t.Fatalf("unexpected payload: %s", formatter.payload)
	}
}

func TestFormatterErrorSurfaces(t *testing.T) {
	news := &fakeNewsProvider{list: domain.NewsList{Items: []domain.NewsItem{{Title: "Story"}}}}
	formatter := &captureFormatter{err: errors.New("model unavailable")}
	svc := NewService(Providers{News: news}, formatter, WithCacheDisabled(true))

	_, err := svc.RunNews(context.Background(), "latest news")
	if err == nil || !strings.Contains(err.Error(), "formatting failed") {
		t.Fatalf("expected formatting error, got %v", err)
	}
}

func TestCacheSkipsProviderOnRepeat(t *testing.T) {
	music := &fakeMusicProvider{list: domain.MusicList{Items: []domain.MusicItem{{Title: "Hello"}}}}
	formatter := &captureFormatter{}
	svc := NewService(Providers{Music: music}, formatter)

	first, err := svc.RunMusic(context.Background(), "songs by Adele")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same query with different case and padding hits the same entry.
	second, err := svc.RunMusic(context.Background(), "  Songs by Adele ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if music.calls != 1 {
		t.Fatalf("expected a single provider call, got %d", music.calls)
	}
	if first != second {
		t.Fatalf("cached response differs: %#v vs %#v", first, second)
	}
}

func TestFailureResponsesAreNotCached(t *testing.T) {
	movies := &fakeMovieProvider{err: errors.New("connection refused")}
	formatter := &captureFormatter{}
	svc := NewService(Providers{Movies: movies}, formatter)

	first, err := svc.RunMovie(context.Background(), "top comedy movies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(first.Content, "Failed to fetch movies") {
		t.Fatalf("unexpected first response: %q", first.Content)
	}

	// The provider recovers; the next identical query must reach it instead of
	// replaying the cached failure.
	movies.err = nil
	movies.list = domain.MovieList{Items: []domain.MovieItem{{Title: "Inception"}}}

	second, err := svc.RunMovie(context.Background(), "top comedy movies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if movies.calls != 2 {
		t.Fatalf("recovered provider not re-consulted: %d calls", movies.calls)
	}
	if !strings.Contains(second.Content, "Inception") {
		t.Fatalf("unexpected second response: %q", second.Content)
	}

	// The successful response is cached as usual.
	if _, err := svc.RunMovie(context.Background(), "top comedy movies"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if movies.calls != 2 {
		t.Fatalf("successful response not cached: %d calls", movies.calls)
	}
}

func TestLookupMissesAreNotCached(t *testing.T) {
	movies := &fakeMovieProvider{list: domain.MovieList{Failure: "Could not find actor: Nobody"}}
	svc := NewService(Providers{Movies: movies}, &captureFormatter{})

	for i := 0; i < 2; i++ {
		if _, err := svc.RunMovie(context.Background(), "movies starring Nobody"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if movies.calls != 2 {
		t.Fatalf("failure entry served from cache: %d calls", movies.calls)
	}
}

func TestCacheKeySeparatesTypes(t *testing.T) {
	if buildCacheKey(domain.QueryTypeMovie, "query") == buildCacheKey(domain.QueryTypeGeneral, "query") {
		t.Fatal("cache keys must differ per committed type")
	}
}

func TestCircuitBreakerBlocksAfterThreshold(t *testing.T) {
	movies := &fakeMovieProvider{err: errors.New("upstream down")}
	formatter := &captureFormatter{}
	svc := NewService(Providers{Movies: movies}, formatter, WithCacheDisabled(true))

	for i := 0; i < providerFailureThreshold; i++ {
		if _, err := svc.RunMovie(context.Background(), "some movie query"); err != nil {
			t.Fatalf("unexpected error on attempt %d: %v", i, err)
		}
	}
	if movies.calls != providerFailureThreshold {
		t.Fatalf("unexpected provider calls: %d", movies.calls)
	}

	// The breaker is open: the provider is not called again and the failure
	// entry explains the block.
	if _, err := svc.RunMovie(context.Background(), "another movie query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if movies.calls != providerFailureThreshold {
		t.Fatalf("provider called while blocked: %d calls", movies.calls)
	}
	if !strings.Contains(formatter.payload, "temporarily unavailable") {
		t.Fatalf("unexpected payload: %s", formatter.payload)
	}
	if !strings.Contains(formatter.payload, "upstream down") {
		t.Fatalf("blocked payload should carry the last error: %s", formatter.payload)
	}
}

func TestRecordProviderResultRecovery(t *testing.T) {
	svc := NewService(Providers{}, nil)
	now := time.Now()

	for i := 0; i < providerFailureThreshold; i++ {
		svc.recordProviderResult("tmdb", "query", errors.New("boom"), time.Millisecond, now)
	}
	if blocked, _, _ := svc.isProviderBlocked("tmdb", now); !blocked {
		t.Fatal("provider should be blocked at the failure threshold")
	}

	// A success clears the block and the failure streak.
	svc.recordProviderResult("tmdb", "query", nil, time.Millisecond, now)
	if blocked, _, _ := svc.isProviderBlocked("tmdb", now); blocked {
		t.Fatal("provider should recover after a success")
	}
}

func TestExponentialBlockDuration(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{3, 2 * time.Minute},
		{4, 4 * time.Minute},
		{5, 8 * time.Minute},
		{6, 15 * time.Minute},
		{10, 15 * time.Minute},
	}
	for _, tc := range cases {
		if got := exponentialBlockDuration(tc.failures); got != tc.want {
			t.Errorf("exponentialBlockDuration(%d) = %v, want %v", tc.failures, got, tc.want)
		}
	}
}

func TestProviderDiagnostics(t *testing.T) {
	movies := &fakeMovieProvider{err: errors.New("boom")}
	music := &fakeMusicProvider{list: domain.MusicList{}}
	svc := NewService(Providers{Movies: movies, Music: music}, &captureFormatter{}, WithCacheDisabled(true))

	for i := 0; i < providerFailureThreshold; i++ {
		_, _ = svc.RunMovie(context.Background(), "some movie query")
	}
	_, _ = svc.RunMusic(context.Background(), "songs by Adele")

	statuses := svc.ProviderDiagnostics()
	if len(statuses) != 2 {
		t.Fatalf("unexpected status count: %d", len(statuses))
	}
	// Sorted by name: fakemovies before fakemusic.
	if statuses[0].Name != "fakemovies" || statuses[1].Name != "fakemusic" {
		t.Fatalf("unexpected order: %q, %q", statuses[0].Name, statuses[1].Name)
	}
	if statuses[0].Available {
		t.Error("blocked provider reported as available")
	}
	if statuses[0].ConsecutiveFailures != providerFailureThreshold || statuses[0].TotalFailures != int64(providerFailureThreshold) {
		t.Errorf("unexpected failure counters: %#v", statuses[0])
	}
	if !statuses[1].Available || statuses[1].TotalRequests != 1 {
		t.Errorf("unexpected healthy status: %#v", statuses[1])
	}
}

func TestTrimCacheEvictsOldestFirst(t *testing.T) {
	svc := NewService(Providers{}, nil)
	svc.cacheMax = 2
	base := time.Now()

	svc.cacheStore(context.Background(), "a", domain.QueryResponse{Content: "a"}, base)
	svc.cacheStore(context.Background(), "b", domain.QueryResponse{Content: "b"}, base.Add(time.Second))
	svc.cacheStore(context.Background(), "c", domain.QueryResponse{Content: "c"}, base.Add(2*time.Second))

	if _, ok := svc.cache["a"]; ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := svc.cache["b"]; !ok {
		t.Error("entry b should remain")
	}
	if _, ok := svc.cache["c"]; !ok {
		t.Error("entry c should remain")
	}
}

func TestIsTimeoutLikeError(t *testing.T) {
	if !isTimeoutLikeError(context.DeadlineExceeded) {
		t.Error("deadline exceeded should count as timeout")
	}
	if !isTimeoutLikeError(errors.New("request timeout while reading body")) {
		t.Error("timeout text should count as timeout")
	}
	if isTimeoutLikeError(errors.New("connection refused")) {
		t.Error("connection refused is not a timeout")
	}
	if isTimeoutLikeError(nil) {
		t.Error("nil error is not a timeout")
	}
}
