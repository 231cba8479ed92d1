package serp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"unifiedsearch/queryservice/internal/domain"
)

// NewsClient runs Google News searches through SerpAPI.
type NewsClient struct {
	*Client
}

func NewNewsClient(client *Client) *NewsClient {
	return &NewsClient{Client: client}
}

func (c *NewsClient) Name() string { return "serpnews" }

type newsResponse struct {
	NewsResults []newsArticle `json:"news_results"`
}

type newsArticle struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	Date      string `json:"date"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Snippet   string `json:"snippet"`
}

// FetchNews searches the news vertical for the topic. The literal " news"
// suffix biases ambiguous topics toward coverage rather than homepages.
func (c *NewsClient) FetchNews(ctx context.Context, topic string, count int) (domain.NewsList, error) {
	if count <= 0 {
		count = 5
	}

	params := url.Values{
		"q":   {topic + " news"},
		"tbm": {"nws"},
		// Over-fetch so dropped entries do not shrink the page below count.
		"num": {strconv.Itoa(count * 2)},
	}

	var response newsResponse
	if err := c.getJSON(ctx, params, &response); err != nil {
		return domain.NewsList{}, err
	}
	if len(response.NewsResults) == 0 {
		return domain.NewsList{Failure: fmt.Sprintf("No news found for: %s", topic)}, nil
	}

	articles := response.NewsResults
	if len(articles) > count {
		articles = articles[:count]
	}

	items := make([]domain.NewsItem, 0, len(articles))
	for _, article := range articles {
		items = append(items, domain.NewsItem{
			Title:     orDefault(article.Title, "Untitled Article"),
			Source:    orDefault(article.Source, "Unknown Source"),
			Date:      orDefault(article.Date, "Unknown Date"),
			Link:      orDefault(article.Link, "#"),
			Thumbnail: orDefault(article.Thumbnail, placeholderURL),
			Snippet:   orDefault(article.Snippet, "No description available"),
		})
	}
	return domain.NewsList{Items: items}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
