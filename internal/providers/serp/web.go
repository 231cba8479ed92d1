package serp

import (
	"context"
	"net/url"
	"strconv"

	"unifiedsearch/queryservice/internal/domain"
)

// WebClient runs general web searches through SerpAPI.
type WebClient struct {
	*Client
}

func NewWebClient(client *Client) *WebClient {
	return &WebClient{Client: client}
}

func (c *WebClient) Name() string { return "serpweb" }

type webResponse struct {
	KnowledgeGraph *knowledgeGraph `json:"knowledge_graph"`
	OrganicResults []organicResult `json:"organic_results"`
}

type knowledgeGraph struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// WebSearch returns the knowledge graph (when the engine produced one) plus up
// to count organic hits. A missing organic_results block is an empty result,
// not a fault.
func (c *WebClient) WebSearch(ctx context.Context, query string, count int) (domain.WebResult, error) {
	if count <= 0 {
		count = 5
	}

	params := url.Values{
		"q":   {query},
		"num": {strconv.Itoa(count)},
	}

	var response webResponse
	if err := c.getJSON(ctx, params, &response); err != nil {
		return domain.WebResult{}, err
	}

	result := domain.WebResult{
		SearchQuery:    query,
		OrganicResults: []domain.OrganicResult{},
	}
	if response.KnowledgeGraph != nil {
		result.KnowledgeGraph = &domain.KnowledgeGraph{
			Title:       response.KnowledgeGraph.Title,
			Type:        response.KnowledgeGraph.Type,
			Description: response.KnowledgeGraph.Description,
			Thumbnail:   response.KnowledgeGraph.Thumbnail,
		}
	}

	organic := response.OrganicResults
	if len(organic) > count {
		organic = organic[:count]
	}
	for _, item := range organic {
		result.OrganicResults = append(result.OrganicResults, domain.OrganicResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return result, nil
}
