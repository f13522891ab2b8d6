// Package web is the augmentation tier: best-effort Tavily search used to
// gather context when KB retrieval is inconclusive. It never fails a
// request; every error degrades to an empty outcome.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/math-agent/backend/pkg/logger"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	snippetMaxLen  = 300
	scrapeMaxLen   = 2000
)

var (
	curlyQuotes = strings.NewReplacer("’", "'", "“", `"`, "”", `"`)
	nonASCII    = regexp.MustCompile(`[^\x00-\x7F]+`)
)

type Snippet struct {
	Title string
	URL   string
	Text  string
}

type Outcome struct {
	OK       bool
	Snippets []Snippet
}

type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: tavilyEndpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search sanitizes the question and queries Tavily at basic depth, retrying
// once at advanced depth when that returns nothing.
func (c *Client) Search(ctx context.Context, question string, limit int) Outcome {
	query := sanitizeQuery(question)

	logger.Info("Performing web search",
		zap.String("query", query),
		zap.Int("limit", limit),
	)

	snippets, err := c.searchAtDepth(ctx, query, "basic", limit)
	if err != nil {
		logger.Warn("Web search failed", zap.Error(err))
		return Outcome{}
	}

	if len(snippets) == 0 {
		logger.Info("No hits at basic depth, retrying at advanced depth")
		snippets, err = c.searchAtDepth(ctx, query, "advanced", limit)
		if err != nil {
			logger.Warn("Web search retry failed", zap.Error(err))
			return Outcome{}
		}
	}

	return Outcome{OK: true, Snippets: snippets}
}

func (c *Client) searchAtDepth(ctx context.Context, query, depth string, limit int) ([]Snippet, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"api_key":      c.apiKey,
		"query":        query,
		"search_depth": depth,
		"max_results":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var searchResp struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	snippets := make([]Snippet, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		if len(snippets) >= limit {
			break
		}

		text := strings.TrimSpace(r.Content)
		if text == "" {
			text = c.scrapeContent(ctx, r.URL)
		}
		if text == "" {
			continue
		}

		snippets = append(snippets, Snippet{
			Title: r.Title,
			URL:   r.URL,
			Text:  truncateSnippet(text, snippetMaxLen),
		})
	}

	logger.Info("Web search completed",
		zap.String("depth", depth),
		zap.Int("results", len(snippets)),
	)

	return snippets, nil
}

// scrapeContent pulls page body text when a result comes without content.
// Strictly best-effort.
func (c *Client) scrapeContent(ctx context.Context, urlStr string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return ""
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Failed to scrape result page", zap.String("url", urlStr), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())

	if len(text) > scrapeMaxLen {
		text = text[:scrapeMaxLen]
	}

	return text
}

func sanitizeQuery(q string) string {
	q = curlyQuotes.Replace(q)
	q = nonASCII.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

// truncateSnippet cuts text to max characters on a word boundary and
// appends a truncation marker.
func truncateSnippet(text string, max int) string {
	if len(text) <= max {
		return text
	}

	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
