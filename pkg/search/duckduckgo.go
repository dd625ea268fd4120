package search

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGoClient scrapes the HTML result page, there is no official API.
type DuckDuckGoClient struct {
	client     *http.Client
	userAgents []string
}

func NewDuckDuckGoClient() *DuckDuckGoClient {
	return &DuckDuckGoClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
		},
	}
}

func (c *DuckDuckGoClient) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.buildSearchURL(query, opts), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return parseResults(doc, opts.MaxResults), nil
}

func (c *DuckDuckGoClient) buildSearchURL(query string, opts SearchOptions) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", opts.Region)

	if opts.SafeSearch == "off" {
		params.Set("kp", "-2")
	} else if opts.SafeSearch == "on" {
		params.Set("kp", "1")
	}

	return "https://html.duckduckgo.com/html/?" + params.Encode()
}

func (c *DuckDuckGoClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgents[rand.Intn(len(c.userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
}

func parseResults(doc *goquery.Document, maxResults int) []SearchResult {
	var results []SearchResult

	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}

		result := SearchResult{
			URL:   extractActualURL(href),
			Title: strings.TrimSpace(link.Text()),
			Body:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		}
		if result.URL == "" || result.Title == "" {
			return true
		}

		results = append(results, result)
		return len(results) < maxResults
	})

	return results
}

// extractActualURL unwraps DuckDuckGo's uddg redirect wrapper.
func extractActualURL(ddgURL string) string {
	if strings.Contains(ddgURL, "uddg=") {
		uddgStart := strings.Index(ddgURL, "uddg=")
		uddgStart += 5
		uddgEnd := strings.Index(ddgURL[uddgStart:], "&")
		if uddgEnd == -1 {
			uddgEnd = len(ddgURL) - uddgStart
		}

		encoded := ddgURL[uddgStart : uddgStart+uddgEnd]
		decoded, err := url.QueryUnescape(encoded)
		if err != nil {
			return ddgURL
		}
		return decoded
	}

	if strings.HasPrefix(ddgURL, "//") {
		return "https:" + ddgURL
	}

	return ddgURL
}
