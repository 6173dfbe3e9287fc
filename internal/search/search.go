package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is a single web search hit.
type Result struct {
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Client performs web searches used to ground briefing generation.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// BuildQuery assembles the multi-topic research query for a destination.
func BuildQuery(destination, month string) string {
	topics := []string{
		fmt.Sprintf("cultural etiquette and tipping rules %s", destination),
		fmt.Sprintf("must eat local dishes food guide %s not restaurants", destination),
		fmt.Sprintf("neighborhood guide %s vibe check", destination),
		fmt.Sprintf("weather and packing tips %s in %s", destination, month),
		fmt.Sprintf("common tourist scams %s", destination),
		fmt.Sprintf("coordinates of major neighborhoods %s", destination),
	}
	return strings.Join(topics, "\n")
}

// FormatContext renders search results as a context block for the LLM.
func FormatContext(results []Result) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("- %s (Source: %s)", r.Content, r.URL))
	}
	return strings.Join(lines, "\n")
}

// SourceURLs collects the distinct source URLs in result order.
func SourceURLs(results []Result) []string {
	seen := make(map[string]bool, len(results))
	var urls []string
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		urls = append(urls, r.URL)
	}
	return urls
}
