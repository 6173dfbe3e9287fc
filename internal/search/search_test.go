package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("Rome, Italy", "April")
	for _, want := range []string{
		"tipping rules Rome, Italy",
		"neighborhood guide Rome, Italy",
		"packing tips Rome, Italy in April",
		"coordinates of major neighborhoods Rome, Italy",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
}

func TestFormatContext(t *testing.T) {
	results := []Result{
		{Content: "Tipping is not expected.", URL: "https://example.com/a"},
		{Content: "Trastevere is lively at night.", URL: "https://example.com/b"},
	}
	got := FormatContext(results)
	want := "- Tipping is not expected. (Source: https://example.com/a)\n- Trastevere is lively at night. (Source: https://example.com/b)"
	if got != want {
		t.Errorf("FormatContext = %q, want %q", got, want)
	}
}

func TestSourceURLsDeduplicates(t *testing.T) {
	results := []Result{
		{URL: "https://example.com/a"},
		{URL: "https://example.com/a"},
		{URL: ""},
		{URL: "https://example.com/b"},
	}
	got := SourceURLs(results)
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SourceURLs = %v, want %v", got, want)
	}
}

func TestTavilyClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.APIKey != "test-key" || req.MaxResults != 3 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Guide", "url": "https://example.com", "content": "Useful intel."},
			},
		})
	}))
	defer srv.Close()

	client, err := NewTavilyClient("test-key")
	if err != nil {
		t.Fatal(err)
	}
	client.HTTPClient = srv.Client()

	// Point the request at the test server by rewriting the transport.
	client.HTTPClient.Transport = rewriteHost(srv.URL)

	results, err := client.Search(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Content != "Useful intel." {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestTavilyClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, _ := NewTavilyClient("bad-key")
	client.HTTPClient = srv.Client()
	client.HTTPClient.Transport = rewriteHost(srv.URL)

	if _, err := client.Search(context.Background(), "anything", 3); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestNewTavilyClientRequiresKey(t *testing.T) {
	if _, err := NewTavilyClient(""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

// rewriteHost redirects any outgoing request to the test server.
type rewriteHost string

func (h rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	target := strings.TrimPrefix(string(h), "http://")
	req.URL.Scheme = "http"
	req.URL.Host = target
	return http.DefaultTransport.RoundTrip(req)
}
