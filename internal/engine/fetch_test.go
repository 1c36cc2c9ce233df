package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePage = `<html><head><title>Freight Brokers Hate Paperwork</title></head>
<body>
  <nav>Home | About</nav>
  <article>
    <h1>Survey results</h1>
    <p>72% of small brokers still re-key load data by hand.</p>
    <script>track()</script>
  </article>
  <footer>copyright</footer>
</body></html>`

func TestExtractPage(t *testing.T) {
	title, content, err := extractPage(samplePage)
	if err != nil {
		t.Fatalf("extractPage error: %v", err)
	}
	if title != "Freight Brokers Hate Paperwork" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(content, "72% of small brokers") {
		t.Errorf("content missing article text: %q", content)
	}
	for _, noise := range []string{"Home | About", "copyright", "track()"} {
		if strings.Contains(content, noise) {
			t.Errorf("content should not contain %q: %q", noise, content)
		}
	}
}

func TestExtractPage_OGTitleFallback(t *testing.T) {
	html := `<html><head><meta property="og:title" content="OG Title"></head><body><p>text</p></body></html>`
	title, _, err := extractPage(html)
	if err != nil {
		t.Fatal(err)
	}
	if title != "OG Title" {
		t.Errorf("title = %q, want OG Title", title)
	}
}

func TestFetchContentsParallel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	Init(Config{MaxContentChars: 1000, FetchTimeout: 5 * time.Second, MaxFetchURLs: 2})

	results := []SearchResult{
		{URL: srv.URL + "/a"},
		{URL: srv.URL + "/missing"},
		{URL: srv.URL + "/skip"},
	}
	got := FetchContentsParallel(context.Background(), results, map[string]bool{srv.URL + "/skip": true})
	if len(got) != 1 {
		t.Fatalf("expected 1 fetched page, got %d: %v", len(got), got)
	}
	if _, ok := got[srv.URL+"/a"]; !ok {
		t.Errorf("expected content for /a")
	}
}
