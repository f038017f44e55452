package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fcbb.gov.bh%2Frulebook%2Fcm5&amp;rut=abc">CBB Rulebook <b>CM-5</b></a>
  <a class="result__snippet" href="#">Credit <b>concentration</b> limits for connected counterparties.</a>
</div>
<div class="result">
  <a class="result__a" href="https://ifrs.org/ifrs9">IFRS 9 overview</a>
  <a class="result__snippet" href="#">Expected credit losses explained.</a>
</div>
`

func TestParseResults(t *testing.T) {
	records := parseResults(samplePage, 10)
	require.Len(t, records, 2)

	assert.Equal(t, "CBB Rulebook CM-5", records[0].Title)
	assert.Equal(t, "https://cbb.gov.bh/rulebook/cm5", records[0].URL)
	assert.Equal(t, "Credit concentration limits for connected counterparties.", records[0].Snippet)

	assert.Equal(t, "IFRS 9 overview", records[1].Title)
	assert.Equal(t, "https://ifrs.org/ifrs9", records[1].URL)
}

func TestParseResultsLimit(t *testing.T) {
	records := parseResults(samplePage, 1)
	assert.Len(t, records, 1)
}

func TestResolveRedirect(t *testing.T) {
	t.Run("uddg unwrapped", func(t *testing.T) {
		got := resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Faaoifi.com%2Ffas30&rut=x")
		assert.Equal(t, "https://aaoifi.com/fas30", got)
	})

	t.Run("direct url untouched", func(t *testing.T) {
		assert.Equal(t, "https://bis.org/basel", resolveRedirect("https://bis.org/basel"))
	})
}

func TestFlattenHTML(t *testing.T) {
	assert.Equal(t, "bold and plain", flattenHTML("<b>bold</b> and   plain"))
	assert.Equal(t, "a < b", flattenHTML("a &lt; b"))
}

func newTestWebSearcher(endpoint string) *WebSearcher {
	w := NewWebSearcher(5*time.Second, "", nil)
	w.endpoint = endpoint
	return w
}

func TestSearchSiteScopedRetry(t *testing.T) {
	t.Run("empty results retried once with site scope", func(t *testing.T) {
		var queries []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			queries = append(queries, r.URL.Query().Get("q"))
			if len(queries) == 1 {
				w.Write([]byte("<html><body>no results</body></html>"))
				return
			}
			w.Write([]byte(samplePage))
		}))
		defer srv.Close()

		records := newTestWebSearcher(srv.URL).Search(context.Background(), "CBB large exposure limits", 5)

		require.Len(t, queries, 2)
		assert.Equal(t, "CBB large exposure limits", queries[0])
		assert.Equal(t, "CBB large exposure limits site:cbb.gov.bh", queries[1])
		require.NotEmpty(t, records)
		assert.Equal(t, "CBB Rulebook CM-5", records[0].Title)
	})

	t.Run("scoped search also empty gives up", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte("<html><body>no results</body></html>"))
		}))
		defer srv.Close()

		records := newTestWebSearcher(srv.URL).Search(context.Background(), "IFRS 9 staging", 5)

		assert.Equal(t, 2, calls)
		assert.Empty(t, records)
	})

	t.Run("no implied domain means no retry", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte("<html><body>no results</body></html>"))
		}))
		defer srv.Close()

		records := newTestWebSearcher(srv.URL).Search(context.Background(), "generic banking question", 5)

		assert.Equal(t, 1, calls)
		assert.Empty(t, records)
	})

	t.Run("results on the first pass skip the retry", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(samplePage))
		}))
		defer srv.Close()

		records := newTestWebSearcher(srv.URL).Search(context.Background(), "CBB rulebook CM-5", 5)

		assert.Equal(t, 1, calls)
		require.Len(t, records, 2)
	})

	t.Run("transport failure absorbed", func(t *testing.T) {
		records := newTestWebSearcher("http://127.0.0.1:1").Search(context.Background(), "CBB limits", 5)
		assert.Empty(t, records)
	})
}

func TestImpliedDomain(t *testing.T) {
	cases := map[string]string{
		"CBB large exposure limits":  "cbb.gov.bh",
		"what does the rulebook say": "cbb.gov.bh",
		"IFRS 9 staging":             "ifrs.org",
		"AAOIFI treatment":           "aaoifi.com",
		"FAS 30 provisioning":        "aaoifi.com",
		"basel iii buffers":          "bis.org",
		"generic banking question":   "",
	}
	for query, want := range cases {
		assert.Equal(t, want, impliedDomain(query), "query %q", query)
	}
}
