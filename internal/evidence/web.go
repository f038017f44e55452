package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	ddgEndpoint      = "https://html.duckduckgo.com/html/"
	defaultUserAgent = "RegulAIte/1.0 (Regulatory Research)"
	maxResponseBytes = 500 * 1024
)

// authoritativeDomains maps query keywords to the domain that publishes
// the matching primary source. Used for the one site-scoped retry when
// an unscoped search comes back empty.
var authoritativeDomains = []struct {
	keyword string
	domain  string
}{
	{"cbb", "cbb.gov.bh"},
	{"rulebook", "cbb.gov.bh"},
	{"ifrs", "ifrs.org"},
	{"ias ", "ifrs.org"},
	{"aaoifi", "aaoifi.com"},
	{"fas ", "aaoifi.com"},
	{"basel", "bis.org"},
}

// WebSearcher queries DuckDuckGo's HTML endpoint. All transport and
// parse failures are absorbed into an empty result list.
type WebSearcher struct {
	client    *http.Client
	endpoint  string
	userAgent string
	logger    *zap.Logger
}

// NewWebSearcher builds a web searcher with the given timeout. An empty
// userAgent selects the default.
func NewWebSearcher(timeout time.Duration, userAgent string, logger *zap.Logger) *WebSearcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSearcher{
		client:    &http.Client{Timeout: timeout},
		endpoint:  ddgEndpoint,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Search returns up to k web records. When the unscoped query yields
// nothing and the query names a known authority, it retries once with a
// site-restricted query before giving up.
func (w *WebSearcher) Search(ctx context.Context, query string, k int) []Record {
	if k <= 0 {
		k = 10
	}
	records, err := w.search(ctx, query, k)
	if err != nil {
		w.logger.Warn("web search failed", zap.Error(err))
		return nil
	}
	if len(records) > 0 {
		return records
	}

	if domain := impliedDomain(query); domain != "" {
		scoped := fmt.Sprintf("%s site:%s", query, domain)
		records, err = w.search(ctx, scoped, k)
		if err != nil {
			w.logger.Warn("scoped web search failed",
				zap.String("domain", domain), zap.Error(err))
			return nil
		}
	}
	return records
}

func impliedDomain(query string) string {
	q := strings.ToLower(query)
	for _, entry := range authoritativeDomains {
		if strings.Contains(q, entry.keyword) {
			return entry.domain
		}
	}
	return ""
}

func (w *WebSearcher) search(ctx context.Context, query string, k int) ([]Record, error) {
	searchURL := w.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return parseResults(string(body), k), nil
}

// DuckDuckGo HTML results: <a class="result__a" href="...">title</a> and
// <a class="result__snippet" ...>snippet</a>.
var (
	resultLink    = regexp.MustCompile(`<a[^>]*class="result__a"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	resultSnippet = regexp.MustCompile(`<a[^>]*class="result__snippet"[^>]*>(.*?)</a>`)
)

func parseResults(page string, k int) []Record {
	links := resultLink.FindAllStringSubmatch(page, -1)
	snippets := resultSnippet.FindAllStringSubmatch(page, -1)

	var records []Record
	for i, m := range links {
		if len(records) >= k || len(m) < 3 {
			break
		}
		rec := Record{
			Title: flattenHTML(m[2]),
			URL:   resolveRedirect(m[1]),
		}
		if i < len(snippets) && len(snippets[i]) > 1 {
			rec.Snippet = clampSnippet(flattenHTML(snippets[i][1]))
		}
		if rec.Title == "" && rec.Snippet == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// resolveRedirect unwraps DuckDuckGo's uddg redirect URLs.
func resolveRedirect(raw string) string {
	if !strings.Contains(raw, "uddg=") {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

// flattenHTML strips markup (snippets carry <b> highlights) and decodes
// entities, returning plain text.
func flattenHTML(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tokenizer.Text())
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
