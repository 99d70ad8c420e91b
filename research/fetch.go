package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxContent bounds the text returned for a page.
const DefaultMaxContent = 15000

// Page is the readable content of a fetched URL.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Fetcher downloads pages and extracts their readable text.
type Fetcher struct {
	client     *http.Client
	maxContent int
}

// NewFetcher returns a fetcher using client, or a client with a 30 second
// timeout when nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, maxContent: DefaultMaxContent}
}

// Fetch downloads url and returns its text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "agentcrew/1.0 (research fetcher)")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}

	title, text, err := ExtractText(string(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	page := Page{URL: url, Title: title, Content: text}
	if len(page.Content) > f.maxContent {
		page.Content = page.Content[:f.maxContent]
		page.Truncated = true
	}
	return page, nil
}

// ExtractText returns the title and the readable text of an HTML document.
// Scripts, styles and navigation chrome are dropped; headings become
// markdown headings and list items bullets.
func ExtractText(html string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	doc.Find("script, style, nav, footer, header, aside, iframe, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var b strings.Builder
	doc.Find("body").Find("h1, h2, h3, h4, h5, h6, p, li, pre").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		tag := goquery.NodeName(s)
		switch {
		case len(tag) == 2 && tag[0] == 'h':
			b.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " " + collapse(text) + "\n\n")
		case tag == "li":
			b.WriteString("- " + collapse(text) + "\n")
		case tag == "pre":
			b.WriteString("```\n" + text + "\n```\n\n")
		default:
			b.WriteString(collapse(text) + "\n\n")
		}
	})

	return title, strings.TrimSpace(b.String()), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
