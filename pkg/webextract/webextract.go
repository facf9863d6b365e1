package webextract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	maxRedirects    = 5
	maxResponseSize = 4 * 1024 * 1024
	// maxTextRunes caps the extracted text so a single source page cannot
	// blow up the strategy prompt.
	maxTextRunes = 12000
)

var httpClient = &fasthttp.Client{
	Name:                "janus-webextract",
	ReadTimeout:         20 * time.Second,
	WriteTimeout:        10 * time.Second,
	MaxResponseBodySize: maxResponseSize,
	MaxConnsPerHost:     4,
}

// PageContent is the readable part of a fetched web page.
type PageContent struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// FetchText downloads a web page and extracts its readable text so it can be
// fed into campaign strategy generation.
func FetchText(ctx context.Context, rawURL string) (PageContent, error) {
	if err := ctx.Err(); err != nil {
		return PageContent{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	if err := httpClient.DoRedirects(req, resp, maxRedirects); err != nil {
		return PageContent{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return PageContent{}, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode())
	}

	content, err := ExtractFromHTML(bytes.NewReader(resp.Body()), rawURL)
	if err != nil {
		return PageContent{}, err
	}

	logrus.Debugf("[WEBEXTRACT] extracted %d chars from %s", len(content.Text), rawURL)
	return content, nil
}

// ExtractFromHTML parses an HTML document and returns its title plus the
// visible text of headings, paragraphs and list items. Script, style and
// other non-content nodes are dropped.
func ExtractFromHTML(r io.Reader, sourceURL string) (PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return PageContent{}, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, iframe, svg, nav, footer").Remove()

	title := normalizeWhitespace(doc.Find("title").First().Text())

	var lines []string
	doc.Find("h1, h2, h3, h4, p, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		text := normalizeWhitespace(s.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})

	text := strings.Join(lines, "\n")
	if text == "" {
		// Pages without semantic markup still get a best-effort body dump.
		text = normalizeWhitespace(doc.Find("body").Text())
	}
	text = truncateRunes(text, maxTextRunes)

	return PageContent{URL: sourceURL, Title: title, Text: text}, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + " [truncated]"
}
