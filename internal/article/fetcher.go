package article

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"newsbrief/internal/domain"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
	DefaultTimeout = 20 * time.Second

	maxPageBytes = 10 << 20
)

// Fetcher downloads a news page and extracts its main article.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

func NewFetcher(client *http.Client, userAgent string, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch returns the title and body text of the article at rawURL. Every
// failure is a fetch error. A page without extractable text yields an
// article with an empty body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (domain.Article, error) {
	article, err := f.fetch(ctx, rawURL)
	if err != nil {
		return domain.Article{}, domain.FetchError(err)
	}

	return article, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (domain.Article, error) {
	pageURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return domain.Article{}, fmt.Errorf("parse url: %w", err)
	}

	page, err := f.download(ctx, pageURL)
	if err != nil {
		return domain.Article{}, err
	}

	extracted, err := readability.FromReader(bytes.NewReader(page), pageURL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("extract article: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domain.Article{}, fmt.Errorf("create document from reader: %w", err)
	}

	body, err := flattenHTML(extracted.Content)
	if err != nil {
		return domain.Article{}, fmt.Errorf("flatten content: %w", err)
	}

	title := strings.TrimSpace(extracted.Title)
	if title == "" {
		title = pageTitle(doc)
	}

	markdown := ""
	if strings.TrimSpace(extracted.Content) != "" {
		converted, convertErr := htmltomarkdown.ConvertString(extracted.Content)
		if convertErr != nil {
			f.log.WarnContext(ctx, "Failed to convert article to markdown",
				"error", convertErr,
				"url", pageURL.String())
		} else {
			markdown = strings.TrimSpace(converted)
		}
	}

	return domain.Article{
		URL:      pageURL.String(),
		Title:    title,
		Body:     body,
		Markdown: markdown,
		Excerpt:  strings.TrimSpace(extracted.Excerpt),
		SiteName: strings.TrimSpace(extracted.SiteName),
	}, nil
}

// download returns the page decoded to UTF-8.
func (f *Fetcher) download(ctx context.Context, pageURL *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req) //nolint:gosec // user supplied article URL
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", pageURL.String())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if err = checkContentType(contentType); err != nil {
		return nil, err
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxPageBytes), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}

	page, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return page, nil
}

func checkContentType(contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("parse content type: %w", err)
	}

	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return nil
	default:
		return errors.New("not an html page (content type = " + mediaType + ")")
	}
}
