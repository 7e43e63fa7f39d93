package extractor

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxPageChars bounds the text handed to the model.
const maxPageChars = 16000

var priceExpr = regexp.MustCompile(`(?i)(rs\.?|lkr|\$|€|£)\s*\d|\d[\d,]*(\.\d{2})?\s*(/-|lkr)`)

// Page is the menu-relevant text of a web page.
type Page struct {
	URL   string
	Title string
	Lines []string
}

// Text joins the lines, truncated to maxPageChars.
func (p Page) Text() string {
	var b strings.Builder
	if p.Title != "" {
		b.WriteString(p.Title)
		b.WriteString("\n")
	}
	for _, line := range p.Lines {
		if b.Len()+len(line)+1 > maxPageChars {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Scraper fetches pages and flattens them to menu-like lines.
type Scraper struct {
	client *http.Client
}

func NewScraper(client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scraper{client: client}
}

func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	page := flatten(doc)
	page.URL = pageURL
	return page, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "hotelops-menu-import/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, text: resp.Status}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

type httpStatusError struct {
	status int
	text   string
}

func (e *httpStatusError) Error() string {
	return "page returned " + e.text
}

// flatten keeps headings, list items, table rows and any block that mentions a price.
func flatten(doc *goquery.Document) *Page {
	doc.Find("script, style, noscript, nav, footer, header, form, iframe, svg").Remove()

	page := &Page{Title: clean(doc.Find("title").First().Text())}
	seen := map[string]struct{}{}
	add := func(text string) {
		text = clean(text)
		if text == "" || len(text) > 400 {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		page.Lines = append(page.Lines, text)
	}

	doc.Find("h1, h2, h3, h4, li, tr, dt, dd, p, div, span").Each(func(_ int, sel *goquery.Selection) {
		switch goquery.NodeName(sel) {
		case "h1", "h2", "h3", "h4", "dt", "dd":
			add(sel.Text())
		case "li", "tr":
			add(rowText(sel))
		default:
			// leaf blocks only, otherwise every wrapper repeats its children
			if sel.Children().Length() > 0 {
				return
			}
			if text := sel.Text(); priceExpr.MatchString(text) || goquery.NodeName(sel) == "p" {
				add(text)
			}
		}
	})
	return page
}

func rowText(sel *goquery.Selection) string {
	cells := sel.Find("td, th")
	if cells.Length() == 0 {
		return sel.Text()
	}
	parts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		if t := clean(c.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " | ")
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
