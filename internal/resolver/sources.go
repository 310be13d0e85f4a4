package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

var errNoResult = errors.New("no result for isbn")

// fetchHTML GETs rawURL and parses the body. The resolved request URL is
// returned alongside so relative hrefs can be made absolute.
func (r *Resolver) fetchHTML(ctx context.Context, rawURL string) (*html.Node, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("resolver: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) comicshelf/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("resolver: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("resolver: fetch %s: status %d", rawURL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("resolver: parse %s: %w", rawURL, err)
	}
	return doc, resp.Request.URL, nil
}

// searchAmazon runs an Amazon keyword search for the ISBN, follows the
// first result, and scrapes title and author from the product page.
func (r *Resolver) searchAmazon(ctx context.Context, isbn string) ([]string, string, error) {
	doc, base, err := r.fetchHTML(ctx, r.cfg.AmazonSearchURL+isbn)
	if err != nil {
		return nil, "", err
	}

	search := findByID(doc, "search")
	if search == nil {
		return nil, "", errNoResult
	}
	slot := firstByClass(search, "s-main-slot")
	if slot == nil {
		return nil, "", errNoResult
	}
	link := firstAnchor(slot)
	if link == nil {
		return nil, "", errNoResult
	}
	detailURL, err := base.Parse(attrVal(link, "href"))
	if err != nil {
		return nil, "", fmt.Errorf("resolver: bad result href: %w", err)
	}

	page, _, err := r.fetchHTML(ctx, detailURL.String())
	if err != nil {
		return nil, "", err
	}
	title := text(findByID(page, "productTitle"))
	if title == "" {
		return nil, "", errNoResult
	}

	return amazonAuthors(page), title, nil
}

// amazonAuthors collects author names from the byline, skipping
// contributor links that are navigation rather than names. When the
// filter removes everything the unfiltered set is used, and an empty
// byline falls back to the unknown-author placeholder.
func amazonAuthors(page *html.Node) []string {
	byline := findByID(page, "bylineInfo")
	if byline == nil {
		return []string{AuthorUnknown}
	}
	var all, kept []string
	eachByClass(byline, "author", func(n *html.Node) {
		for _, a := range anchors(n) {
			name := text(a)
			if name == "" {
				continue
			}
			all = append(all, name)
			if strings.Contains(name, "原著") ||
				strings.Contains(name, "著者ページ") ||
				strings.Contains(name, "検索結果") {
				continue
			}
			kept = append(kept, name)
		}
	})
	if len(kept) > 0 {
		return kept
	}
	if len(all) > 0 {
		return all
	}
	return []string{AuthorUnknown}
}

// searchYodobashi runs a Yodobashi keyword search and scrapes the first
// product hit.
func (r *Resolver) searchYodobashi(ctx context.Context, isbn string) ([]string, string, error) {
	doc, base, err := r.fetchHTML(ctx, r.cfg.YodobashiSearchURL+isbn)
	if err != nil {
		return nil, "", err
	}
	if firstByClass(doc, "noResult") != nil {
		return nil, "", errNoResult
	}
	block := firstByClass(doc, "pListBlock")
	if block == nil {
		return nil, "", errNoResult
	}
	link := firstAnchor(block)
	if link == nil {
		return nil, "", errNoResult
	}
	detailURL, err := base.Parse(attrVal(link, "href"))
	if err != nil {
		return nil, "", fmt.Errorf("resolver: bad result href: %w", err)
	}

	page, _, err := r.fetchHTML(ctx, detailURL.String())
	if err != nil {
		return nil, "", err
	}
	title := text(findByID(page, "products_maintitle"))
	if title == "" {
		return nil, "", errNoResult
	}

	var authors []string
	if block := findByID(page, "js_bookAuthor"); block != nil {
		for _, a := range anchors(block) {
			if name := text(a); name != "" {
				authors = append(authors, name)
			}
		}
	}
	if len(authors) == 0 {
		authors = []string{AuthorUnknown}
	}
	return authors, title, nil
}

type googleVolume struct {
	VolumeInfo struct {
		Title   string   `json:"title"`
		Authors []string `json:"authors"`
	} `json:"volumeInfo"`
}

type googleResult struct {
	TotalItems int            `json:"totalItems"`
	Items      []googleVolume `json:"items"`
}

// searchGoogle queries the Google Books volumes API, the only source
// with a stable machine-readable format.
func (r *Resolver) searchGoogle(ctx context.Context, isbn string) ([]string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.GoogleBooksURL+isbn, nil)
	if err != nil {
		return nil, "", fmt.Errorf("resolver: build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("resolver: fetch google books: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("resolver: google books: status %d", resp.StatusCode)
	}

	var result googleResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", fmt.Errorf("resolver: decode google books: %w", err)
	}
	if result.TotalItems == 0 || len(result.Items) == 0 {
		return nil, "", errNoResult
	}
	info := result.Items[0].VolumeInfo
	if info.Title == "" {
		return nil, "", errNoResult
	}
	authors := info.Authors
	if len(authors) == 0 {
		authors = []string{AuthorUnknown}
	}
	return authors, info.Title, nil
}
