package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// extractionRule turns a parsed thread page into absolute media links.
type extractionRule interface {
	links(doc *goquery.Document, page *url.URL, exts []string) []string
}

// genericRule is used by 2ch-like markup: every anchor pointing at a media file,
// plus anchors nested in ".file" blocks for pages where the first pass misses some.
type genericRule struct{}

func (genericRule) links(doc *goquery.Document, page *url.URL, exts []string) []string {
	var found []string
	collect := func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !hasExtension(href, exts) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			log.Debug().Err(err).Str("href", href).Msg("skipping malformed link")
			return
		}
		found = append(found, page.ResolveReference(ref).String())
	}

	doc.Find("a[href]").Each(collect)
	doc.Find(".file a[href]").Each(collect)

	return found
}

// imageBoardRule reads the full-size links behind 4chan thumbnails.
type imageBoardRule struct{}

func (imageBoardRule) links(doc *goquery.Document, _ *url.URL, exts []string) []string {
	var found []string
	doc.Find("a.fileThumb").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if !hasExtension(href, exts) {
			return
		}
		switch {
		case strings.HasPrefix(href, "//"):
			href = "https:" + href
		case strings.HasPrefix(href, "/"):
			href = fourChanBoardsHost + href
		}
		found = append(found, href)
	})
	return found
}

// MediaLinks fetches the thread page and returns the unique media links for the given extensions.
//
// It never fails: a non-200 page or any fetch/parse error is reported through logf
// and results in an empty slice.
func (c *Client) MediaLinks(ctx context.Context, thread Thread, exts []string, logf func(string)) []MediaReference {
	if logf == nil {
		logf = func(string) {}
	}
	logf(fmt.Sprintf("Fetching links for %s…", strings.Join(exts, ", ")))

	links, err := c.fetchLinks(ctx, thread, exts)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.StatusCode != 0 {
			logf(fmt.Sprintf("Error fetching page: HTTP %d", te.StatusCode))
		} else {
			logf(fmt.Sprintf("Error fetching links: %v", err))
		}
		return nil
	}

	seen := make(map[string]struct{}, len(links))
	refs := make([]MediaReference, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		refs = append(refs, NewMediaReference(link))
	}

	log.Debug().
		Str("site", thread.Site.String()).
		Strs("extensions", exts).
		Int("found", len(refs)).
		Msg("extracted media links")

	return refs
}

func (c *Client) fetchLinks(ctx context.Context, thread Thread, exts []string) ([]string, error) {
	if thread.URL == nil {
		return nil, ErrInvalidURL
	}

	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	res, err := c.GetURL(ctx, thread.URL.String())
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, StatusError(thread.URL.String(), res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't parse thread page", err)
	}

	return thread.Site.rule().links(doc, thread.URL, exts), nil
}
