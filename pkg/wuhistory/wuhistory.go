// Package wuhistory scrapes Windows update-history pages into raw
// announcement links for the catalog parser.
package wuhistory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/mfatouaki/patchscope/internal/utils"
	"github.com/mfatouaki/patchscope/pkg/catalog"
	"github.com/mfatouaki/patchscope/pkg/whttp"
)

// DefaultPageURLs are the vendor update-history pages covering the tracked
// client release lines.
var DefaultPageURLs = []string{
	"https://support.microsoft.com/en-us/topic/windows-10-update-history-857b8ccb-71e4-49e5-b3f6-7073197d98fb",
	"https://support.microsoft.com/en-us/topic/windows-11-version-23h2-update-history-59875222-b990-4bd9-932f-91a5954de434",
	"https://support.microsoft.com/en-us/topic/windows-11-version-24h2-update-history-0929c747-1815-4543-8461-0160d16f15e5",
}

var anchorKBRe = regexp.MustCompile(`KB\d+`)

// FetchLinks downloads each page and returns every sidebar anchor that
// announces a KB. A page that fails to download is skipped with a warning;
// the caller still gets whatever the remaining pages produced.
func FetchLinks(urls []string, client *retryablehttp.Client) []catalog.RawLink {
	var links []catalog.RawLink
	for _, u := range urls {
		pageLinks, err := fetchPage(u, client)
		if err != nil {
			utils.Log.Warnf("skipping update-history page %s: %v", u, err)
			continue
		}
		utils.Log.Debugf("%d announcement links on %s", len(pageLinks), u)
		links = append(links, pageLinks...)
	}
	return links
}

func fetchPage(url string, client *retryablehttp.Client) ([]catalog.RawLink, error) {
	res, err := whttp.Send(&whttp.Request{Method: "GET", URL: url}, client)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return extractLinks(res.Body)
}

// extractLinks pulls every KB-announcing anchor out of a page body.
func extractLinks(body string) ([]catalog.RawLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var links []catalog.RawLink
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !anchorKBRe.MatchString(text) {
			return
		}
		href, _ := s.Attr("href")
		outer, err := goquery.OuterHtml(s)
		if err != nil {
			outer = text
		}
		links = append(links, catalog.RawLink{Title: text, Href: href, OuterHTML: outer})
	})
	return links, nil
}
