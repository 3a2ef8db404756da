package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsearch"
)

// ExtractLinks parses HTML and returns same-host links resolved against
// baseURL, restricted to pathPrefix when non-empty. Links are deduplicated
// in document order with fragments stripped. Used to walk documentation
// index pages for URLs absent from the sitemap.
func ExtractLinks(html, baseURL, pathPrefix string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			return
		}
		if isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}
		if !isSameHost(base, resolved) {
			return
		}
		if pathPrefix != "" {
			u, err := url.Parse(resolved)
			if err != nil || !strings.HasPrefix(u.Path, pathPrefix) {
				return
			}
		}

		if seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})

	return links, nil
}

// resolveURL resolves a relative URL against a base URL. Returns empty
// string when the href cannot be parsed or resolves back to the base page
// itself. Fragments are stripped so anchor variants collapse to one URL.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isSameHost checks if the resolved URL has the same host as the base URL.
// Exact host matching, so subdomains are considered different hosts.
func isSameHost(base *url.URL, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
