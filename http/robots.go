package http

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.CrawlPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy implements docsearch.CrawlPolicy from a site's robots.txt.
// Paths under an explicit allow-list of prefixes bypass the published rules;
// everything else defers to the Disallow directives that apply to our
// user agent. If robots.txt cannot be fetched or parsed the policy allows
// everything, matching well-behaved-crawler convention for absent rules.
type RobotsPolicy struct {
	allowPrefixes []string
	disallow      []string
}

// NewRobotsPolicy fetches and parses robots.txt for the site hosting
// siteURL. allowPrefixes are URL path prefixes exempt from the rules.
func NewRobotsPolicy(ctx context.Context, client *http.Client, siteURL, userAgent string, allowPrefixes []string) *RobotsPolicy {
	p := &RobotsPolicy{allowPrefixes: allowPrefixes}

	if client == nil {
		client = http.DefaultClient
	}

	base, err := url.Parse(siteURL)
	if err != nil {
		return p
	}
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return p
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return p
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return p
	}

	p.disallow = parseDisallowRules(resp.Body, userAgent)
	return p
}

// parseDisallowRules extracts the Disallow paths from the robots.txt groups
// that apply to ua: the wildcard group plus any group whose user-agent token
// is a prefix of ua (case-insensitive).
func parseDisallowRules(body io.Reader, ua string) []string {
	var rules []string
	applies := false
	uaLower := strings.ToLower(ua)

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "user-agent:"):
			agent := strings.TrimSpace(line[len("user-agent:"):])
			applies = agent == "*" || strings.HasPrefix(uaLower, strings.ToLower(agent))
		case strings.HasPrefix(lower, "disallow:") && applies:
			path := strings.TrimSpace(line[len("disallow:"):])
			if path != "" {
				rules = append(rules, path)
			}
		}
	}

	return rules
}

// Allowed reports whether fetching the URL is permitted.
func (p *RobotsPolicy) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	for _, prefix := range p.allowPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}

	for _, rule := range p.disallow {
		if strings.HasPrefix(u.Path, rule) {
			return false
		}
	}

	return true
}
