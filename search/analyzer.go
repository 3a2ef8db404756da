// Package search implements hybrid retrieval over the dual indexes:
// candidate fusion with tunable weights, version-aware query analysis,
// two-stage reranking, and rule-based score boosts.
package search

import (
	"regexp"
	"strings"
)

// versionRe matches "<product> <major.minor[.patch]>" with an optional "v"
// prefix on the number.
var versionRe = regexp.MustCompile(`(?i)\b(vault|consul|nomad|boundary|terraform|waypoint|packer|vagrant)\s+v?(\d+\.\d+(?:\.\d+)?)`)

// latestRe matches "latest <product>".
var latestRe = regexp.MustCompile(`(?i)\blatest\s+(vault|consul|nomad|boundary|terraform|waypoint|packer|vagrant)\b`)

// QueryInfo is what query analysis extracts from the raw query text.
type QueryInfo struct {
	// Product is the product a version reference names, empty when none.
	Product string

	// Version is the referenced release, e.g. "1.9" or "1.16.2".
	Version string

	// Latest is set for "latest <product>" queries.
	Latest bool
}

// IsVersionQuery reports whether the query pinned a product release.
// Such queries widen the retrieval pool and enable exact-match boosting,
// because version-matching documents are globally rare in the corpus.
func (q QueryInfo) IsVersionQuery() bool {
	return q.Version != "" || q.Latest
}

// AnalyzeQuery extracts a (product, version) reference from the query.
func AnalyzeQuery(query string) QueryInfo {
	if m := versionRe.FindStringSubmatch(query); m != nil {
		return QueryInfo{
			Product: strings.ToLower(m[1]),
			Version: m[2],
		}
	}
	if m := latestRe.FindStringSubmatch(query); m != nil {
		return QueryInfo{
			Product: strings.ToLower(m[1]),
			Latest:  true,
		}
	}
	return QueryInfo{}
}

// MatchesVersionURL reports whether the URL names the queried product and
// contains an exact version token. Documentation sites write versions into
// paths as "v1_9_x", "v1.9" or plain "1.9"; all are accepted.
func MatchesVersionURL(url string, info QueryInfo) bool {
	if info.Product == "" || info.Version == "" {
		return false
	}
	lower := strings.ToLower(url)
	if !strings.Contains(lower, info.Product) {
		return false
	}

	underscored := strings.ReplaceAll(info.Version, ".", "_")
	return strings.Contains(lower, "v"+underscored) ||
		strings.Contains(lower, "v"+info.Version) ||
		strings.Contains(lower, info.Version) ||
		strings.Contains(lower, underscored+"_x")
}
