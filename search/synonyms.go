package search

import "strings"

// MaxExpansionTerms caps how many synonym terms query expansion may append,
// so expansion augments the query without diluting its intent.
const MaxExpansionTerms = 5

// synonyms is a fixed dictionary of documentation-domain terms and the
// alternates authors use for them.
var synonyms = map[string][]string{
	"login":       {"auth", "authentication"},
	"auth":        {"authentication", "login"},
	"unseal":      {"seal"},
	"secret":      {"credential"},
	"credentials": {"secrets"},
	"acl":         {"policy", "token"},
	"policy":      {"acl"},
	"mesh":        {"connect"},
	"install":     {"installation", "setup"},
	"upgrade":     {"update", "migration"},
	"ha":          {"replication", "failover"},
	"cluster":     {"server", "node"},
	"tls":         {"certificate", "https"},
	"backup":      {"snapshot", "restore"},
	"config":      {"configuration"},
	"delete":      {"remove", "destroy"},
}

// ExpandQuery appends up to MaxExpansionTerms synonyms for terms found in
// the query. The original query text is never replaced, only extended, and
// terms the query already contains are not repeated.
func ExpandQuery(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = true
	}

	var added []string
	for _, f := range fields {
		for _, syn := range synonyms[f] {
			if present[syn] {
				continue
			}
			present[syn] = true
			added = append(added, syn)
			if len(added) == MaxExpansionTerms {
				return query + " " + strings.Join(added, " ")
			}
		}
	}

	if len(added) == 0 {
		return query
	}
	return query + " " + strings.Join(added, " ")
}
