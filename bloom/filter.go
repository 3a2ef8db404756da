// Package bloom provides the probabilistic seen-set behind the discovery
// crawl frontier.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter answers "was this URL pushed already?" without storing the URLs
// themselves. A false positive drops a URL from the crawl; a false negative
// cannot happen, so no URL is ever fetched twice because of the filter.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter sizes a filter for n expected URLs at the given false positive
// rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add marks a URL as seen. Re-adding is a no-op.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test reports whether the URL was probably added before.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// EstimatedCount approximates how many distinct URLs have been added.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
