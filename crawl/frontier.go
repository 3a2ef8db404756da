package crawl

import (
	"strings"
	"sync"

	"github.com/fwojciec/docsearch/bloom"
)

// Frontier is an in-memory URL queue with Bloom filter deduplication, used
// by the auxiliary discovery crawl. It is safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue []string
}

// NewFrontier creates a Frontier sized for n expected URLs with the given
// false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{seen: bloom.NewFilter(n, fpRate)}
}

// Push queues a URL. Returns false if the URL has already been seen.
// Fragments are stripped first, so URLs differing only by anchor are
// duplicates.
func (f *Frontier) Push(rawURL string) bool {
	url := stripFragment(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.Test(url) {
		return false
	}
	f.seen.Add(url)
	f.queue = append(f.queue, url)
	return true
}

// Pop returns the next queued URL in FIFO order.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}
	url := f.queue[0]
	f.queue = f.queue[1:]
	return url, true
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen reports whether the URL has been queued before, fragment stripped.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(stripFragment(rawURL))
}

func stripFragment(url string) string {
	if idx := strings.Index(url, "#"); idx != -1 {
		return url[:idx]
	}
	return url
}
