package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/bleve"
	"github.com/fwojciec/docsearch/chunk"
	"github.com/fwojciec/docsearch/crawl"
	"github.com/fwojciec/docsearch/fs"
	"github.com/fwojciec/docsearch/gemini"
	"github.com/fwojciec/docsearch/goquery"
	"github.com/fwojciec/docsearch/hnsw"
	"github.com/fwojciec/docsearch/htmltomarkdown"
	dshttp "github.com/fwojciec/docsearch/http"
	"github.com/fwojciec/docsearch/index"
	"github.com/fwojciec/docsearch/search"
	dsslog "github.com/fwojciec/docsearch/slog"
	"github.com/fwojciec/docsearch/sqlite"
	"github.com/fwojciec/docsearch/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Cache directory holding the database and index artifacts.
	// Set before calling Run().
	CacheDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Indexes held open for the duration of a run.
	Lexical *bleve.Index
	Vector  *hnsw.Index
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		CacheDir: defaultCacheDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Lexical != nil {
		_ = m.Lexical.Close()
	}
	if m.Vector != nil {
		_ = m.Vector.Close()
	}
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docsearch"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docsearch --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.CacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %q: %w", m.CacheDir, err)
	}

	m.DB = sqlite.NewDB(filepath.Join(m.CacheDir, "docsearch.db"))
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOCSEARCH_CACHE to use a different cache directory\n")
		return fmt.Errorf("failed to open database in %q: %w", m.CacheDir, err)
	}
	defer m.Close()

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	chunkStore := sqlite.NewChunkStore(m.DB)
	metadataStore := fs.NewMetadataStore(filepath.Join(m.CacheDir, "metadata.json"))
	progressStore := fs.NewProgressStore(filepath.Join(m.CacheDir, "embedding_progress.json"))

	manager := &index.Manager{
		Chunks:   chunkStore,
		Metadata: metadataStore,
		Progress: progressStore,
	}
	deps.Manager = manager

	if cmd == "index" || cmd == "search" {
		client, err := newGeminiClient(ctx, stderr)
		if err != nil {
			return err
		}

		m.Lexical, err = bleve.Open(filepath.Join(m.CacheDir, "lexical.bleve"))
		if err != nil {
			return fmt.Errorf("failed to open lexical index: %w", err)
		}
		m.Vector, err = hnsw.Open(filepath.Join(m.CacheDir, "vectors.hnsw"), gemini.DefaultDimensions)
		if err != nil {
			return fmt.Errorf("failed to open vector index: %w", err)
		}

		embedder := dsslog.NewLoggingEmbedder(gemini.NewEmbedder(client), logger)

		if cmd == "index" {
			tokenCounter, err := gemini.NewTokenCounter(tokenizerModel)
			if err != nil {
				return fmt.Errorf("failed to create token counter: %w", err)
			}

			fetcher := dshttp.NewFetcher()
			defer fetcher.Close()

			httpClient := &http.Client{}
			rateLimiter := crawl.NewDomainLimiter(1.0)
			policy := dshttp.NewRobotsPolicy(ctx, httpClient, cli.Index.Feed, dshttp.DefaultUserAgent, defaultAllowPrefixes)

			manager.FeedURL = cli.Index.Feed
			manager.Filter = defaultURLFilter()
			manager.Discoverer = &crawl.Discoverer{
				Sitemaps:    dsslog.NewLoggingSitemapService(dshttp.NewSitemapService(httpClient, dshttp.DefaultUserAgent), logger),
				Fetcher:     fetcher,
				Prober:      dshttp.NewProber(httpClient, dshttp.DefaultUserAgent),
				Store:       sqlite.NewURLStore(m.DB),
				AuxPages:    defaultAuxPages,
				Probes:      defaultVersionProbes(),
				RateLimiter: rateLimiter,
			}
			manager.Crawler = &crawl.Crawler{
				Fetcher:     fetcher,
				Extractor:   goquery.NewExtractor(),
				Fallback:    trafilatura.NewExtractor(),
				Converter:   htmltomarkdown.NewConverter(),
				Policy:      policy,
				Cache:       sqlite.NewPageCache(m.DB),
				RateLimiter: rateLimiter,
				Concurrency: cli.Index.Concurrency,
				MaxPages:    cli.Index.MaxPages,
			}
			manager.Chunker = chunk.New(chunk.WithTokenCounter(tokenCounter))
			manager.Embedder = embedder
			manager.Vector = m.Vector
			manager.Lexical = m.Lexical
			manager.URLs = sqlite.NewURLStore(m.DB)
			manager.ModelName = gemini.DefaultEmbeddingModel
			manager.Logf = func(format string, args ...any) {
				fmt.Fprintf(stderr, format+"\n", args...)
			}
		}

		if cmd == "search" {
			children, err := chunkStore.LoadChildren(ctx)
			if err != nil && docsearch.ErrorCode(err) != docsearch.ENOTFOUND {
				return fmt.Errorf("failed to load chunks: %w", err)
			}

			searcher := search.New(search.Config{
				Lexical:  m.Lexical,
				Vector:   m.Vector,
				Embedder: embedder,
				Chunks:   children,
				Parents:  chunkStore,
				Heavy:    gemini.NewReranker(client),
			})
			deps.Searcher = dsslog.NewLoggingSearchService(searcher, logger)
		}
	}

	return kongCtx.Run(deps)
}

// tokenizerModel is used for token counting during chunking.
const tokenizerModel = "gemini-2.5-flash"

func newGeminiClient(ctx context.Context, stderr io.Writer) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	return client, nil
}

func defaultCacheDir() string {
	if path := os.Getenv("DOCSEARCH_CACHE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docsearch"
	}
	return filepath.Join(home, ".docsearch")
}

// defaultAllowPrefixes are path prefixes fetched even when robots.txt is
// unreachable.
var defaultAllowPrefixes = []string{"/vault/", "/consul/", "/nomad/", "/boundary/", "/terraform/", "/validated-designs/"}

// defaultAuxPages are index pages whose outbound links supplement the
// sitemap feed.
var defaultAuxPages = []string{
	"https://developer.hashicorp.com/validated-designs",
}

func defaultURLFilter() *docsearch.URLFilter {
	return &docsearch.URLFilter{
		Include: []*regexp.Regexp{
			regexp.MustCompile(`^https://developer\.hashicorp\.com/[^/]+/(docs|api-docs|commands|tutorials|intro)(/|$)`),
			regexp.MustCompile(`^https://developer\.hashicorp\.com/validated-designs(/|$)`),
		},
		Exclude: []*regexp.Regexp{
			regexp.MustCompile(`/partials/`),
		},
	}
}

// defaultVersionProbes cover versioned release-notes pages that sitemaps
// omit for older minors.
func defaultVersionProbes() []docsearch.VersionProbe {
	return []docsearch.VersionProbe{
		{Product: "vault", Pattern: "https://developer.hashicorp.com/vault/docs/v1.%d.x", MinorFrom: 9, MinorTo: 21},
		{Product: "consul", Pattern: "https://developer.hashicorp.com/consul/docs/v1.%d.x", MinorFrom: 8, MinorTo: 22},
	}
}
