package chunk_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageFromMarkdown builds a PageRecord with its outline derived from the
// markdown, the way the crawl pipeline does.
func pageFromMarkdown(url, title, markdown string) *docsearch.PageRecord {
	return &docsearch.PageRecord{
		URL:      url,
		Product:  docsearch.ProductFromURL(url),
		Title:    title,
		Content:  markdown,
		Sections: docsearch.BuildOutline(markdown, nil),
	}
}

func TestChunker_Chunk(t *testing.T) {
	t.Parallel()

	t.Run("small sections become single children", func(t *testing.T) {
		t.Parallel()

		markdown := `# Seal Concepts

Intro paragraph about sealing.

## Shamir Seals

Shamir's secret sharing splits the master key.

## Auto Unseal

Auto unseal delegates to a cloud KMS.
`
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/concepts/seal", "Seal Concepts", markdown)

		c := chunk.New()
		parents, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		// Preamble plus two H2 sections.
		require.Len(t, parents, 3)
		require.Len(t, children, 3)

		assert.Equal(t, "Seal Concepts", parents[0].HeadingPath)
		assert.Equal(t, "Seal Concepts > Shamir Seals", parents[1].HeadingPath)
		assert.Equal(t, "Seal Concepts > Auto Unseal", parents[2].HeadingPath)

		for i, child := range children {
			assert.Equal(t, parents[i].ID, child.ParentID)
			assert.Equal(t, "vault", child.Product)
			assert.Equal(t, docsearch.DocTypeConcept, child.DocType)
			assert.False(t, child.Degenerate)
			require.NoError(t, child.Validate())
		}
	})

	t.Run("oversized section splits at h3 boundaries", func(t *testing.T) {
		t.Parallel()

		para := strings.Repeat("Configuration details for this stanza. ", 40)
		markdown := "# Server Configuration\n\n## Seal Stanza\n\nIntro.\n\n### awskms\n\n" + para + "\n\n### gcpckms\n\n" + para + "\n"
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/configuration/seal", "Server Configuration", markdown)

		c := chunk.New()
		parents, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		require.Len(t, parents, 1)
		assert.Equal(t, "Server Configuration > Seal Stanza", parents[0].HeadingPath)

		// The two H3 pieces land as separate children under the one parent.
		var paths []string
		for _, child := range children {
			paths = append(paths, child.HeadingPath)
			assert.Equal(t, parents[0].ID, child.ParentID)
			assert.Equal(t, docsearch.DocTypeConfiguration, child.DocType)
		}
		assert.Contains(t, paths, "Server Configuration > Seal Stanza > awskms")
		assert.Contains(t, paths, "Server Configuration > Seal Stanza > gcpckms")
	})

	t.Run("oversized leaf splits into overlapping windows", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		sb.WriteString("# Reference\n\n## Parameters\n\n")
		for i := 0; i < 200; i++ {
			sb.WriteString("- `param_value` sets an option that controls behavior of the server runtime.\n")
		}
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/api-docs/params", "Reference", sb.String())

		c := chunk.New()
		parents, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		require.Len(t, parents, 1)
		require.Greater(t, len(children), 1)

		cfg := docsearch.ConfigForDocType(docsearch.DocTypeReference)
		for _, child := range children {
			assert.Equal(t, parents[0].ID, child.ParentID)
			assert.False(t, child.Oversized)
			// Window pieces after the first carry the heading back in.
			assert.LessOrEqual(t, child.TokenCount, cfg.Size+docsearch.EstimateTokens("## Parameters\n\n")+1)
		}
	})

	t.Run("window pieces carry the heading", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		sb.WriteString("# Guide\n\n## Install Steps\n\n")
		for i := 0; i < 300; i++ {
			sb.WriteString("Run the installer then verify the checksum against the release page.\n")
		}
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/install", "Guide", sb.String())

		c := chunk.New()
		_, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)
		require.Greater(t, len(children), 1)

		for _, child := range children {
			assert.Contains(t, child.Content, "## Install Steps")
		}
	})

	t.Run("irreducible oversized leaf is kept whole and flagged", func(t *testing.T) {
		t.Parallel()

		// One enormous single line cannot be window-split.
		blob := strings.Repeat("x", 12000)
		markdown := "# Blob\n\n## Payload\n\n" + blob
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/blob", "Blob", markdown)

		c := chunk.New()
		_, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		require.Len(t, children, 1)
		assert.True(t, children[0].Oversized)
		assert.Contains(t, children[0].Content, blob)
	})

	t.Run("page without h2 structure degrades to flat windows", func(t *testing.T) {
		t.Parallel()

		markdown := "# Flat Page\n\n" + strings.Repeat("A paragraph of prose with no section structure at all in sight.\n", 250)
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/flat", "Flat Page", markdown)

		c := chunk.New()
		parents, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		assert.Empty(t, parents)
		require.Greater(t, len(children), 1)
		for _, child := range children {
			assert.True(t, child.Degenerate)
			assert.Empty(t, child.ParentID)
			require.NoError(t, child.Validate())
		}
	})

	t.Run("chunk IDs are deterministic across runs", func(t *testing.T) {
		t.Parallel()

		markdown := "# Stable\n\n## Section One\n\nBody text.\n\n## Section Two\n\nMore body text.\n"
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/stable", "Stable", markdown)

		c := chunk.New()
		parents1, children1, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)
		parents2, children2, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		assert.Equal(t, parents1, parents2)
		assert.Equal(t, children1, children2)
	})

	t.Run("duplicate section titles get distinct IDs", func(t *testing.T) {
		t.Parallel()

		markdown := "# Dup\n\n## Options\n\nFirst options body.\n\n## Options\n\nSecond options body.\n"
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/dup", "Dup", markdown)

		c := chunk.New()
		parents, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		require.Len(t, parents, 2)
		require.Len(t, children, 2)
		assert.NotEqual(t, parents[0].ID, parents[1].ID)
		assert.NotEqual(t, children[0].ID, children[1].ID)
	})

	t.Run("every non-degenerate child references an emitted parent", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		sb.WriteString("# Big Page\n\nPreamble.\n\n")
		for s := 0; s < 5; s++ {
			sb.WriteString("## Section " + strings.Repeat("I", s+1) + "\n\n")
			sb.WriteString(strings.Repeat("Sentence about the section topic with enough words to count.\n", 80))
		}
		page := pageFromMarkdown("https://developer.hashicorp.com/consul/docs/big", "Big Page", sb.String())

		c := chunk.New()
		parents, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		parentIDs := make(map[string]bool)
		for _, p := range parents {
			parentIDs[p.ID] = true
		}
		for _, child := range children {
			assert.True(t, parentIDs[child.ParentID], "child %s has unknown parent %s", child.ID, child.ParentID)
		}
	})

	t.Run("children cover all section content", func(t *testing.T) {
		t.Parallel()

		markdown := "# Coverage\n\n## Alpha\n\nAlpha body sentence.\n\n## Beta\n\nBeta body sentence.\n"
		page := pageFromMarkdown("https://developer.hashicorp.com/nomad/docs/coverage", "Coverage", markdown)

		c := chunk.New()
		_, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)

		var all strings.Builder
		for _, child := range children {
			all.WriteString(child.Content)
		}
		assert.Contains(t, all.String(), "Alpha body sentence")
		assert.Contains(t, all.String(), "Beta body sentence")
	})

	t.Run("anchors propagate from the outline", func(t *testing.T) {
		t.Parallel()

		markdown := "# Anchored\n\n## Seal Configuration\n\nBody.\n"
		headings := []docsearch.Heading{
			{Level: 2, Text: "Seal Configuration", AnchorID: "seal-config"},
		}
		page := &docsearch.PageRecord{
			URL:      "https://developer.hashicorp.com/vault/docs/anchored",
			Product:  "vault",
			Title:    "Anchored",
			Content:  markdown,
			Sections: docsearch.BuildOutline(markdown, headings),
		}

		c := chunk.New()
		_, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, "seal-config", children[0].Anchor)
	})

	t.Run("invalid page is rejected", func(t *testing.T) {
		t.Parallel()

		c := chunk.New()
		_, _, err := c.Chunk(context.Background(), &docsearch.PageRecord{URL: ""})
		require.Error(t, err)
		assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
	})

	t.Run("uses token counter when provided", func(t *testing.T) {
		t.Parallel()

		counter := &stubCounter{tokens: 3}
		markdown := "# Counted\n\n## Section\n\nShort body.\n"
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/counted", "Counted", markdown)

		c := chunk.New(chunk.WithTokenCounter(counter))
		_, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, 3, children[0].TokenCount)
	})

	t.Run("falls back to estimate when counter fails", func(t *testing.T) {
		t.Parallel()

		counter := &stubCounter{err: docsearch.Errorf(docsearch.EUNAVAILABLE, "tokenizer unavailable")}
		markdown := "# Fallback\n\n## Section\n\nShort body text here.\n"
		page := pageFromMarkdown("https://developer.hashicorp.com/vault/docs/fallback", "Fallback", markdown)

		c := chunk.New(chunk.WithTokenCounter(counter))
		_, children, err := c.Chunk(context.Background(), page)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Positive(t, children[0].TokenCount)
	})
}

type stubCounter struct {
	tokens int
	err    error
}

func (s *stubCounter) CountTokens(_ context.Context, text string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.tokens, nil
}
