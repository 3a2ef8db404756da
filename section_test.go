package docsearch_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOutline(t *testing.T) {
	t.Parallel()

	t.Run("uses anchors from HTML headings", func(t *testing.T) {
		t.Parallel()

		markdown := "# Vault\n\n## Installation\n\ncontent"
		headings := []docsearch.Heading{
			{Level: 1, Text: "Vault", AnchorID: "vault"},
			{Level: 2, Text: "Installation", AnchorID: "install-vault"},
		}

		sections := docsearch.BuildOutline(markdown, headings)

		require.Len(t, sections, 2)
		assert.Equal(t, "vault", sections[0].Anchor)
		assert.Equal(t, "install-vault", sections[1].Anchor)
	})

	t.Run("h3 without id inherits parent h2 anchor", func(t *testing.T) {
		t.Parallel()

		markdown := "## Storage\n\n### Raft\n\ncontent"
		headings := []docsearch.Heading{
			{Level: 2, Text: "Storage", AnchorID: "storage"},
			{Level: 3, Text: "Raft", AnchorID: ""},
		}

		sections := docsearch.BuildOutline(markdown, headings)

		require.Len(t, sections, 2)
		assert.Equal(t, "storage", sections[0].Anchor)
		assert.Equal(t, "storage", sections[1].Anchor)
	})

	t.Run("falls back to generated anchors", func(t *testing.T) {
		t.Parallel()

		markdown := "## Getting Started With Go\n"

		sections := docsearch.BuildOutline(markdown, nil)

		require.Len(t, sections, 1)
		assert.Equal(t, "getting-started-with-go", sections[0].Anchor)
	})

	t.Run("deduplicates generated anchors with numeric suffixes", func(t *testing.T) {
		t.Parallel()

		markdown := "## Example\n\ntext\n\n## Example\n"

		sections := docsearch.BuildOutline(markdown, nil)

		require.Len(t, sections, 2)
		assert.Equal(t, "example", sections[0].Anchor)
		assert.Equal(t, "example-1", sections[1].Anchor)
	})

	t.Run("ignores headings inside code blocks", func(t *testing.T) {
		t.Parallel()

		markdown := "## Real\n\n```\n# not a heading\n```\n"

		sections := docsearch.BuildOutline(markdown, nil)

		require.Len(t, sections, 1)
		assert.Equal(t, "Real", sections[0].Title)
	})

	t.Run("records char offsets", func(t *testing.T) {
		t.Parallel()

		markdown := "intro text\n\n## Section One\n\nbody\n"

		sections := docsearch.BuildOutline(markdown, nil)

		require.Len(t, sections, 1)
		assert.Equal(t, strings.Index(markdown, "## Section One"), sections[0].Offset)
	})

	t.Run("empty markdown yields nil", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, docsearch.BuildOutline("", nil))
	})
}

func TestGenerateAnchor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Getting Started", "getting-started"},
		{"What's New?", "whats-new"},
		{"  spaced   out  ", "spaced-out"},
		{"v1.9 Release Notes", "v19-release-notes"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, docsearch.GenerateAnchor(tt.title))
		})
	}
}
