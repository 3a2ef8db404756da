package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/docsearch"
	"google.golang.org/genai"
)

// rerankModel is the model used for relevance scoring.
const rerankModel = "gemini-2.5-flash"

// Ensure Reranker implements docsearch.Reranker at compile time.
var _ docsearch.Reranker = (*Reranker)(nil)

// Reranker scores candidate documents against a query with a generative
// model. It is the precision stage of retrieval: a cheap local pass narrows
// the pool first, then this reorders the survivors.
type Reranker struct {
	client *genai.Client
}

// NewReranker creates a new Reranker.
func NewReranker(client *genai.Client) *Reranker {
	return &Reranker{client: client}
}

// Available reports whether reranking can be attempted. Callers fall back
// to fused retrieval order when it cannot.
func (r *Reranker) Available(ctx context.Context) bool {
	return r != nil && r.client != nil
}

// Rerank scores documents against the query and returns the topK most
// relevant, most relevant first.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]docsearch.RerankResult, error) {
	if query == "" {
		return nil, docsearch.Errorf(docsearch.EINVALID, "query required")
	}
	if len(documents) == 0 {
		return nil, nil
	}
	if topK <= 0 || topK > len(documents) {
		topK = len(documents)
	}

	prompt := buildRerankPrompt(query, documents)

	temp := float32(0.0)
	result, err := r.client.Models.GenerateContent(ctx, rerankModel,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{
					Text: "You are a relevance scoring system for documentation search. Respond only with the requested JSON, no prose.",
				}},
			},
			Temperature: &temp,
		},
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, docsearch.Errorf(docsearch.EINTERNAL, "gemini returned nil result")
	}

	scores, err := ParseRerankResponse(result.Text(), len(documents))
	if err != nil {
		return nil, err
	}

	if len(scores) > topK {
		scores = scores[:topK]
	}
	return scores, nil
}

// buildRerankPrompt formats the query and numbered documents for scoring.
func buildRerankPrompt(query string, documents []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score each document's relevance to the query on a 0.0-1.0 scale.\n\nQuery: %s\n\n<documents>\n", query)
	for i, doc := range documents {
		sb.WriteString("<document>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i)
		fmt.Fprintf(&sb, "<content>%s</content>\n", doc)
		sb.WriteString("</document>\n")
	}
	sb.WriteString("</documents>\n\n")
	sb.WriteString(`Respond with a JSON array sorted by descending score: [{"index": 0, "score": 0.95}, ...]. Include every document exactly once.`)
	return sb.String()
}

// ParseRerankResponse extracts the score array from the model output,
// tolerating surrounding text and code fences. Out-of-range indexes and
// duplicates are dropped. Exported for testing.
func ParseRerankResponse(text string, docCount int) ([]docsearch.RerankResult, error) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end <= start {
		return nil, docsearch.Errorf(docsearch.EINTERNAL, "rerank response contains no JSON array")
	}

	var results []docsearch.RerankResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &results); err != nil {
		return nil, docsearch.Errorf(docsearch.EINTERNAL, "failed to parse rerank response: %v", err)
	}

	seen := make(map[int]bool)
	valid := results[:0]
	for _, res := range results {
		if res.Index < 0 || res.Index >= docCount || seen[res.Index] {
			continue
		}
		seen[res.Index] = true
		valid = append(valid, res)
	}

	return valid, nil
}
