// Package cohere embeds note text and reranks search candidates through the
// Cohere v2 API.
package cohere

import (
	"context"
	"errors"
	"fmt"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// maxRerankChars bounds each candidate sent to rerank.
const maxRerankChars = 4000

var ErrNoEmbeddings = errors.New("no embeddings returned")

type Options struct {
	APIKey      string
	EmbedModel  string
	RerankModel string
	EmbedDim    int
}

type Client struct {
	api         *cohereclient.Client
	embedModel  string
	rerankModel string
	embedDim    int
}

// Ranked is one reranked candidate; Index points into the documents passed
// to Rerank.
type Ranked struct {
	Index int
	Score float64
}

func New(opts Options) *Client {
	return &Client{
		api:         cohereclient.NewClient(cohereclient.WithToken(opts.APIKey)),
		embedModel:  opts.EmbedModel,
		rerankModel: opts.RerankModel,
		embedDim:    opts.EmbedDim,
	}
}

func (c *Client) Validate(ctx context.Context) error {
	if _, err := c.api.Models.List(ctx, &cohere.ModelsListRequest{}); err != nil {
		return fmt.Errorf("invalid API key: %w", err)
	}
	return nil
}

// EmbedNotes embeds note chunks for storage. The result has one vector per
// input text, in order.
func (c *Client) EmbedNotes(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := c.embed(ctx, texts, cohere.EmbedInputTypeSearchDocument)
	if err != nil {
		return nil, fmt.Errorf("embed notes: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed notes: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query}, cohere.EmbedInputTypeSearchQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: %w", ErrNoEmbeddings)
	}
	return vectors[0], nil
}

func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Ranked, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	docs := make([]string, len(documents))
	for i, d := range documents {
		docs[i] = clip(d, maxRerankChars)
	}

	resp, err := c.api.V2.Rerank(ctx, &cohere.V2RerankRequest{
		Model:     c.rerankModel,
		Query:     query,
		Documents: docs,
		TopN:      &topN,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	ranked := make([]Ranked, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			continue
		}
		ranked = append(ranked, Ranked{Index: r.Index, Score: r.RelevanceScore})
	}
	return ranked, nil
}

func (c *Client) embed(ctx context.Context, texts []string, inputType cohere.EmbedInputType) ([][]float32, error) {
	dim := c.embedDim

	resp, err := c.api.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:           texts,
		Model:           c.embedModel,
		InputType:       inputType,
		EmbeddingTypes:  []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		OutputDimension: &dim,
	})
	if err != nil {
		return nil, err
	}
	if resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, ErrNoEmbeddings
	}

	out := make([][]float32, len(resp.Embeddings.Float))
	for i, emb := range resp.Embeddings.Float {
		out[i] = toFloat32(emb)
	}
	return out, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// clip cuts s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
