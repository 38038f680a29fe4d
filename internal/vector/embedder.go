package vector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/codescope/codescope-go/internal/config"
)

// Embedder turns normalized text into a fixed-dimension vector. Both
// implementations are stable for identical input, so re-embedding an
// unchanged fragment produces an identical row.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// NewEmbedder returns the OpenAI-backed embedder when an API key is
// configured and the deterministic hash embedder otherwise.
func NewEmbedder(cfg config.VectorConfig) Embedder {
	if cfg.EmbeddingKey != "" {
		return NewOpenAIEmbedder(cfg)
	}
	return NewHashEmbedder(cfg.Dimensions)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dims   int
}

// NewOpenAIEmbedder creates an embedder against api.openai.com or, when
// EmbeddingURL is set, any compatible endpoint.
func NewOpenAIEmbedder(cfg config.VectorConfig) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cfg.EmbeddingKey)
	if cfg.EmbeddingURL != "" {
		clientConfig.BaseURL = cfg.EmbeddingURL
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 256
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(model),
		dims:   dims,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      e.model,
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}
	return resp.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dims }
func (e *OpenAIEmbedder) Name() string    { return "openai:" + string(e.model) }

// HashEmbedder scatters token hashes into a fixed-dimension vector and
// L2-normalizes the result. It needs no network or model files and is
// stable across runs, which keeps semantic search usable offline; rank
// quality is lexical rather than semantic.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder with the given dimension
// count (256 when dims is not positive).
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	for _, token := range tokenize(text) {
		h := xxhash.Sum64String(token)
		idx := int(h % uint64(e.dims))
		// Sign bit spreads colliding tokens instead of stacking them.
		if h>>63 == 0 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (e *HashEmbedder) Dimensions() int { return e.dims }
func (e *HashEmbedder) Name() string    { return "hash" }

// tokenize lowercases the text and splits it on anything that cannot be
// part of an identifier, so foo_bar and fooBar survive as single tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// NormalizeText collapses runs of whitespace to single spaces while
// leaving identifiers and operators untouched.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate caps text at maxChars bytes without splitting a UTF-8
// sequence.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
