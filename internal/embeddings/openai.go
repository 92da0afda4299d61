package embeddings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIConfig holds configuration for OpenAI-compatible embedding APIs.
type OpenAIConfig struct {
	// BaseURL overrides the API endpoint (Azure, vLLM, Ollama, LocalAI...).
	BaseURL string

	// APIKey is the bearer token. Required unless BaseURL points at a
	// server that does not authenticate.
	APIKey string

	// Model is the embedding model. Default: text-embedding-3-small.
	Model string

	// Dimension requests shortened embeddings (text-embedding-3 models).
	// Zero keeps the model's native size.
	Dimension int

	// MaxRetries is passed to the client. Default: 2.
	MaxRetries int
}

// Validate validates the configuration.
func (c OpenAIConfig) Validate() error {
	if c.APIKey == "" && c.BaseURL == "" {
		return fmt.Errorf("%w: openai provider needs an API key or a base URL", ErrInvalidConfig)
	}
	if c.Dimension < 0 {
		return fmt.Errorf("%w: dimension must not be negative", ErrInvalidConfig)
	}
	return nil
}

// OpenAIProvider generates embeddings with the OpenAI embeddings endpoint.
type OpenAIProvider struct {
	client    openai.Client
	config    OpenAIConfig
	dimension int
	metrics   *instruments
	logger    *zap.Logger
}

// NewOpenAIProvider creates an OpenAI-compatible embedding provider.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	opts := []option.RequestOption{
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = detectDimensionFromModel(cfg.Model)
	}

	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		config:    cfg,
		dimension: dimension,
		metrics:   newInstruments("openai", cfg.Model, logger),
		logger:    logger,
	}, nil
}

// EmbedDocuments generates embeddings for multiple texts in one request.
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	start := time.Now()
	defer func() {
		p.metrics.observe(ctx, opDocuments, start, texts, err)
	}()

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	return p.embed(ctx, texts)
}

// EmbedQuery generates an embedding for a single query.
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) (vector []float32, err error) {
	start := time.Now()
	defer func() {
		p.metrics.observe(ctx, opQuery, start, []string{text}, err)
	}()

	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	vectors, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OpenAIProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(p.config.Model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if p.config.Dimension > 0 {
		params.Dimensions = openai.Int(int64(p.config.Dimension))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingFailed, len(resp.Data), len(texts))
	}

	// The API may return items out of order; Index refers to the input.
	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, item := range data {
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}

	p.logger.Debug("openai embeddings generated",
		zap.String("model", p.config.Model),
		zap.Int("count", len(vectors)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
	)
	return vectors, nil
}

// Dimension returns the embedding dimension.
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op; the client holds no resources beyond its HTTP pool.
func (p *OpenAIProvider) Close() error {
	return nil
}
