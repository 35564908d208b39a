package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/generation"
)

const mimeTypeJSON = "application/json"

// contentGenerator is the slice of the genai client this package uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger  *slog.Logger
	models  contentGenerator
	model   string
	prompts *generation.Prompts
	retry   generation.RetryPolicy
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed generator.
//
// Parameters:
//   - ctx: Context for client initialization
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing the API key, model name and retry settings
//   - prompts: Parsed prompt templates
//
// Returns:
//   - A ready Generator, or an error wrapping generation.ErrInvalidConfig
func NewGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
	prompts *generation.Prompts,
) (*Generator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, client.Models, cfg, prompts)
}

func newGenerator(
	logger *slog.Logger,
	models contentGenerator,
	cfg config.LLMConfig,
	prompts *generation.Prompts,
) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if models == nil {
		return nil, fmt.Errorf("%w: gemini client cannot be nil", generation.ErrInvalidConfig)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompts cannot be nil", generation.ErrInvalidConfig)
	}

	return &Generator{
		logger:  logger.With(slog.String("component", "gemini_generator")),
		models:  models,
		model:   cfg.ModelName,
		prompts: prompts,
		retry:   generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds),
	}, nil
}

func validateConfig(cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}

// GenerateWordList implements generation.WordListGenerator.
func (g *Generator) GenerateWordList(
	ctx context.Context,
	req generation.WordListRequest,
) ([]domain.WordCandidate, error) {
	prompt, err := g.prompts.WordList(req)
	if err != nil {
		return nil, err
	}

	text, err := g.complete(ctx, "word_list", prompt, &genai.GenerateContentConfig{
		ResponseSchema: wordListSchema,
	})
	if err != nil {
		return nil, err
	}

	words, err := generation.ParseWordList(text, req)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "word list generated",
		slog.String("topic", req.Topic),
		slog.Int("requested", req.Count),
		slog.Int("returned", len(words)))
	return words, nil
}

// GenerateSentences implements generation.SentenceGenerator.
func (g *Generator) GenerateSentences(
	ctx context.Context,
	req generation.SentenceRequest,
) (domain.SentenceTriple, error) {
	prompt, err := g.prompts.Sentences(req)
	if err != nil {
		return domain.SentenceTriple{}, err
	}

	genConfig := &genai.GenerateContentConfig{ResponseSchema: sentenceSchema}
	applyParams(genConfig, req.Params)

	text, err := g.complete(ctx, "sentences", prompt, genConfig)
	if err != nil {
		return domain.SentenceTriple{}, err
	}
	return generation.ParseSentenceTriple(text)
}

// complete sends one prompt with retries and returns the reply text.
func (g *Generator) complete(
	ctx context.Context,
	operation string,
	prompt string,
	genConfig *genai.GenerateContentConfig,
) (string, error) {
	genConfig.SystemInstruction = &genai.Content{
		Parts: []*genai.Part{{Text: generation.SystemInstruction}},
	}
	genConfig.ResponseMIMEType = mimeTypeJSON

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	return generation.CallWithRetry(ctx, g.logger, g.retry, operation,
		func(ctx context.Context) (string, error) {
			resp, err := g.models.GenerateContent(ctx, g.model, contents, genConfig)
			if err != nil {
				return "", classifyError(err)
			}
			return responseText(resp)
		})
}

// responseText extracts the text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)",
			generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: response did not include any text", generation.ErrInvalidResponse)
	}
	return b.String(), nil
}

// applyParams copies sampling settings into the request config.
func applyParams(genConfig *genai.GenerateContentConfig, p generation.RetryParams) {
	genConfig.Temperature = float32Ptr(p.Temperature)
	genConfig.TopP = float32Ptr(p.TopP)
	genConfig.PresencePenalty = float32Ptr(p.PresencePenalty)
	genConfig.FrequencyPenalty = float32Ptr(p.FrequencyPenalty)
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}
