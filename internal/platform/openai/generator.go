package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/generation"
)

const finishReasonContentFilter = "content_filter"

// chatCompleter is the slice of the OpenAI client this package uses.
type chatCompleter interface {
	New(
		ctx context.Context,
		body openai.ChatCompletionNewParams,
		opts ...option.RequestOption,
	) (*openai.ChatCompletion, error)
}

// Generator implements generation.Generator using OpenAI chat completions.
type Generator struct {
	logger      *slog.Logger
	completions chatCompleter
	model       string
	prompts     *generation.Prompts
	retry       generation.RetryPolicy
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates an OpenAI-backed generator. The client's own retries
// are disabled; transient failures are retried by generation.CallWithRetry.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig, prompts *generation.Prompts) (*Generator, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	client := openai.NewClient(opts...)

	return newGenerator(logger, &client.Chat.Completions, cfg, prompts)
}

func newGenerator(
	logger *slog.Logger,
	completions chatCompleter,
	cfg config.LLMConfig,
	prompts *generation.Prompts,
) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if completions == nil || prompts == nil {
		return nil, fmt.Errorf("%w: client and prompts are required", generation.ErrInvalidConfig)
	}
	return &Generator{
		logger:      logger.With(slog.String("component", "openai_generator")),
		completions: completions,
		model:       cfg.ModelName,
		prompts:     prompts,
		retry:       generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds),
	}, nil
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

	text, err := g.complete(ctx, "word_list", g.params(prompt))
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

	params := g.params(prompt)
	if p := req.Params.Temperature; p != nil {
		params.Temperature = openai.Float(*p)
	}
	if p := req.Params.TopP; p != nil {
		params.TopP = openai.Float(*p)
	}
	if p := req.Params.PresencePenalty; p != nil {
		params.PresencePenalty = openai.Float(*p)
	}
	if p := req.Params.FrequencyPenalty; p != nil {
		params.FrequencyPenalty = openai.Float(*p)
	}

	text, err := g.complete(ctx, "sentences", params)
	if err != nil {
		return domain.SentenceTriple{}, err
	}
	return generation.ParseSentenceTriple(text)
}

func (g *Generator) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(generation.SystemInstruction),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
}

func (g *Generator) complete(
	ctx context.Context,
	operation string,
	params openai.ChatCompletionNewParams,
) (string, error) {
	return generation.CallWithRetry(ctx, g.logger, g.retry, operation,
		func(ctx context.Context) (string, error) {
			resp, err := g.completions.New(ctx, params)
			if err != nil {
				return "", classifyError(err)
			}
			return responseText(resp)
		})
}

func responseText(resp *openai.ChatCompletion) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == finishReasonContentFilter || choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: model declined the request", generation.ErrContentBlocked)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%w: response did not include any text", generation.ErrInvalidResponse)
	}
	return choice.Message.Content, nil
}

// classifyError maps client errors onto the generation error set.
func classifyError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: openai rejected credentials: %v", generation.ErrInvalidConfig, err)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: openai rejected request: %v", generation.ErrInvalidRequest, err)
	default:
		return err
	}
}
