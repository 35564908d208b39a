package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/domain"
	"github.com/phrazzld/cizu-api/internal/generation"
)

// maxTokens caps each reply. A sentence triple or a word list fits well
// inside it.
const maxTokens = 2048

// messageCreator is the slice of the Anthropic client this package uses.
type messageCreator interface {
	New(
		ctx context.Context,
		body anthropic.MessageNewParams,
		opts ...option.RequestOption,
	) (*anthropic.Message, error)
}

// Generator implements generation.Generator using Claude models.
type Generator struct {
	logger   *slog.Logger
	messages messageCreator
	model    string
	prompts  *generation.Prompts
	retry    generation.RetryPolicy
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates an Anthropic-backed generator. As with the other
// providers, client retries are off and generation.CallWithRetry owns them.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig, prompts *generation.Prompts) (*Generator, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AnthropicBaseURL))
	}
	client := anthropic.NewClient(opts...)

	return newGenerator(logger, &client.Messages, cfg, prompts)
}

func newGenerator(
	logger *slog.Logger,
	messages messageCreator,
	cfg config.LLMConfig,
	prompts *generation.Prompts,
) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if messages == nil || prompts == nil {
		return nil, fmt.Errorf("%w: client and prompts are required", generation.ErrInvalidConfig)
	}
	return &Generator{
		logger:   logger.With(slog.String("component", "anthropic_generator")),
		messages: messages,
		model:    cfg.ModelName,
		prompts:  prompts,
		retry:    generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds),
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

// GenerateSentences implements generation.SentenceGenerator. The Messages
// API has no presence or frequency penalty, so only temperature and top-p
// vary between attempts.
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
		params.Temperature = anthropic.Float(*p)
	}
	if p := req.Params.TopP; p != nil {
		params.TopP = anthropic.Float(*p)
	}

	text, err := g.complete(ctx, "sentences", params)
	if err != nil {
		return domain.SentenceTriple{}, err
	}
	return generation.ParseSentenceTriple(text)
}

func (g *Generator) params(prompt string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: generation.SystemInstruction}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
}

func (g *Generator) complete(
	ctx context.Context,
	operation string,
	params anthropic.MessageNewParams,
) (string, error) {
	return generation.CallWithRetry(ctx, g.logger, g.retry, operation,
		func(ctx context.Context) (string, error) {
			resp, err := g.messages.New(ctx, params)
			if err != nil {
				return "", classifyError(err)
			}
			return responseText(resp)
		})
}

func responseText(resp *anthropic.Message) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
	}
	if resp.StopReason == anthropic.StopReasonRefusal {
		return "", fmt.Errorf("%w: model declined the request", generation.ErrContentBlocked)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: response did not include any text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// classifyError maps client errors onto the generation error set.
func classifyError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: anthropic rejected credentials: %v", generation.ErrInvalidConfig, err)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: anthropic rejected request: %v", generation.ErrInvalidRequest, err)
	default:
		return err
	}
}
