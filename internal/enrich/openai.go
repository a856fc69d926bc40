package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/config"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
)

var errEmptyCompletion = errors.New("empty completion")

// OpenAIEnricher fills missing examples and Korean translations using a chat
// completion model.
type OpenAIEnricher struct {
	api       *openai.Client
	model     string
	maxTokens int64
	chunkSize int
	log       *slog.Logger
}

var _ core.Enricher = (*OpenAIEnricher)(nil)

// NewOpenAIEnricher creates an enricher from cfg. Without an API key it returns
// an enricher that leaves words unchanged.
func NewOpenAIEnricher(cfg config.EnrichConfig, logger *slog.Logger, opts ...option.RequestOption) *OpenAIEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	g := &OpenAIEnricher{
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		chunkSize: cfg.ChunkSize,
		log:       logger.With("adapter", "openai"),
	}
	if g.model == "" {
		g.model = string(openai.ChatModelGPT4oMini)
	}
	if g.maxTokens <= 0 {
		g.maxTokens = 150
	}
	if g.chunkSize <= 0 {
		g.chunkSize = 10
	}
	if cfg.APIKey == "" {
		return g
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	reqOpts = append(reqOpts, opts...)

	c := openai.NewClient(reqOpts...)
	g.api = &c
	return g
}

// Enabled reports whether an API key was configured.
func (g *OpenAIEnricher) Enabled() bool {
	return g.api != nil
}

// NeedsEnrichment reports whether a word lacks an example or a translation.
func NeedsEnrichment(w core.StandardWord) bool {
	return w.Example == "" || w.Translation == ""
}

// Enrich returns a copy of words with empty examples and translations
// filled in. Words are processed in chunks: one chunk at a time, the words
// of a chunk concurrently. A failed word keeps its original fields.
func (g *OpenAIEnricher) Enrich(ctx context.Context, words []core.StandardWord) []core.StandardWord {
	out := make([]core.StandardWord, len(words))
	copy(out, words)
	if g.api == nil {
		return out
	}

	for start := 0; start < len(out); start += g.chunkSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+g.chunkSize, len(out))

		var eg errgroup.Group
		for i := start; i < end; i++ {
			if !NeedsEnrichment(out[i]) {
				continue
			}
			eg.Go(func() error {
				enriched, err := g.enrichOne(ctx, out[i])
				if err != nil {
					g.log.WarnContext(ctx, "enrich word failed", "word", out[i].Word, "error", err)
					return nil
				}
				out[i] = enriched
				return nil
			})
		}
		_ = eg.Wait()
	}
	return out
}

func (g *OpenAIEnricher) enrichOne(ctx context.Context, w core.StandardWord) (core.StandardWord, error) {
	resp, err := g.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(w)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(g.maxTokens),
	})
	if err != nil {
		return w, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return w, errEmptyCompletion
	}

	content := resp.Choices[0].Message.Content
	if !gjson.Valid(content) {
		return w, fmt.Errorf("invalid completion json: %q", content)
	}
	parsed := gjson.GetMany(content, "example", "translation")
	if w.Example == "" {
		w.Example = strings.TrimSpace(parsed[0].String())
	}
	if w.Translation == "" {
		w.Translation = strings.TrimSpace(parsed[1].String())
	}
	return w, nil
}

// buildPrompt asks only for the fields the word is missing.
func buildPrompt(w core.StandardWord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "English word: %q, meaning: %q.\n", w.Word, w.Meaning)
	if w.Example == "" {
		b.WriteString("- Write one short, natural English example sentence using the word.\n")
	}
	if w.Translation == "" {
		b.WriteString("- Provide the Korean translation of the meaning.\n")
	}
	b.WriteString(`Respond ONLY as JSON: {"example":"...","translation":"..."}`)
	return b.String()
}
