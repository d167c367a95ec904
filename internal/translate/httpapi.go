package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ainewsjp/ainews/internal/logger"
	"github.com/ainewsjp/ainews/internal/retry"
)

// DefaultLibreEndpoint is the public LibreTranslate instance used when
// no endpoint is configured.
const DefaultLibreEndpoint = "https://libretranslate.de/translate"

// HTTPTranslator is the fallback provider: LibreTranslate first, then
// OpenAI when a key is configured. Summaries are extractive sentences
// run through the same translation chain.
type HTTPTranslator struct {
	endpoint   string
	sourceLang string
	targetLang string
	client     *http.Client
	openai     *openai.Client
	retryCfg   retry.Config
}

func NewHTTPTranslator(opts Options) (*HTTPTranslator, error) {
	endpoint := opts.LibreEndpoint
	if endpoint == "" {
		endpoint = DefaultLibreEndpoint
	}
	source := opts.SourceLang
	if source == "" {
		source = "en"
	}
	target := opts.TargetLang
	if target == "" {
		target = "ja"
	}

	t := &HTTPTranslator{
		endpoint:   endpoint,
		sourceLang: source,
		targetLang: target,
		client:     &http.Client{Timeout: 15 * time.Second},
		retryCfg:   retry.Config{MaxAttempts: 2, Delay: 2 * time.Second, Backoff: true},
	}
	if opts.OpenAIAPIKey != "" {
		t.openai = openai.NewClient(opts.OpenAIAPIKey)
	}
	return t, nil
}

func (t *HTTPTranslator) Name() string { return "http" }

func (t *HTTPTranslator) Close() error { return nil }

func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	var translated string
	err := retry.WithRetry(ctx, t.retryCfg, func() error {
		var libreErr error
		translated, libreErr = t.translateWithLibre(ctx, text)
		return libreErr
	})
	if err == nil && translated != "" {
		return translated, nil
	}
	logger.Debug("libretranslate failed", "error", err)

	if t.openai != nil {
		translated, openaiErr := t.translateWithOpenAI(ctx, text)
		if openaiErr == nil && translated != "" {
			return translated, nil
		}
		logger.Debug("openai translation failed", "error", openaiErr)
	}

	if err == nil {
		err = errors.New("empty translation")
	}
	return "", fmt.Errorf("all translation backends failed: %w", err)
}

// Summarize reduces the content to its leading sentences and localizes
// them. Without a generative backend this is the closest the HTTP chain
// gets to a real summary.
func (t *HTTPTranslator) Summarize(ctx context.Context, text string) (string, error) {
	summary := ExtractiveSummary(text)
	if summary == "" {
		return "", errors.New("no content to summarize")
	}
	return t.Translate(ctx, summary)
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (t *HTTPTranslator) translateWithLibre(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(libreRequest{
		Q:      text,
		Source: t.sourceLang,
		Target: t.targetLang,
		Format: "text",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("libretranslate returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded libreResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.TranslatedText == "" {
		return "", errors.New("empty translation from libretranslate")
	}
	return decoded.TranslatedText, nil
}

func (t *HTTPTranslator) translateWithOpenAI(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following news text to Japanese (polite form).
Keep the meaning and journalistic tone of the original.
Translate only the text itself, without additional comments.

Text to translate:
%s`, text)

	cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	resp, err := t.openai.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxCompletionTokens: 2000,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
