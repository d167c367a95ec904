package translate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

// promptInputLimit keeps prompts inside a sane size, cutting on a rune
// boundary and preferring a sentence end.
const promptInputLimit = 6000

// Gemini is the session-based provider: one client per run, all calls
// share it.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *Gemini) Translate(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following news title into Japanese (polite form) and return only the translated text:\n\n%s",
		limitPrompt(text))
	return g.generate(ctx, prompt)
}

func (g *Gemini) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following article content in Japanese (polite form). Keep it concise (about 2 sentences) and return only the summary:\n\n%s",
		limitPrompt(text))
	return g.generate(ctx, prompt)
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(geminiModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
}

func limitPrompt(text string) string {
	text = strings.Join(strings.Fields(strings.ReplaceAll(text, "\r", "")), " ")
	if utf8.RuneCountInString(text) <= promptInputLimit {
		return text
	}
	runes := []rune(text)
	trimmed := string(runes[:promptInputLimit])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}
