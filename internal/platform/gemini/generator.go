package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zengarden/zengarden-api/internal/config"
	"github.com/zengarden/zengarden-api/internal/generation"
	"google.golang.org/genai"
)

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API. The text model writes the image prompt from the
// session's intention and duration, and the image model renders it.
type GeminiGenerator struct {
	logger *slog.Logger
	config config.GeneratorConfig
	client *genai.Client
}

// Interface guard.
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new GeminiGenerator with the provided
// dependencies. It validates the configuration and establishes the API
// client, so a misconfigured deployment fails at startup rather than on
// the first task.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.GeneratorConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.TextModel == "" {
		return nil, fmt.Errorf("%w: text model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ImageModel == "" {
		return nil, fmt.Errorf("%w: image model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: client,
	}, nil
}

// GeneratePrompt asks the text model to write an image prompt for the
// flower commemorating the given focus session.
func (g *GeminiGenerator) GeneratePrompt(ctx context.Context, reason string, durationSeconds int) (string, error) {
	if reason == "" {
		return "", ErrEmptyReason
	}

	meta, err := buildMetaPrompt(reason, durationSeconds)
	if err != nil {
		return "", err
	}

	g.logger.DebugContext(ctx, "Requesting flower prompt",
		slog.String("model", g.config.TextModel),
		slog.Int("duration_seconds", durationSeconds))

	resp, err := g.client.Models.GenerateContent(ctx, g.config.TextModel, genai.Text(meta), nil)
	if err != nil {
		return "", fmt.Errorf("%w: text generation call failed: %v", generation.ErrTransientFailure, err)
	}

	if err := checkCandidates(resp); err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(resp.Text())
	if prompt == "" {
		return "", fmt.Errorf("%w: text model returned no prompt", generation.ErrInvalidResponse)
	}

	g.logger.DebugContext(ctx, "Flower prompt generated",
		slog.Int("prompt_length", len(prompt)))

	return prompt, nil
}

// GenerateImage renders the prompt with the image model and returns the
// raw image bytes with their MIME type.
func (g *GeminiGenerator) GenerateImage(ctx context.Context, prompt string) (*generation.ImageResult, error) {
	if prompt == "" {
		return nil, generation.ErrEmptyPrompt
	}

	g.logger.DebugContext(ctx, "Requesting flower image",
		slog.String("model", g.config.ImageModel),
		slog.Int("prompt_length", len(prompt)))

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.ImageModel, genai.Text(g.imagePrompt(prompt)), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: image generation call failed: %v", generation.ErrTransientFailure, err)
	}

	if err := checkCandidates(resp); err != nil {
		return nil, err
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			g.logger.DebugContext(ctx, "Flower image generated",
				slog.Int("image_bytes", len(part.InlineData.Data)),
				slog.String("mime_type", mimeType))
			return &generation.ImageResult{
				Data:     part.InlineData.Data,
				MIMEType: mimeType,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: image model returned no image data", generation.ErrInvalidResponse)
}

// imagePrompt appends the configured framing hints to the prompt sent
// to the image model.
func (g *GeminiGenerator) imagePrompt(prompt string) string {
	hints := make([]string, 0, 2)
	if g.config.AspectRatio != "" {
		hints = append(hints, fmt.Sprintf("Aspect ratio %s.", g.config.AspectRatio))
	}
	if g.config.ImageSize != "" {
		hints = append(hints, fmt.Sprintf("Resolution %s.", g.config.ImageSize))
	}
	if len(hints) == 0 {
		return prompt
	}
	return prompt + " " + strings.Join(hints, " ")
}

// checkCandidates validates the common failure shapes a response can
// take before any part extraction happens.
func checkCandidates(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	return nil
}
