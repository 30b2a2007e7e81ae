package generation

import "context"

// ImageResult is the output of an image-generation call.
type ImageResult struct {
	// Data holds the raw image bytes.
	Data []byte

	// MIMEType is the image content type reported by the model,
	// e.g. "image/png".
	MIMEType string
}

// Generator produces the flower artwork for a completed focus session.
// Generation is a two-step process: a text-generation call turns the
// session's reason and duration into a detailed image prompt, then an
// image-generation call renders that prompt.
type Generator interface {
	// GeneratePrompt creates a detailed image-generation prompt from
	// the focus session inputs.
	GeneratePrompt(ctx context.Context, reason string, durationSeconds int) (string, error)

	// GenerateImage renders the given prompt into image bytes.
	GenerateImage(ctx context.Context, prompt string) (*ImageResult, error)
}
