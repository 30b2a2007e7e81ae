package gemini

import (
	"bytes"
	"fmt"
	"text/template"
)

// metaPromptTemplate asks the text model to write the actual image
// prompt. The session reason and duration shape the flower it
// describes.
const metaPromptTemplate = `You are a prompt engineer for an AI image generator. Write a single, vivid prompt for a digital illustration of a unique, imaginary flower.

The flower commemorates a completed focus session:
- Intention: "{{.Reason}}"
- Duration: {{.Minutes}} minutes

Guidelines:
- Let the intention influence the flower's colors, shape, and mood.
- Longer sessions deserve more intricate, layered blossoms; shorter ones simpler, delicate forms.
- Style: soft watercolor and ink, gentle gradients, a calm zen garden atmosphere.
- Square 1:1 composition, the flower centered on a clean, softly lit background.
- No text, no people, no borders, no watermarks.

Respond with the image prompt only, no preamble or explanation.`

type promptData struct {
	Reason  string
	Minutes int
}

var metaPrompt = template.Must(template.New("meta").Parse(metaPromptTemplate))

// buildMetaPrompt renders the instruction sent to the text model.
func buildMetaPrompt(reason string, durationSeconds int) (string, error) {
	minutes := durationSeconds / 60
	if minutes < 1 {
		minutes = 1
	}

	var buf bytes.Buffer
	if err := metaPrompt.Execute(&buf, promptData{Reason: reason, Minutes: minutes}); err != nil {
		return "", fmt.Errorf("rendering meta prompt: %w", err)
	}
	return buf.String(), nil
}
