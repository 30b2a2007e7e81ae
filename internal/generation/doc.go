// Package generation defines the interface for the flower image
// generation service consumed by the pipeline. The concrete Gemini
// implementation lives in internal/platform/gemini.
package generation
