// Package gemini implements the generation.Generator interface using
// Google's Gemini API: one text model builds the flower prompt, one
// image model renders it.
package gemini
