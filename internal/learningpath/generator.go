// Package learningpath generates a personalized learning path document for a
// captured visitor using the Gemini API.
package learningpath

import (
	"context"
	"fmt"
	"strings"

	"edpulse_backend/internal/intake/domain"
	"edpulse_backend/platform/config"

	"google.golang.org/genai"
)

// Generator calls the Gemini API to produce a markdown learning path.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates the Gemini-backed generator.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (*Generator, error) {
	if !cfg.IsAIEnabled() {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Generator{client: client, model: cfg.GetGeminiModel()}, nil
}

// Generate produces a markdown learning path for the visitor profile.
func (g *Generator) Generate(ctx context.Context, visitor domain.Visitor, interests []domain.InterestType, preferences []domain.PreferenceType) (string, error) {
	prompt := buildPrompt(visitor, interests, preferences)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

func buildPrompt(visitor domain.Visitor, interests []domain.InterestType, preferences []domain.PreferenceType) string {
	var b strings.Builder
	b.WriteString("You are a language learning advisor for EdPulse Education.\n")
	b.WriteString("Create a personalized 8-week learning path in markdown for the following student.\n\n")
	fmt.Fprintf(&b, "Name: %s %s\n", visitor.FirstName, visitor.LastName)
	if visitor.Occupation != "" {
		fmt.Fprintf(&b, "Occupation: %s\n", visitor.Occupation)
	}
	if visitor.Reasons != "" {
		fmt.Fprintf(&b, "Motivation: %s\n", visitor.Reasons)
	}

	if len(interests) > 0 {
		names := make([]string, len(interests))
		for i, interest := range interests {
			names[i] = string(interest)
		}
		fmt.Fprintf(&b, "Languages of interest: %s\n", strings.Join(names, ", "))
	} else {
		b.WriteString("Languages of interest: not specified (suggest starting points)\n")
	}

	if len(preferences) > 0 {
		names := make([]string, len(preferences))
		for i, preference := range preferences {
			names[i] = string(preference)
		}
		fmt.Fprintf(&b, "Preferred learning formats: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\nKeep it practical: weekly goals, concrete exercises, and time estimates.")
	return b.String()
}
