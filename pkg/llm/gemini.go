package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// Gemini generates answers through the Google generative AI API.
type Gemini struct {
	APIKey string
	Model  string
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{APIKey: apiKey, Model: model}
}

func (g *Gemini) Generate(ctx context.Context, grounding []string, queryText string) (string, error) {
	prompt, err := BuildPrompt(grounding, queryText)
	if err != nil {
		return "", err
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response", models.ErrGenerationFailed)
	}
	b := &strings.Builder{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer text", models.ErrGenerationFailed)
	}
	return answer, nil
}
