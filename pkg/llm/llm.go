// Package llm consumes the text-generation collaborator. The grounding texts
// passed to Generate are the exclusive source of truth for the answer: the
// pipeline hands over only the resolved policy and clause texts, never the
// raw candidate set.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// Generator produces an answer grounded on the supplied texts.
type Generator interface {
	Generate(ctx context.Context, grounding []string, queryText string) (string, error)
}

// BuildPrompt assembles the grounding block and question. Grounding must be
// non-empty; an ungrounded prompt is refused rather than risked.
func BuildPrompt(grounding []string, queryText string) (string, error) {
	if len(grounding) == 0 {
		return "", fmt.Errorf("%w: empty grounding", models.ErrGenerationFailed)
	}
	b := &strings.Builder{}
	b.WriteString("Answer the question using ONLY the policy excerpts below.\n")
	b.WriteString("If the excerpts do not answer the question, say so. Do not invent rules.\n\n")
	for i, text := range grounding {
		fmt.Fprintf(b, "[Excerpt %d]\n%s\n\n", i+1, text)
	}
	b.WriteString("Question:\n")
	b.WriteString(queryText)
	b.WriteString("\n\nAnswer:")
	return b.String(), nil
}
