// Package prompt holds the medical assistant prompt. The wording is part of
// the assistant's behaviour: prefer the supplied context, fall back to
// general medical knowledge, and only decline questions unrelated to health.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"askdoc/internal/domain"
)

// DontKnow is the reply the template reserves for off-topic questions.
const DontKnow = "I don't know"

const medicalAssistant = `
You are a knowledgeable AI medical assistant designed to help users with their health and medical questions. Your goal is to provide helpful, accurate information based on the available context and general medical knowledge.

INSTRUCTIONS:
1. Always try to provide a helpful response using the context provided
2. If the context contains relevant medical information, use it to give a comprehensive answer
3. If the context is limited, supplement with general medical knowledge when appropriate
4. Only say "{{.DontKnow}}" if the question is completely unrelated to medicine or health
5. Be informative, clear, and reassuring in your responses
6. Structure answers to be easily understandable
7. Focus on providing actionable, practical information

CONTEXT INFORMATION:
{{.Context}}

USER QUESTION: {{.Question}}

MEDICAL ASSISTANT RESPONSE:
`

var tmpl = template.Must(template.New("medical").Option("missingkey=error").Parse(medicalAssistant))

type slots struct {
	Context  string
	Question string
	DontKnow string
}

// Render fills the template's context and question slots.
func Render(context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is blank", domain.ErrEmptyInput)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, slots{Context: context, Question: strings.TrimSpace(question), DontKnow: DontKnow}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// JoinContext concatenates retrieved chunk texts in rank order.
func JoinContext(results []domain.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if text := strings.TrimSpace(r.Chunk.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
