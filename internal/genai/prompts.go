package genai

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/provoice/interview-agent/internal/store"
)

// PromptSet holds the instruction templates driving the interviewer. Each
// template is a plain string; occurrences of the documented placeholders are
// substituted before the call.
type PromptSet struct {
	// Persona is the system prompt seeded into every new conversation.
	// Placeholder: {{job_role}}.
	Persona string `yaml:"persona"`

	// NextQuestion asks for the follow-up question given the full history.
	NextQuestion string `yaml:"next_question"`

	// Evaluation scores a single question/answer pair.
	// Placeholders: {{question}}, {{answer}}.
	Evaluation string `yaml:"evaluation"`

	// Report summarizes the whole transcript.
	// Placeholder: {{transcript}}.
	Report string `yaml:"report"`
}

// DefaultPrompts returns the built-in interviewer prompts.
func DefaultPrompts() *PromptSet {
	return &PromptSet{
		Persona: "You are an expert interviewer conducting an interview for a '{{job_role}}' position. " +
			"Your tone is professional and encouraging. Start by briefly introducing yourself and then " +
			"ask the first relevant technical or behavioral question. Keep your questions clear and concise. " +
			"Ask exactly one question at a time.",
		NextQuestion: "That was the candidate's answer. Based on the conversation so far, ask the next " +
			"logical question. Do not repeat questions.",
		Evaluation: "As an expert interviewer, evaluate the following answer provided for a specific question. " +
			"Provide a score from 1 to 10 and a brief, constructive justification for your score. " +
			"Focus on clarity, relevance to the question, and accuracy.\n\n" +
			"Question: \"{{question}}\"\nCandidate's Answer: \"{{answer}}\"\n\n" +
			"Your Evaluation (Score and Justification):",
		Report: "Based on the following interview transcript and individual evaluations, provide a final " +
			"summary of the candidate's performance. Conclude by highlighting their key strengths and " +
			"suggesting 2-3 specific areas for improvement.\n\n" +
			"Interview Transcript & Evaluations:\n{{transcript}}\n\nFinal Performance Summary:",
	}
}

// LoadPrompts reads prompt overrides from a YAML file and merges them over the
// defaults. An empty path returns the defaults unchanged.
func LoadPrompts(path string) (*PromptSet, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file %s: %w", path, err)
	}

	var overrides PromptSet
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing prompts file %s: %w", path, err)
	}

	if overrides.Persona != "" {
		prompts.Persona = overrides.Persona
	}
	if overrides.NextQuestion != "" {
		prompts.NextQuestion = overrides.NextQuestion
	}
	if overrides.Evaluation != "" {
		prompts.Evaluation = overrides.Evaluation
	}
	if overrides.Report != "" {
		prompts.Report = overrides.Report
	}
	return prompts, nil
}

func (p *PromptSet) persona(jobRole string) string {
	return strings.ReplaceAll(p.Persona, "{{job_role}}", jobRole)
}

func (p *PromptSet) evaluation(question, answer string) string {
	out := strings.ReplaceAll(p.Evaluation, "{{question}}", question)
	return strings.ReplaceAll(out, "{{answer}}", answer)
}

func (p *PromptSet) report(rounds []store.Round) string {
	var b strings.Builder
	for _, r := range rounds {
		fmt.Fprintf(&b, "Question: %s\nAnswer: %s\nEvaluation: %s\n\n", r.Question, r.Answer, r.Evaluation)
	}
	return strings.ReplaceAll(p.Report, "{{transcript}}", strings.TrimSpace(b.String()))
}
