// Package prompts owns the language-model prompt templates and the fixed
// fallback content used when generation fails or parses short.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var rawTemplates []byte

// QuestionCount is the fixed number of questions per interview session
const QuestionCount = 5

// maxJDLength caps how much of the job description is sent to the model
const maxJDLength = 500

// FallbackQuestions pad the generated question list to exactly five
var FallbackQuestions = []string{
	"Tell me about yourself and why you're interested in this position.",
	"What relevant experience do you have for this role?",
	"Describe a challenging project you worked on.",
	"What are your key strengths for this position?",
	"Where do you see yourself in the next 3-5 years?",
}

// DefaultRecommendations pad the summary recommendations to exactly five
var DefaultRecommendations = []string{
	"Provide more specific examples from past experience to support your answers",
	"Structure responses using the STAR method (Situation, Task, Action, Result)",
	"Practice articulating complex concepts in clear, concise language",
	"Research the company thoroughly and align answers with their values",
	"Demonstrate enthusiasm and genuine interest in the role and organization",
}

// Library holds the parsed prompt templates
type Library struct {
	questionGeneration *template.Template
	feedback           *template.Template
	expectedAnswer     *template.Template
	summary            *template.Template
}

// templateFile is the on-disk YAML shape
type templateFile struct {
	QuestionGeneration string `yaml:"question_generation"`
	Feedback           string `yaml:"feedback"`
	ExpectedAnswer     string `yaml:"expected_answer"`
	Summary            string `yaml:"summary"`
}

// Load parses the embedded prompt templates
func Load() (*Library, error) {
	var file templateFile
	if err := yaml.Unmarshal(rawTemplates, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	lib := &Library{}
	var err error

	if lib.questionGeneration, err = parse("question_generation", file.QuestionGeneration); err != nil {
		return nil, err
	}
	if lib.feedback, err = parse("feedback", file.Feedback); err != nil {
		return nil, err
	}
	if lib.expectedAnswer, err = parse("expected_answer", file.ExpectedAnswer); err != nil {
		return nil, err
	}
	if lib.summary, err = parse("summary", file.Summary); err != nil {
		return nil, err
	}

	return lib, nil
}

func parse(name, text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt template %q is empty", name)
	}

	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
	}
	return tmpl, nil
}

// QuestionGeneration renders the question-set prompt for a candidate.
// The job description is truncated to keep prompts bounded.
func (l *Library) QuestionGeneration(position, experience, jd string) (string, error) {
	if len(jd) > maxJDLength {
		jd = jd[:maxJDLength]
	}

	return render(l.questionGeneration, map[string]string{
		"Position":   position,
		"Experience": experience,
		"JD":         jd,
	})
}

// Feedback renders the per-question critique prompt
func (l *Library) Feedback(question, answer string) (string, error) {
	return render(l.feedback, map[string]string{
		"Question": question,
		"Answer":   answer,
	})
}

// ExpectedAnswer renders the ideal-answer prompt
func (l *Library) ExpectedAnswer(position, question string) (string, error) {
	return render(l.expectedAnswer, map[string]string{
		"Position": position,
		"Question": question,
	})
}

// Summary renders the aggregate evaluation prompt
func (l *Library) Summary(questionCount int, averageRatings string) (string, error) {
	return render(l.summary, map[string]any{
		"QuestionCount":  questionCount,
		"AverageRatings": averageRatings,
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
