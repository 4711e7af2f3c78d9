// Package grading scores free-form submissions against teacher-defined
// rubrics by prompting a hosted language model for JSON-shaped output.
package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Result is the outcome of grading a single submission.
type Result struct {
	CriteriaScores map[string]float64 // per-criterion points, clamped
	TotalScore     float64
	MaxScore       float64
	Feedback       string
	NeedsManual    bool // model output unusable; a teacher must grade
}

// Grader options

type Option func(*config)

type config struct {
	Temperature float64
	MaxRetries  int // re-prompts after malformed JSON
}

func WithTemperature(t float64) Option { return func(c *config) { c.Temperature = t } }
func WithMaxRetries(n int) Option      { return func(c *config) { c.MaxRetries = n } }

type Grader struct {
	llm LLM
	cfg config
}

func NewGrader(llm LLM, opts ...Option) *Grader {
	cfg := config{Temperature: 0, MaxRetries: 1}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0 // always at least one attempt
	}
	return &Grader{llm: llm, cfg: cfg}
}

const systemPrompt = `You are a strict grader. Score the student submission against each rubric criterion.
Respond with a single JSON object and nothing else:
{"criteria_scores": {"<criterion key>": <points>}, "feedback": "<2-4 sentences for the student>"}
Points must be between 0 and the criterion maximum. Do not invent criteria.`

func buildPrompt(r Rubric, assignmentTitle, submissionText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assignment: %s\n\nRubric:\n", assignmentTitle)
	for _, c := range r.Criteria {
		fmt.Fprintf(&b, "- %s (max %.1f points): %s\n", c.Key, c.MaxPoints, c.Desc)
	}
	b.WriteString("\nSubmission:\n")
	b.WriteString(submissionText)
	return b.String()
}

type modelVerdict struct {
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	Feedback       string             `json:"feedback"`
}

// Grade asks the model to score one submission. Malformed model output
// is re-prompted up to MaxRetries times; if it never parses, the result
// is flagged NeedsManual with zero score rather than a fabricated one.
func (g *Grader) Grade(ctx context.Context, r Rubric, assignmentTitle, submissionText string) (Result, error) {
	if len(r.Criteria) == 0 {
		return Result{}, errors.New("rubric has no criteria")
	}
	res := Result{MaxScore: r.MaxPoints()}
	req := CompletionRequest{
		System:      systemPrompt,
		User:        buildPrompt(r, assignmentTitle, submissionText),
		Temperature: g.cfg.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		raw, err := g.llm.Complete(ctx, req)
		if err != nil {
			return Result{}, fmt.Errorf("llm: %w", err)
		}
		verdict, err := parseVerdict(raw)
		if err != nil {
			lastErr = err
			continue
		}
		clamped, total, notes := ScoreRubric(r, verdict.CriteriaScores)
		res.CriteriaScores = clamped
		res.TotalScore = total
		res.Feedback = verdict.Feedback
		if res.Feedback == "" {
			res.Feedback = strings.Join(notes, ", ")
		}
		return res, nil
	}

	res.NeedsManual = true
	res.Feedback = "automatic grading failed: " + lastErr.Error()
	return res, nil
}

// parseVerdict tolerates models that wrap the JSON in a code fence.
func parseVerdict(raw string) (modelVerdict, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	var v modelVerdict
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return modelVerdict{}, fmt.Errorf("unparseable model output: %w", err)
	}
	if len(v.CriteriaScores) == 0 {
		return modelVerdict{}, errors.New("model output missing criteria_scores")
	}
	return v, nil
}
