package grading_test

import (
	"context"
	"testing"

	"github.com/mosaicedu/gradelens/internal/grading"
	"github.com/mosaicedu/gradelens/internal/roster"
)

type scriptedLLM struct {
	replies []string
	calls   int
}

func (s *scriptedLLM) Complete(_ context.Context, _ grading.CompletionRequest) (string, error) {
	if s.calls >= len(s.replies) {
		return s.replies[len(s.replies)-1], nil
	}
	r := s.replies[s.calls]
	s.calls++
	return r, nil
}

func essayRubric() grading.Rubric {
	return grading.Rubric{
		Criteria: []grading.Criterion{
			{Key: "thesis", Desc: "clear thesis statement", MaxPoints: 40},
			{Key: "evidence", Desc: "supporting evidence", MaxPoints: 60},
		},
	}
}

func TestGrade_ParsesAndSums(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"criteria_scores": {"thesis": 35, "evidence": 50}, "feedback": "Solid work."}`,
	}}
	g := grading.NewGrader(llm)

	res, err := g.Grade(context.Background(), essayRubric(), "Essay 1", "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalScore != 85 || res.MaxScore != 100 {
		t.Fatalf("score = %v/%v, want 85/100", res.TotalScore, res.MaxScore)
	}
	if res.NeedsManual {
		t.Fatalf("unexpected NeedsManual")
	}
	if res.Feedback != "Solid work." {
		t.Fatalf("feedback = %q", res.Feedback)
	}
}

func TestGrade_ClampsOutOfRangeScores(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"criteria_scores": {"thesis": 400, "evidence": -10}}`,
	}}
	g := grading.NewGrader(llm)

	res, err := g.Grade(context.Background(), essayRubric(), "Essay 1", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CriteriaScores["thesis"] != 40 || res.CriteriaScores["evidence"] != 0 {
		t.Fatalf("clamped scores = %v, want thesis=40 evidence=0", res.CriteriaScores)
	}
	if res.TotalScore != 40 {
		t.Fatalf("total = %v, want 40", res.TotalScore)
	}
}

func TestGrade_RetriesOnMalformedThenSucceeds(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`I think the student did well!`,
		"```json\n{\"criteria_scores\": {\"thesis\": 30, \"evidence\": 45}, \"feedback\": \"ok\"}\n```",
	}}
	g := grading.NewGrader(llm, grading.WithMaxRetries(1))

	res, err := g.Grade(context.Background(), essayRubric(), "Essay 1", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.calls != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", llm.calls)
	}
	if res.TotalScore != 75 {
		t.Fatalf("total = %v, want 75", res.TotalScore)
	}
}

func TestGrade_UnusableOutputNeedsManual(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`not json`, `still not json`}}
	g := grading.NewGrader(llm, grading.WithMaxRetries(1))

	res, err := g.Grade(context.Background(), essayRubric(), "Essay 1", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NeedsManual {
		t.Fatalf("expected NeedsManual after exhausting retries")
	}
	if res.TotalScore != 0 {
		t.Fatalf("a fabricated score must never be persisted: %v", res.TotalScore)
	}
}

func TestGrade_NegativeRetriesStillAttemptsOnce(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`not json`}}
	g := grading.NewGrader(llm, grading.WithMaxRetries(-3))

	res, err := g.Grade(context.Background(), essayRubric(), "Essay 1", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected exactly 1 LLM call, got %d", llm.calls)
	}
	if !res.NeedsManual {
		t.Fatalf("expected NeedsManual for unusable output")
	}
}

func TestGrade_EmptyRubricRejected(t *testing.T) {
	g := grading.NewGrader(&scriptedLLM{replies: []string{`{}`}})
	if _, err := g.Grade(context.Background(), grading.Rubric{}, "Essay 1", "text"); err == nil {
		t.Fatalf("expected error for empty rubric")
	}
}

func TestService_GradeSubmissionPersists(t *testing.T) {
	ctx := context.Background()
	store := roster.NewInMemoryStore()
	seedStore(t, store)

	llm := &scriptedLLM{replies: []string{
		`{"criteria_scores": {"thesis": 40, "evidence": 55}, "feedback": "Strong essay."}`,
	}}
	svc := grading.NewService(store, grading.NewGrader(llm))

	g, err := svc.GradeSubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TotalScore != 95 || g.GradedBy != "llm" {
		t.Fatalf("grade = %+v", g)
	}
	sub, _ := store.GetSubmission(ctx, "s1")
	if sub.State != roster.SubmissionGraded {
		t.Fatalf("submission state = %q, want graded", sub.State)
	}
}

func TestService_ManualFallbackParksSubmission(t *testing.T) {
	ctx := context.Background()
	store := roster.NewInMemoryStore()
	seedStore(t, store)

	llm := &scriptedLLM{replies: []string{`garbage`, `garbage`}}
	svc := grading.NewService(store, grading.NewGrader(llm, grading.WithMaxRetries(1)))

	if _, err := svc.GradeSubmission(ctx, "s1"); err == nil {
		t.Fatalf("expected error when the model never produces JSON")
	}
	sub, _ := store.GetSubmission(ctx, "s1")
	if sub.State != roster.SubmissionError {
		t.Fatalf("submission state = %q, want error", sub.State)
	}
	if _, err := store.GetGrade(ctx, "s1"); err == nil {
		t.Fatalf("no grade must be written for an ungradeable submission")
	}
}

func seedStore(t *testing.T, store roster.Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.UpsertCourse(ctx, roster.Course{ID: "c1", Name: "Biology"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertAssignment(ctx, roster.Assignment{
		ID: "a1", CourseID: "c1", Title: "Essay 1", MaxPoints: 100,
		Rubric: []byte(`{"criteria":[{"key":"thesis","desc":"clear thesis","max_points":40},{"key":"evidence","desc":"evidence","max_points":60}]}`),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertSubmission(ctx, roster.Submission{
		ID: "s1", AssignmentID: "a1", CourseID: "c1", StudentID: "u1", Text: "the essay",
	}); err != nil {
		t.Fatal(err)
	}
}
