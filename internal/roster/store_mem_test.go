package roster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mosaicedu/gradelens/internal/roster"
)

func seed(t *testing.T) (context.Context, roster.Store) {
	t.Helper()
	ctx := context.Background()
	s := roster.NewInMemoryStore()
	if err := s.UpsertCourse(ctx, roster.Course{ID: "c1", Name: "Biology"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertAssignment(ctx, roster.Assignment{ID: "a1", CourseID: "c1", Title: "Essay 1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertStudent(ctx, roster.Student{ID: "u1", CourseID: "c1", Name: "Ada"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertStudent(ctx, roster.Student{ID: "u2", CourseID: "c1", Name: "Ben"}); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"s1", "s2"} {
		student := "u1"
		if id == "s2" {
			student = "u2"
		}
		if err := s.UpsertSubmission(ctx, roster.Submission{
			ID: id, AssignmentID: "a1", CourseID: "c1", StudentID: student,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return ctx, s
}

func TestGradesForAssignment_JoinShape(t *testing.T) {
	ctx, s := seed(t)
	if err := s.PutGrade(ctx, roster.Grade{SubmissionID: "s1", TotalScore: 80, MaxScore: 100}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.GradesForAssignment(ctx, "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (ungraded submissions included)", len(rows))
	}
	// Stable submission order: s1 then s2.
	if rows[0].SubmissionID != "s1" || !rows[0].IsGraded || rows[0].Grade.TotalScore != 80 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[0].StudentName != "Ada" {
		t.Fatalf("student name = %q, want Ada", rows[0].StudentName)
	}
	if rows[1].IsGraded || rows[1].Grade != nil {
		t.Fatalf("ungraded row must carry no grade: %+v", rows[1])
	}
}

func TestPutGrade_FlipsSubmissionState(t *testing.T) {
	ctx, s := seed(t)
	if err := s.PutGrade(ctx, roster.Grade{SubmissionID: "s1", TotalScore: 50, MaxScore: 100}); err != nil {
		t.Fatal(err)
	}
	sub, err := s.GetSubmission(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if sub.State != roster.SubmissionGraded {
		t.Fatalf("state = %q, want graded", sub.State)
	}
}

func TestListSubmissions_Filters(t *testing.T) {
	ctx, s := seed(t)
	got, err := s.ListSubmissions(ctx, roster.SubmissionListOpts{AssignmentID: "a1", StudentID: "u2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "s2" {
		t.Fatalf("got %+v, want only s2", got)
	}

	got, err = s.ListSubmissions(ctx, roster.SubmissionListOpts{State: roster.SubmissionGraded})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("nothing graded yet, got %+v", got)
	}
}

func TestNotFoundWrapsSentinel(t *testing.T) {
	ctx, s := seed(t)
	_, err := s.GetSubmission(ctx, "nope")
	if !errors.Is(err, roster.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	_, err = s.GetGrade(ctx, "s1")
	if !errors.Is(err, roster.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	_, err = s.LatestSyncRun(ctx, "c1")
	if !errors.Is(err, roster.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
