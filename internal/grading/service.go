package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mosaicedu/gradelens/internal/roster"
	"github.com/mosaicedu/gradelens/internal/synclog"
)

// Store is the slice of roster persistence the grading service needs.
type Store interface {
	GetSubmission(ctx context.Context, id string) (roster.Submission, error)
	GetAssignment(ctx context.Context, id string) (roster.Assignment, error)
	PutGrade(ctx context.Context, g roster.Grade) error
	SetSubmissionState(ctx context.Context, id, state string) error
}

type EventSink interface {
	Append(ctx context.Context, typ, key string, data interface{}) error
}

type Service struct {
	Store  Store
	Grader *Grader
	Events EventSink // optional
}

func NewService(store Store, grader *Grader) *Service {
	return &Service{Store: store, Grader: grader}
}

// GradeSubmission runs the LLM grader over one submission and persists
// the outcome. A NeedsManual verdict parks the submission in the error
// state instead of writing a grade.
func (s *Service) GradeSubmission(ctx context.Context, submissionID string) (roster.Grade, error) {
	sub, err := s.Store.GetSubmission(ctx, submissionID)
	if err != nil {
		return roster.Grade{}, err
	}
	a, err := s.Store.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return roster.Grade{}, err
	}
	if len(a.Rubric) == 0 {
		return roster.Grade{}, fmt.Errorf("assignment %s has no rubric", a.ID)
	}
	var rubric Rubric
	if err := json.Unmarshal(a.Rubric, &rubric); err != nil {
		return roster.Grade{}, fmt.Errorf("assignment %s: bad rubric: %w", a.ID, err)
	}

	if err := s.Store.SetSubmissionState(ctx, submissionID, roster.SubmissionQueued); err != nil {
		return roster.Grade{}, err
	}

	res, err := s.Grader.Grade(ctx, rubric, a.Title, sub.Text)
	if err != nil {
		_ = s.Store.SetSubmissionState(ctx, submissionID, roster.SubmissionError)
		s.emit(ctx, synclog.TypeGradingFailed, submissionID, map[string]string{"error": err.Error()})
		return roster.Grade{}, err
	}
	if res.NeedsManual {
		_ = s.Store.SetSubmissionState(ctx, submissionID, roster.SubmissionError)
		s.emit(ctx, synclog.TypeGradingFailed, submissionID, map[string]string{"error": res.Feedback})
		return roster.Grade{}, fmt.Errorf("submission %s needs manual grading: %s", submissionID, res.Feedback)
	}

	g := roster.Grade{
		SubmissionID:   submissionID,
		TotalScore:     res.TotalScore,
		MaxScore:       res.MaxScore,
		Feedback:       res.Feedback,
		CriteriaScores: res.CriteriaScores,
		GradedBy:       "llm",
	}
	if err := s.Store.PutGrade(ctx, g); err != nil {
		return roster.Grade{}, err
	}
	s.emit(ctx, synclog.TypeSubmissionGraded, submissionID, g)
	return g, nil
}

func (s *Service) emit(ctx context.Context, typ, key string, data interface{}) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Append(ctx, typ, key, data); err != nil {
		log.Printf("grading: event log append: %v", err)
	}
}
