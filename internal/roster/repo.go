package roster

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) for lookups that match nothing.
var ErrNotFound = errors.New("not found")

type SubmissionListOpts struct {
	AssignmentID string
	StudentID    string
	State        string // optional: new|queued|graded|error
	Limit        int
	Offset       int
}

// Store is the persistence surface for classroom data. The analytics
// engine depends only on GradesForAssignment; everything else serves
// sync, grading and the dashboard API.
type Store interface {
	UpsertCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)

	UpsertStudent(ctx context.Context, s Student) error
	ListStudents(ctx context.Context, courseID string) ([]Student, error)

	UpsertAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	ListAssignments(ctx context.Context, courseID string) ([]Assignment, error)

	UpsertSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error)
	SetSubmissionState(ctx context.Context, id, state string) error

	PutGrade(ctx context.Context, g Grade) error
	GetGrade(ctx context.Context, submissionID string) (Grade, error)

	// GradesForAssignment feeds the analytics engine: every submission
	// for the assignment joined with its student name and grade, in
	// stable submission order.
	GradesForAssignment(ctx context.Context, assignmentID string) ([]SubmissionGrade, error)

	RecordSyncRun(ctx context.Context, run SyncRun) error
	LatestSyncRun(ctx context.Context, courseID string) (SyncRun, error)
}
