// Package classroom pulls course, roster, assignment and submission data
// from the external classroom service and mirrors it into local storage.
package classroom

import (
	"context"
	"io"
)

// Wire types as the classroom service reports them.

type Course struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
}

type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Assignment struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	MaxPoints   float64 `json:"max_points"`
	DueAt       int64   `json:"due_at,omitempty"` // unix seconds, 0 = no due date
}

type Submission struct {
	ID            string `json:"id"`
	AssignmentID  string `json:"assignment_id"`
	StudentID     string `json:"student_id"`
	State         string `json:"state,omitempty"` // service-side state, informational
	Text          string `json:"text,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	UpdatedAt     int64  `json:"updated_at,omitempty"`
}

// Client is the read surface of the classroom service.
type Client interface {
	GetCourse(ctx context.Context, courseID string) (Course, error)
	ListStudents(ctx context.Context, courseID string) ([]Student, error)
	ListAssignments(ctx context.Context, courseID string) ([]Assignment, error)
	ListSubmissions(ctx context.Context, courseID, assignmentID string) ([]Submission, error)
	// FetchAttachment streams a submission attachment for local caching.
	FetchAttachment(ctx context.Context, url string) (io.ReadCloser, error)
}
