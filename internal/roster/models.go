package roster

import "encoding/json"

// Course mirrors one classroom-service course tracked locally.
type Course struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"` // id on the classroom service
	Name       string `json:"name"`
	Section    string `json:"section,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"` // local teacher user id
	CreatedAt  int64  `json:"created_at,omitempty"`
}

type Student struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

// Assignment carries the teacher-defined rubric as raw JSON; the grading
// package owns its shape.
type Assignment struct {
	ID          string          `json:"id"`
	CourseID    string          `json:"course_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	MaxPoints   float64         `json:"max_points"`
	Rubric      json.RawMessage `json:"rubric,omitempty"`
	DueAt       int64           `json:"due_at,omitempty"`
	CreatedAt   int64           `json:"created_at,omitempty"`
}

// Submission states.
const (
	SubmissionNew    = "new"    // synced, not yet queued for grading
	SubmissionQueued = "queued" // grading requested
	SubmissionGraded = "graded"
	SubmissionError  = "error" // grading failed, needs teacher attention
)

type Submission struct {
	ID            string `json:"id"`
	AssignmentID  string `json:"assignment_id"`
	CourseID      string `json:"course_id"`
	StudentID     string `json:"student_id"`
	State         string `json:"state"`
	Text          string `json:"text,omitempty"`           // extracted submission body
	AttachmentKey string `json:"attachment_key,omitempty"` // blob store key, if any
	UpdatedAt     int64  `json:"updated_at,omitempty"`
}

type Grade struct {
	SubmissionID   string             `json:"submission_id"`
	TotalScore     float64            `json:"total_score"`
	MaxScore       float64            `json:"max_score"`
	Feedback       string             `json:"feedback,omitempty"`
	CriteriaScores map[string]float64 `json:"criteria_scores,omitempty"`
	GradedBy       string             `json:"graded_by,omitempty"` // "llm" or a teacher user id
	GradedAt       int64              `json:"graded_at,omitempty"`
}

// SubmissionGrade is the read-side join consumed by the analytics engine:
// one submission, the owning student's name, and the grade if present.
type SubmissionGrade struct {
	SubmissionID string `json:"id"`
	StudentName  string `json:"student_name"`
	IsGraded     bool   `json:"is_graded"`
	Grade        *Grade `json:"grade,omitempty"`
}

// SyncRun records one classroom sync pass over a course.
type SyncRun struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	Status      string `json:"status"` // pending|ok|failed
	Students    int    `json:"students"`
	Assignments int    `json:"assignments"`
	Submissions int    `json:"submissions"`
	Error       string `json:"error,omitempty"`
	StartedAt   int64  `json:"started_at"`
	FinishedAt  int64  `json:"finished_at,omitempty"`
}
