package classroom

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mosaicedu/gradelens/internal/roster"
	"github.com/mosaicedu/gradelens/internal/storage"
	"github.com/mosaicedu/gradelens/internal/synclog"
)

type Clock func() time.Time

// Store is the slice of roster persistence the syncer writes to.
type Store interface {
	UpsertCourse(ctx context.Context, c roster.Course) error
	UpsertStudent(ctx context.Context, s roster.Student) error
	UpsertAssignment(ctx context.Context, a roster.Assignment) error
	UpsertSubmission(ctx context.Context, s roster.Submission) error
	GetSubmission(ctx context.Context, id string) (roster.Submission, error)
	RecordSyncRun(ctx context.Context, run roster.SyncRun) error
}

// EventSink receives sync lifecycle events; *synclog.EventRepo satisfies it.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data interface{}) error
}

type Syncer struct {
	Store  Store
	Client Client
	Blobs  storage.BlobStore // optional: caches submission attachments
	Events EventSink         // optional
	Now    Clock
}

func NewSyncer(store Store, client Client, now Clock) *Syncer {
	if now == nil {
		now = time.Now
	}
	return &Syncer{Store: store, Client: client, Now: now}
}

// SyncCourse mirrors one course from the classroom service into local
// storage. Upserts are idempotent; re-running a sync converges on the
// service's current state. The run is recorded pending first so a crash
// mid-sync leaves a visible trace.
func (s *Syncer) SyncCourse(ctx context.Context, courseID string) (roster.SyncRun, error) {
	run := roster.SyncRun{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Status:    "pending",
		StartedAt: s.Now().Unix(),
	}
	if err := s.Store.RecordSyncRun(ctx, run); err != nil {
		return run, err
	}

	if err := s.syncCourse(ctx, courseID, &run); err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		run.FinishedAt = s.Now().Unix()
		_ = s.Store.RecordSyncRun(ctx, run)
		s.emit(ctx, synclog.TypeSyncFailed, courseID, map[string]string{"error": err.Error()})
		return run, err
	}

	run.Status = "ok"
	run.FinishedAt = s.Now().Unix()
	if err := s.Store.RecordSyncRun(ctx, run); err != nil {
		return run, err
	}
	s.emit(ctx, synclog.TypeCourseSynced, courseID, run)
	return run, nil
}

func (s *Syncer) syncCourse(ctx context.Context, courseID string, run *roster.SyncRun) error {
	course, err := s.Client.GetCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("course: %w", err)
	}
	if err := s.Store.UpsertCourse(ctx, roster.Course{
		ID:         course.ID,
		ExternalID: course.ID,
		Name:       course.Name,
		Section:    course.Section,
	}); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}

	students, err := s.Client.ListStudents(ctx, courseID)
	if err != nil {
		return fmt.Errorf("students: %w", err)
	}
	for _, st := range students {
		if err := s.Store.UpsertStudent(ctx, roster.Student{
			ID: st.ID, CourseID: course.ID, Name: st.Name, Email: st.Email,
		}); err != nil {
			return fmt.Errorf("upsert student %s: %w", st.ID, err)
		}
		run.Students++
	}

	assignments, err := s.Client.ListAssignments(ctx, courseID)
	if err != nil {
		return fmt.Errorf("assignments: %w", err)
	}
	for _, a := range assignments {
		if err := s.Store.UpsertAssignment(ctx, roster.Assignment{
			ID:          a.ID,
			CourseID:    course.ID,
			Title:       a.Title,
			Description: a.Description,
			MaxPoints:   a.MaxPoints,
			DueAt:       a.DueAt,
		}); err != nil {
			return fmt.Errorf("upsert assignment %s: %w", a.ID, err)
		}
		run.Assignments++

		subs, err := s.Client.ListSubmissions(ctx, courseID, a.ID)
		if err != nil {
			return fmt.Errorf("submissions for %s: %w", a.ID, err)
		}
		for _, sub := range subs {
			local := roster.Submission{
				ID:           sub.ID,
				AssignmentID: a.ID,
				CourseID:     course.ID,
				StudentID:    sub.StudentID,
				Text:         sub.Text,
			}
			// Grading state is owned locally; keep it across re-syncs.
			if prev, err := s.Store.GetSubmission(ctx, sub.ID); err == nil {
				local.State = prev.State
				local.AttachmentKey = prev.AttachmentKey
			}
			if sub.AttachmentURL != "" && local.AttachmentKey == "" {
				local.AttachmentKey = s.cacheAttachment(ctx, sub)
			}
			if err := s.Store.UpsertSubmission(ctx, local); err != nil {
				return fmt.Errorf("upsert submission %s: %w", sub.ID, err)
			}
			run.Submissions++
		}
	}
	return nil
}

// cacheAttachment pulls the attachment into the blob store so previews
// don't hit the classroom service again. Failure is non-fatal: the sync
// keeps going and the attachment can be fetched on demand.
func (s *Syncer) cacheAttachment(ctx context.Context, sub Submission) string {
	if s.Blobs == nil {
		return ""
	}
	key := "submissions/" + sub.ID + "/attachment"
	// A crash between Put and the submission upsert leaves the blob
	// around without a key; pick it up instead of fetching again.
	if s.Blobs.Exists(key) {
		return key
	}
	rc, err := s.Client.FetchAttachment(ctx, sub.AttachmentURL)
	if err != nil {
		log.Printf("sync: attachment for submission %s: %v", sub.ID, err)
		return ""
	}
	defer rc.Close()
	if _, err := s.Blobs.Put(key, rc); err != nil {
		log.Printf("sync: cache attachment for submission %s: %v", sub.ID, err)
		return ""
	}
	return key
}

func (s *Syncer) emit(ctx context.Context, typ, key string, data interface{}) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Append(ctx, typ, key, data); err != nil {
		log.Printf("sync: event log append: %v", err)
	}
}
