package classroom_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mosaicedu/gradelens/internal/classroom"
	"github.com/mosaicedu/gradelens/internal/roster"
)

/* ---------------- Fake classroom service ---------------- */

type fakeClient struct {
	course      classroom.Course
	students    []classroom.Student
	assignments []classroom.Assignment
	submissions map[string][]classroom.Submission // assignmentID -> subs
	attachments map[string]string                 // URL -> body

	studentsErr error
	fetchCalls  int
}

func (f *fakeClient) GetCourse(_ context.Context, id string) (classroom.Course, error) {
	if id != f.course.ID {
		return classroom.Course{}, errors.New("course not found")
	}
	return f.course, nil
}

func (f *fakeClient) ListStudents(_ context.Context, _ string) ([]classroom.Student, error) {
	if f.studentsErr != nil {
		return nil, f.studentsErr
	}
	return f.students, nil
}

func (f *fakeClient) ListAssignments(_ context.Context, _ string) ([]classroom.Assignment, error) {
	return f.assignments, nil
}

func (f *fakeClient) ListSubmissions(_ context.Context, _, assignmentID string) ([]classroom.Submission, error) {
	return f.submissions[assignmentID], nil
}

func (f *fakeClient) FetchAttachment(_ context.Context, u string) (io.ReadCloser, error) {
	f.fetchCalls++
	body, ok := f.attachments[u]
	if !ok {
		return nil, errors.New("attachment not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

/* ---------------- Fake blob store ---------------- */

type fakeBlobs struct{ blobs map[string]string }

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{blobs: map[string]string{}} }

func (b *fakeBlobs) Put(key string, r io.Reader) (string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.blobs[key] = string(buf)
	return key, nil
}

func (b *fakeBlobs) Get(key string) (io.ReadCloser, error) {
	body, ok := b.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (b *fakeBlobs) Exists(key string) bool {
	_, ok := b.blobs[key]
	return ok
}

func seedClient() *fakeClient {
	return &fakeClient{
		course: classroom.Course{ID: "c1", Name: "Biology 101", Section: "B"},
		students: []classroom.Student{
			{ID: "u1", Name: "Ada"},
			{ID: "u2", Name: "Ben"},
		},
		assignments: []classroom.Assignment{
			{ID: "a1", Title: "Essay 1", MaxPoints: 100},
		},
		submissions: map[string][]classroom.Submission{
			"a1": {
				{ID: "s1", AssignmentID: "a1", StudentID: "u1", Text: "mitochondria"},
				{ID: "s2", AssignmentID: "a1", StudentID: "u2", Text: "ribosomes"},
			},
		},
	}
}

func TestSyncCourse_MirrorsEverything(t *testing.T) {
	ctx := context.Background()
	store := roster.NewInMemoryStore()
	syncer := classroom.NewSyncer(store, seedClient(), time.Now)

	run, err := syncer.SyncCourse(ctx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != "ok" {
		t.Fatalf("run status = %q, want ok", run.Status)
	}
	if run.Students != 2 || run.Assignments != 1 || run.Submissions != 2 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/2", run.Students, run.Assignments, run.Submissions)
	}

	if _, err := store.GetCourse(ctx, "c1"); err != nil {
		t.Fatalf("course not mirrored: %v", err)
	}
	subs, err := store.ListSubmissions(ctx, roster.SubmissionListOpts{AssignmentID: "a1"})
	if err != nil || len(subs) != 2 {
		t.Fatalf("submissions = %v (%v), want 2", subs, err)
	}
	for _, s := range subs {
		if s.State != roster.SubmissionNew {
			t.Fatalf("fresh submission state = %q, want %q", s.State, roster.SubmissionNew)
		}
	}
}

func TestSyncCourse_ResyncKeepsLocalGradingState(t *testing.T) {
	ctx := context.Background()
	store := roster.NewInMemoryStore()
	syncer := classroom.NewSyncer(store, seedClient(), time.Now)

	if _, err := syncer.SyncCourse(ctx, "c1"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	// Grade one submission locally, then re-sync.
	if err := store.PutGrade(ctx, roster.Grade{SubmissionID: "s1", TotalScore: 88, MaxScore: 100}); err != nil {
		t.Fatalf("put grade: %v", err)
	}
	if _, err := syncer.SyncCourse(ctx, "c1"); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	sub, err := store.GetSubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if sub.State != roster.SubmissionGraded {
		t.Fatalf("re-sync clobbered grading state: %q", sub.State)
	}
}

func TestSyncCourse_FailureRecordsFailedRun(t *testing.T) {
	ctx := context.Background()
	store := roster.NewInMemoryStore()
	client := seedClient()
	client.studentsErr = errors.New("service unavailable")
	syncer := classroom.NewSyncer(store, client, time.Now)

	if _, err := syncer.SyncCourse(ctx, "c1"); err == nil {
		t.Fatalf("expected error when roster fetch fails")
	}
	run, err := store.LatestSyncRun(ctx, "c1")
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if run.Status != "failed" || run.Error == "" {
		t.Fatalf("run = %+v, want failed with error message", run)
	}
}

func TestSyncCourse_CachesAttachmentOnce(t *testing.T) {
	ctx := context.Background()
	store := roster.NewInMemoryStore()
	client := seedClient()
	client.submissions["a1"][0].AttachmentURL = "http://files/s1.pdf"
	client.attachments = map[string]string{"http://files/s1.pdf": "pdf bytes"}
	blobs := newFakeBlobs()
	syncer := classroom.NewSyncer(store, client, time.Now)
	syncer.Blobs = blobs

	if _, err := syncer.SyncCourse(ctx, "c1"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	sub, err := store.GetSubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if sub.AttachmentKey == "" || !blobs.Exists(sub.AttachmentKey) {
		t.Fatalf("attachment not cached: key=%q", sub.AttachmentKey)
	}
	if client.fetchCalls != 1 {
		t.Fatalf("fetch calls = %d, want 1", client.fetchCalls)
	}

	// Re-sync keeps the stored key; no second download.
	if _, err := syncer.SyncCourse(ctx, "c1"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if client.fetchCalls != 1 {
		t.Fatalf("re-sync re-downloaded: %d calls", client.fetchCalls)
	}
}

func TestSyncCourse_ReusesBlobWithoutStoredKey(t *testing.T) {
	ctx := context.Background()
	client := seedClient()
	client.submissions["a1"][0].AttachmentURL = "http://files/s1.pdf"
	client.attachments = map[string]string{"http://files/s1.pdf": "pdf bytes"}

	// Blob already cached, but the local submission row was lost.
	blobs := newFakeBlobs()
	blobs.blobs["submissions/s1/attachment"] = "pdf bytes"
	store := roster.NewInMemoryStore()
	syncer := classroom.NewSyncer(store, client, time.Now)
	syncer.Blobs = blobs

	if _, err := syncer.SyncCourse(ctx, "c1"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if client.fetchCalls != 0 {
		t.Fatalf("existing blob must not be re-fetched: %d calls", client.fetchCalls)
	}
	sub, err := store.GetSubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if sub.AttachmentKey != "submissions/s1/attachment" {
		t.Fatalf("attachment key = %q", sub.AttachmentKey)
	}
}

func TestSyncCourse_UnknownCourse(t *testing.T) {
	ctx := context.Background()
	store := roster.NewInMemoryStore()
	syncer := classroom.NewSyncer(store, seedClient(), time.Now)

	if _, err := syncer.SyncCourse(ctx, "nope"); err == nil {
		t.Fatalf("expected error for unknown course")
	}
}
