package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memoryStore keeps everything in maps behind one lock. Used by tests
// and by the dev mode that runs without a database file.
type memoryStore struct {
	mu          sync.RWMutex
	courses     map[string]Course
	students    map[string]Student
	assignments map[string]Assignment
	submissions map[string]Submission
	grades      map[string]Grade
	syncRuns    map[string]SyncRun
}

func NewInMemoryStore() Store {
	return &memoryStore{
		courses:     map[string]Course{},
		students:    map[string]Student{},
		assignments: map[string]Assignment{},
		submissions: map[string]Submission{},
		grades:      map[string]Grade{},
		syncRuns:    map[string]SyncRun{},
	}
}

func (m *memoryStore) UpsertCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (m *memoryStore) ListCourses(_ context.Context) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) UpsertStudent(_ context.Context, s Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

func (m *memoryStore) ListStudents(_ context.Context, courseID string) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Student
	for _, s := range m.students {
		if s.CourseID == courseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) UpsertAssignment(_ context.Context, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *memoryStore) GetAssignment(_ context.Context, id string) (Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *memoryStore) ListAssignments(_ context.Context, courseID string) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Assignment
	for _, a := range m.assignments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt != out[j].DueAt {
			return out[i].DueAt < out[j].DueAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) UpsertSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State == "" {
		s.State = SubmissionNew
	}
	s.UpdatedAt = time.Now().Unix()
	m.submissions[s.ID] = s
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, opts SubmissionListOpts) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Submission
	for _, s := range m.submissions {
		if opts.AssignmentID != "" && s.AssignmentID != opts.AssignmentID {
			continue
		}
		if opts.StudentID != "" && s.StudentID != opts.StudentID {
			continue
		}
		if opts.State != "" && s.State != opts.State {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) SetSubmissionState(_ context.Context, id, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	s.State = state
	s.UpdatedAt = time.Now().Unix()
	m.submissions[id] = s
	return nil
}

func (m *memoryStore) PutGrade(_ context.Context, g Grade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.GradedAt == 0 {
		g.GradedAt = time.Now().Unix()
	}
	m.grades[g.SubmissionID] = g
	if s, ok := m.submissions[g.SubmissionID]; ok {
		s.State = SubmissionGraded
		m.submissions[g.SubmissionID] = s
	}
	return nil
}

func (m *memoryStore) GetGrade(_ context.Context, submissionID string) (Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grades[submissionID]
	if !ok {
		return Grade{}, fmt.Errorf("grade for %s: %w", submissionID, ErrNotFound)
	}
	return g, nil
}

func (m *memoryStore) GradesForAssignment(_ context.Context, assignmentID string) ([]SubmissionGrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var subs []Submission
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			subs = append(subs, s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })

	out := make([]SubmissionGrade, 0, len(subs))
	for _, s := range subs {
		sg := SubmissionGrade{SubmissionID: s.ID}
		if st, ok := m.students[s.StudentID]; ok {
			sg.StudentName = st.Name
		}
		if g, ok := m.grades[s.ID]; ok {
			gc := g
			sg.Grade = &gc
			sg.IsGraded = true
		}
		out = append(out, sg)
	}
	return out, nil
}

func (m *memoryStore) RecordSyncRun(_ context.Context, run SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncRuns[run.ID] = run
	return nil
}

func (m *memoryStore) LatestSyncRun(_ context.Context, courseID string) (SyncRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest SyncRun
	found := false
	for _, r := range m.syncRuns {
		if r.CourseID != courseID {
			continue
		}
		if !found || r.StartedAt > latest.StartedAt {
			latest = r
			found = true
		}
	}
	if !found {
		return SyncRun{}, fmt.Errorf("sync run for %s: %w", courseID, ErrNotFound)
	}
	return latest, nil
}
