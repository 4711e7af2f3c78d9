package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) UpsertCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses (id,external_id,name,section,owner_id,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET external_id=EXCLUDED.external_id, name=EXCLUDED.name,
			section=EXCLUDED.section, owner_id=EXCLUDED.owner_id`,
		c.ID, c.ExternalID, c.Name, c.Section, c.OwnerID, time.Now().Unix())
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,external_id,name,section,owner_id,created_at FROM courses WHERE id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.ExternalID, &c.Name, &c.Section, &c.OwnerID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,external_id,name,section,owner_id,created_at FROM courses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.ExternalID, &c.Name, &c.Section, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertStudent(ctx context.Context, st Student) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO students (id,course_id,name,email)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET course_id=EXCLUDED.course_id, name=EXCLUDED.name, email=EXCLUDED.email`,
		st.ID, st.CourseID, st.Name, st.Email)
	return err
}

func (s *SQLStore) ListStudents(ctx context.Context, courseID string) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,course_id,name,email FROM students WHERE course_id=$1 ORDER BY name`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.CourseID, &st.Name, &st.Email); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertAssignment(ctx context.Context, a Assignment) error {
	rubric := "null"
	if len(a.Rubric) > 0 {
		rubric = string(a.Rubric)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments (id,course_id,title,description,max_points,rubric_json,due_at,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			max_points=EXCLUDED.max_points, rubric_json=EXCLUDED.rubric_json, due_at=EXCLUDED.due_at`,
		a.ID, a.CourseID, a.Title, a.Description, a.MaxPoints, rubric, a.DueAt, time.Now().Unix())
	return err
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,course_id,title,description,max_points,rubric_json,due_at,created_at FROM assignments WHERE id=$1`, id)
	var a Assignment
	var rubric string
	if err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.MaxPoints, &rubric, &a.DueAt, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
		}
		return Assignment{}, err
	}
	if rubric != "" && rubric != "null" {
		a.Rubric = json.RawMessage(rubric)
	}
	return a, nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,course_id,title,description,max_points,rubric_json,due_at,created_at
		 FROM assignments WHERE course_id=$1 ORDER BY due_at, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		var rubric string
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.MaxPoints, &rubric, &a.DueAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		if rubric != "" && rubric != "null" {
			a.Rubric = json.RawMessage(rubric)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertSubmission(ctx context.Context, sub Submission) error {
	if sub.State == "" {
		sub.State = SubmissionNew
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions (id,assignment_id,course_id,student_id,state,text,attachment_key,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET state=EXCLUDED.state, text=EXCLUDED.text,
			attachment_key=EXCLUDED.attachment_key, updated_at=EXCLUDED.updated_at`,
		sub.ID, sub.AssignmentID, sub.CourseID, sub.StudentID, sub.State, sub.Text, sub.AttachmentKey, time.Now().Unix())
	return err
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,assignment_id,course_id,student_id,state,text,attachment_key,updated_at FROM submissions WHERE id=$1`, id)
	var sub Submission
	if err := row.Scan(&sub.ID, &sub.AssignmentID, &sub.CourseID, &sub.StudentID, &sub.State, &sub.Text, &sub.AttachmentKey, &sub.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
		}
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error) {
	q := `SELECT id,assignment_id,course_id,student_id,state,text,attachment_key,updated_at FROM submissions WHERE 1=1`
	args := []interface{}{}
	n := 0
	add := func(cond string, v interface{}) {
		n++
		q += fmt.Sprintf(" AND %s=$%d", cond, n)
		args = append(args, v)
	}
	if opts.AssignmentID != "" {
		add("assignment_id", opts.AssignmentID)
	}
	if opts.StudentID != "" {
		add("student_id", opts.StudentID)
	}
	if opts.State != "" {
		add("state", opts.State)
	}
	q += " ORDER BY updated_at DESC, id"
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.AssignmentID, &sub.CourseID, &sub.StudentID, &sub.State, &sub.Text, &sub.AttachmentKey, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetSubmissionState(ctx context.Context, id, state string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET state=$1, updated_at=$2 WHERE id=$3`, state, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) PutGrade(ctx context.Context, g Grade) error {
	cj, err := json.Marshal(g.CriteriaScores)
	if err != nil {
		return err
	}
	if g.GradedAt == 0 {
		g.GradedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO grades (submission_id,total_score,max_score,feedback,criteria_json,graded_by,graded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (submission_id) DO UPDATE SET total_score=EXCLUDED.total_score, max_score=EXCLUDED.max_score,
			feedback=EXCLUDED.feedback, criteria_json=EXCLUDED.criteria_json,
			graded_by=EXCLUDED.graded_by, graded_at=EXCLUDED.graded_at`,
		g.SubmissionID, g.TotalScore, g.MaxScore, g.Feedback, string(cj), g.GradedBy, g.GradedAt)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE submissions SET state=$1 WHERE id=$2`, SubmissionGraded, g.SubmissionID)
	return err
}

func (s *SQLStore) GetGrade(ctx context.Context, submissionID string) (Grade, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT submission_id,total_score,max_score,feedback,criteria_json,graded_by,graded_at FROM grades WHERE submission_id=$1`, submissionID)
	g, err := scanGrade(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Grade{}, fmt.Errorf("grade for %s: %w", submissionID, ErrNotFound)
		}
		return Grade{}, err
	}
	return g, nil
}

func scanGrade(scan func(...interface{}) error) (Grade, error) {
	var g Grade
	var cj string
	if err := scan(&g.SubmissionID, &g.TotalScore, &g.MaxScore, &g.Feedback, &cj, &g.GradedBy, &g.GradedAt); err != nil {
		return Grade{}, err
	}
	if cj != "" && cj != "null" {
		if err := json.Unmarshal([]byte(cj), &g.CriteriaScores); err != nil {
			return Grade{}, err
		}
	}
	return g, nil
}

func (s *SQLStore) GradesForAssignment(ctx context.Context, assignmentID string) ([]SubmissionGrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sub.id, st.name,
		       g.submission_id, g.total_score, g.max_score, g.feedback, g.criteria_json, g.graded_by, g.graded_at
		FROM submissions sub
		LEFT JOIN students st ON st.id = sub.student_id
		LEFT JOIN grades g ON g.submission_id = sub.id
		WHERE sub.assignment_id=$1
		ORDER BY sub.id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubmissionGrade
	for rows.Next() {
		var sg SubmissionGrade
		var name, gid sql.NullString
		var total, max sql.NullFloat64
		var feedback, cj, gradedBy sql.NullString
		var gradedAt sql.NullInt64
		if err := rows.Scan(&sg.SubmissionID, &name, &gid, &total, &max, &feedback, &cj, &gradedBy, &gradedAt); err != nil {
			return nil, err
		}
		sg.StudentName = name.String
		if gid.Valid {
			g := Grade{
				SubmissionID: gid.String,
				TotalScore:   total.Float64,
				MaxScore:     max.Float64,
				Feedback:     feedback.String,
				GradedBy:     gradedBy.String,
				GradedAt:     gradedAt.Int64,
			}
			if cj.Valid && cj.String != "" && cj.String != "null" {
				if err := json.Unmarshal([]byte(cj.String), &g.CriteriaScores); err != nil {
					return nil, err
				}
			}
			sg.Grade = &g
			sg.IsGraded = true
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (s *SQLStore) RecordSyncRun(ctx context.Context, run SyncRun) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sync_runs (id,course_id,status,students,assignments,submissions,error,started_at,finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, students=EXCLUDED.students,
			assignments=EXCLUDED.assignments, submissions=EXCLUDED.submissions,
			error=EXCLUDED.error, finished_at=EXCLUDED.finished_at`,
		run.ID, run.CourseID, run.Status, run.Students, run.Assignments, run.Submissions,
		run.Error, run.StartedAt, run.FinishedAt)
	return err
}

func (s *SQLStore) LatestSyncRun(ctx context.Context, courseID string) (SyncRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,status,students,assignments,submissions,error,started_at,finished_at
		FROM sync_runs WHERE course_id=$1 ORDER BY started_at DESC LIMIT 1`, courseID)
	var run SyncRun
	if err := row.Scan(&run.ID, &run.CourseID, &run.Status, &run.Students, &run.Assignments,
		&run.Submissions, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SyncRun{}, fmt.Errorf("sync run for %s: %w", courseID, ErrNotFound)
		}
		return SyncRun{}, err
	}
	return run, nil
}
