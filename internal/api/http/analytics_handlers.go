package http

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicedu/gradelens/internal/analytics"
	"github.com/mosaicedu/gradelens/internal/roster"
)

func assignmentReport(ctx context.Context, store roster.Store, assignmentID string) (*analytics.Report, error) {
	rows, err := store.GradesForAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	subs := make([]analytics.Submission, len(rows))
	for i, sg := range rows {
		s := analytics.Submission{
			ID:          sg.SubmissionID,
			StudentName: sg.StudentName,
			Graded:      sg.IsGraded,
		}
		if sg.Grade != nil {
			s.Score = sg.Grade.TotalScore
			s.MaxScore = sg.Grade.MaxScore
		}
		subs[i] = s
	}
	return analytics.Compute(subs)
}

// GET /assignments/{assignmentID}/analytics
//
// No graded submissions yields an explicit no-data body (the dashboard
// renders an empty state, not zeroed charts). A submission whose stored
// grade is malformed fails the whole request with 422 naming it.
func AssignmentAnalyticsHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "assignmentID"))
		if _, err := store.GetAssignment(r.Context(), id); err != nil {
			storeErr(w, err)
			return
		}
		rep, err := assignmentReport(r.Context(), store, id)
		if err != nil {
			var verr *analytics.ValidationError
			if errors.As(err, &verr) {
				http.Error(w, "invalid grade on submission "+verr.SubmissionID, http.StatusUnprocessableEntity)
				return
			}
			storeErr(w, err)
			return
		}
		if rep == nil {
			writeJSON(w, http.StatusOK, map[string]bool{"no_data": true})
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// GET /assignments/{assignmentID}/analytics.csv — ranked list export.
func AnalyticsCSVHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "assignmentID"))
		if _, err := store.GetAssignment(r.Context(), id); err != nil {
			storeErr(w, err)
			return
		}
		rep, err := assignmentReport(r.Context(), store, id)
		if err != nil {
			var verr *analytics.ValidationError
			if errors.As(err, &verr) {
				http.Error(w, "invalid grade on submission "+verr.SubmissionID, http.StatusUnprocessableEntity)
				return
			}
			storeErr(w, err)
			return
		}
		if rep == nil {
			http.Error(w, "no graded submissions", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "analytics-"+id+".csv"))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"student", "score", "max_score", "percentage", "letter_grade"})
		for _, e := range rep.Entries {
			_ = cw.Write([]string{
				e.StudentName,
				strconv.FormatFloat(e.Score, 'f', -1, 64),
				strconv.FormatFloat(e.MaxScore, 'f', -1, 64),
				strconv.FormatFloat(e.Percentage, 'f', 1, 64),
				e.LetterGrade,
			})
		}
		cw.Flush()
	}
}
