package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicedu/gradelens/internal/grading"
	"github.com/mosaicedu/gradelens/internal/rbac"
	"github.com/mosaicedu/gradelens/internal/roster"
)

// POST /submissions/{submissionID}/grade — run the LLM grader.
func GradeSubmissionHandler(svc *grading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		if id == "" {
			http.Error(w, "submissionID required", http.StatusBadRequest)
			return
		}
		g, err := svc.GradeSubmission(r.Context(), id)
		if err != nil {
			http.Error(w, "grade: "+err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

type manualGradeReq struct {
	TotalScore float64            `json:"total_score" validate:"gte=0"`
	MaxScore   float64            `json:"max_score" validate:"required,gt=0"`
	Feedback   string             `json:"feedback"`
	Criteria   map[string]float64 `json:"criteria_scores"`
}

// PUT /submissions/{submissionID}/grade — teacher overrides or supplies
// a grade by hand (the escape hatch for NeedsManual submissions).
func PutManualGradeHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		if _, err := store.GetSubmission(r.Context(), id); err != nil {
			storeErr(w, err)
			return
		}

		var req manualGradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid grade: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}

		g := roster.Grade{
			SubmissionID:   id,
			TotalScore:     req.TotalScore,
			MaxScore:       req.MaxScore,
			Feedback:       req.Feedback,
			CriteriaScores: req.Criteria,
			GradedBy:       rbac.SubjectFromContext(r.Context()),
		}
		if err := store.PutGrade(r.Context(), g); err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}
