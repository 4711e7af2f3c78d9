package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicedu/gradelens/internal/roster"
)

// GET /courses/{courseID}/assignments
func ListAssignmentsHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "courseID"))
		list, err := store.ListAssignments(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /assignments/{assignmentID}
func GetAssignmentHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "assignmentID"))
		a, err := store.GetAssignment(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

type rubricReq struct {
	Criteria []struct {
		Key       string  `json:"key" validate:"required"`
		Desc      string  `json:"desc"`
		MaxPoints float64 `json:"max_points" validate:"required,gt=0"`
	} `json:"criteria" validate:"required,min=1,dive"`
	MaxPoints float64 `json:"max_points" validate:"omitempty,gt=0"`
}

// PUT /assignments/{assignmentID}/rubric — teacher defines or replaces
// the grading rubric.
func PutRubricHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "assignmentID"))
		a, err := store.GetAssignment(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}

		var req rubricReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid rubric: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}

		rubric := map[string]interface{}{
			"criteria":   req.Criteria,
			"max_points": req.MaxPoints,
		}
		raw, err := json.Marshal(rubric)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		a.Rubric = raw
		if err := store.UpsertAssignment(r.Context(), a); err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
