package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicedu/gradelens/internal/rbac"
	"github.com/mosaicedu/gradelens/internal/roster"
	"github.com/mosaicedu/gradelens/internal/storage"
)

// GET /submissions?assignment_id=...&student_id=...&state=...&limit=50&offset=0
// Roles with submission:view-all see any filters; everyone else is
// forced onto their own student id.
func ListSubmissionsHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		opts := roster.SubmissionListOpts{
			AssignmentID: strings.TrimSpace(r.URL.Query().Get("assignment_id")),
			StudentID:    strings.TrimSpace(r.URL.Query().Get("student_id")),
			State:        strings.TrimSpace(r.URL.Query().Get("state")),
			Limit:        parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:       parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if role != "admin" && role != "teacher" {
			opts.StudentID = sub
		}

		list, err := store.ListSubmissions(r.Context(), opts)
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		s, err := store.GetSubmission(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "admin" && role != "teacher" && s.StudentID != rbac.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// GET /submissions/{submissionID}/grade
func GetGradeHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		s, err := store.GetSubmission(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "admin" && role != "teacher" && s.StudentID != rbac.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		g, err := store.GetGrade(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// GET /submissions/{submissionID}/attachment — streams the cached copy
// of the submission attachment for preview.
func AttachmentHandler(store roster.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		s, err := store.GetSubmission(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		if s.AttachmentKey == "" {
			http.Error(w, "no attachment", http.StatusNotFound)
			return
		}
		rc, err := blobs.Get(s.AttachmentKey)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}
