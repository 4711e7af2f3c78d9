package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicedu/gradelens/internal/classroom"
	"github.com/mosaicedu/gradelens/internal/roster"
)

// GET /courses
func ListCoursesHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListCourses(r.Context())
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /courses/{courseID}
func GetCourseHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "courseID"))
		if id == "" {
			http.Error(w, "courseID required", http.StatusBadRequest)
			return
		}
		c, err := store.GetCourse(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GET /courses/{courseID}/students
func ListStudentsHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "courseID"))
		list, err := store.ListStudents(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /courses/{courseID}/sync — pull the course from the classroom service.
func SyncCourseHandler(syncer *classroom.Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "courseID"))
		if id == "" {
			http.Error(w, "courseID required", http.StatusBadRequest)
			return
		}
		run, err := syncer.SyncCourse(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, run)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

// GET /courses/{courseID}/sync — last sync run for the course.
func SyncStatusHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "courseID"))
		run, err := store.LatestSyncRun(r.Context(), id)
		if err != nil {
			storeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}
