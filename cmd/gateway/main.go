package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/mosaicedu/gradelens/internal/api/http"
	"github.com/mosaicedu/gradelens/internal/auth"
	"github.com/mosaicedu/gradelens/internal/classroom"
	"github.com/mosaicedu/gradelens/internal/config"
	"github.com/mosaicedu/gradelens/internal/db"
	"github.com/mosaicedu/gradelens/internal/grading"
	"github.com/mosaicedu/gradelens/internal/rbac"
	"github.com/mosaicedu/gradelens/internal/roster"
	"github.com/mosaicedu/gradelens/internal/storage"
	"github.com/mosaicedu/gradelens/internal/synclog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := roster.NewSQLStore(dbh, cfg.DBDriver)
	events := synclog.NewEventRepo(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Classroom sync ---
	classroomClient := classroom.NewHTTPClient(classroom.Config{
		BaseURL:      cfg.ClassroomBaseURL,
		TokenURL:     cfg.ClassroomTokenURL,
		ClientID:     cfg.ClassroomClientID,
		ClientSecret: cfg.ClassroomClientSecret,
		Timeout:      cfg.ClassroomTimeout,
	})
	syncer := classroom.NewSyncer(store, classroomClient, time.Now)
	syncer.Blobs = bs
	syncer.Events = events

	// --- LLM grading ---
	llm := grading.NewHTTPLLM(grading.LLMConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	gradeSvc := grading.NewService(store, grading.NewGrader(llm))
	gradeSvc.Events = events

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second)) // LLM grading is the slow path

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	if cfg.EnableGoogleAuth {
		r.Get("/auth/google/login", auth.GoogleLoginHandler(cfg))
		r.Get("/auth/google/callback", auth.GoogleCallbackHandler(authSvc, dbh, cfg))
	}

	// Protected API (JWT → subject/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("course:view")).
			Get("/courses", api.ListCoursesHandler(store))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}", api.GetCourseHandler(store))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}/students", api.ListStudentsHandler(store))
		pr.With(rbac.Require("course:sync")).
			Post("/courses/{courseID}/sync", api.SyncCourseHandler(syncer))
		pr.With(rbac.Require("course:sync")).
			Get("/courses/{courseID}/sync", api.SyncStatusHandler(store))

		pr.With(rbac.Require("assignment:view")).
			Get("/courses/{courseID}/assignments", api.ListAssignmentsHandler(store))
		pr.With(rbac.Require("assignment:view")).
			Get("/assignments/{assignmentID}", api.GetAssignmentHandler(store))
		pr.With(rbac.Require("rubric:edit")).
			Put("/assignments/{assignmentID}/rubric", api.PutRubricHandler(store))

		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions", api.ListSubmissionsHandler(store))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(store))
		pr.With(rbac.RequireAny("grade:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}/grade", api.GetGradeHandler(store))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}/attachment", api.AttachmentHandler(store, bs))

		pr.With(rbac.Require("submission:grade")).
			Post("/submissions/{submissionID}/grade", api.GradeSubmissionHandler(gradeSvc))
		pr.With(rbac.Require("submission:grade")).
			Put("/submissions/{submissionID}/grade", api.PutManualGradeHandler(store))

		pr.With(rbac.Require("analytics:view")).
			Get("/assignments/{assignmentID}/analytics", api.AssignmentAnalyticsHandler(store))
		pr.With(rbac.Require("analytics:export")).
			Get("/assignments/{assignmentID}/analytics.csv", api.AnalyticsCSVHandler(store))

		pr.With(rbac.Require("events:view")).
			Get("/events", api.EventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
