package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/garnizeh/shiftstaff/internal/config"
	"github.com/garnizeh/shiftstaff/internal/staffing"
	"github.com/garnizeh/shiftstaff/pkg/repository"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Service       *staffing.Service
	Notifications repository.NotificationRepo
	DB            Pinger
}

func SetupRoutes(cfg *config.Config, version, buildTime string, deps Deps) http.Handler {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Limit)

	// Create handlers
	systemHandler := &SystemHandler{DB: deps.DB}
	jobsHandler := NewJobsHandler(deps.Service)
	shiftsHandler := NewShiftsHandler(deps.Service)
	assignmentsHandler := NewAssignmentsHandler(deps.Service)
	invitationsHandler := NewInvitationsHandler(deps.Service)
	calendarHandler := NewCalendarHandler(deps.Service)
	notificationsHandler := NewNotificationsHandler(deps.Notifications)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Jobs
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}", jobsHandler.Cancel).Methods("DELETE")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/shifts", jobsHandler.ListShifts).Methods("GET")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/capacity", jobsHandler.Capacity).Methods("GET")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/dates", jobsHandler.ChangeDates).Methods("PATCH")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/invitations", jobsHandler.Invite).Methods("POST")

	// Shifts
	apiV1.HandleFunc("/shifts/{id:[0-9]+}", shiftsHandler.Edit).Methods("PATCH")
	apiV1.HandleFunc("/shifts/{id:[0-9]+}", shiftsHandler.Cancel).Methods("DELETE")

	// Assignments
	apiV1.HandleFunc("/availability", assignmentsHandler.Availability).Methods("POST")
	apiV1.HandleFunc("/assignments", assignmentsHandler.Assign).Methods("POST")
	apiV1.HandleFunc("/assignments/remove", assignmentsHandler.Remove).Methods("POST")
	apiV1.HandleFunc("/assignments/{id:[0-9]+}/cancel", assignmentsHandler.Cancel).Methods("POST")
	apiV1.HandleFunc("/assignments/{id:[0-9]+}/check-in", assignmentsHandler.CheckIn).Methods("POST")
	apiV1.HandleFunc("/assignments/{id:[0-9]+}/check-out", assignmentsHandler.CheckOut).Methods("POST")
	apiV1.HandleFunc("/assignments/{id:[0-9]+}/no-show", assignmentsHandler.NoShow).Methods("POST")

	// Invitations, calendar, inbox
	apiV1.HandleFunc("/invitations/{id:[0-9]+}/respond", invitationsHandler.Respond).Methods("POST")
	apiV1.HandleFunc("/calendar/{date}", calendarHandler.Day).Methods("GET")
	apiV1.HandleFunc("/notifications", notificationsHandler.List).Methods("GET")

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
	}).Handler(r)
}
