package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/homehq/internal/event"
	"github.com/dukerupert/homehq/internal/family"
	"github.com/dukerupert/homehq/internal/handler"
	"github.com/dukerupert/homehq/internal/middleware"
	"github.com/dukerupert/homehq/internal/store"
	"github.com/dukerupert/homehq/internal/suggestion"
	ws "github.com/dukerupert/homehq/internal/websocket"
)

// Config holds the server-level settings resolved from the environment.
type Config struct {
	SuggestURL     string        // empty = run the suggestion engine in-process
	SuggestTimeout time.Duration // budget for the suggestion fetch during creation
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	eventH         *handler.EventHandler
	taskH          *handler.TaskHandler
	familyMemberH  *handler.FamilyMemberHandler
	sessionStore   *store.SessionStore
	profileStore   *store.ProfileStore
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	familyStore := store.NewFamilyStore(db)
	profileStore := store.NewProfileStore(db)
	memberStore := store.NewFamilyMemberStore(db)
	sessionStore := store.NewSessionStore(db)
	eventStore := store.NewEventStore(db)
	taskStore := store.NewTaskStore(db)

	resolver := family.NewResolver(profileStore, memberStore)
	catalog := suggestion.DefaultCatalog()

	var engine suggestion.Engine
	if cfg.SuggestURL != "" {
		engine = suggestion.NewClient(cfg.SuggestURL, cfg.SuggestTimeout)
	} else {
		engine = suggestion.NewService(catalog, resolver, memberStore)
	}

	orchestrator := event.NewOrchestrator(eventStore, taskStore, resolver, engine, catalog,
		logger.With("component", "event_create"))
	if cfg.SuggestTimeout > 0 {
		orchestrator.SetSuggestTimeout(cfg.SuggestTimeout)
	}
	guard := event.NewGuard(eventStore, taskStore, resolver, logger.With("component", "event_guard"))

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(familyStore, profileStore, sessionStore, logger.With("component", "auth")),
		eventH:        handler.NewEventHandler(orchestrator, guard, eventStore, engine, hub, logger.With("component", "event")),
		taskH:         handler.NewTaskHandler(taskStore, hub, logger.With("component", "task")),
		familyMemberH: handler.NewFamilyMemberHandler(memberStore, hub, logger.With("component", "family_member")),
		sessionStore:  sessionStore,
		profileStore:  profileStore,
		logger:        logger,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("POST /api/register", s.authH.Register)
	outerMux.HandleFunc("POST /api/login", s.authH.Login)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protected := http.NewServeMux()
	s.registerProtectedRoutes(protected)

	requireAuth := middleware.RequireAuth(s.sessionStore, s.profileStore)
	outerMux.Handle("/", requireAuth(protected))

	return middleware.RequestLogger(s.logger)(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Events
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("POST /api/events/suggestions", s.eventH.Suggest)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	// Tasks
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Family members
	mux.HandleFunc("GET /api/family-members", s.familyMemberH.List)
	mux.HandleFunc("POST /api/family-members", s.familyMemberH.Create)
	mux.HandleFunc("PUT /api/family-members/{id}", s.familyMemberH.Update)
	mux.HandleFunc("DELETE /api/family-members/{id}", s.familyMemberH.Delete)

	// Realtime sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
