package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/api/handlers"
	"github.com/akshad113/loom-ai-instructor/internal/api/middleware"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux        *http.ServeMux
	app        *App
	courses    *handlers.CourseHandler
	progress   *handlers.ProgressHandler
	settings   *handlers.SettingsHandler
	runs       *handlers.RunHandler
	instructor *handlers.InstructorHandler
	chat       *handlers.ChatHandler
	code       *handlers.CodeHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) (http.Handler, error) {
	r := &Router{
		mux: http.NewServeMux(),
		app: app,
	}

	// Initialize handlers
	r.courses = handlers.NewCourseHandler(app.Catalog, app.Tutor)
	r.progress = handlers.NewProgressHandler(app.Catalog, stepPublisher(app))
	r.settings = handlers.NewSettingsHandler(app.Settings)
	r.runs = handlers.NewRunHandler(app.Runner, app.Workspace)
	r.instructor = handlers.NewInstructorHandler(app.Instructor)
	r.chat = handlers.NewChatHandler(app.Tutor, app.Config.AIProvider == "ollama" || app.Config.AIAPIKey != "")
	r.code = handlers.NewCodeHandler(app.Workspace)

	// Register routes
	r.registerRoutes()

	// Build middleware chain
	handler := r.buildMiddlewareChain(r.mux, app)

	return handler, nil
}

// stepPublisher adapts the optional queue producer; a nil *Producer must
// stay a nil interface.
func stepPublisher(app *App) handlers.StepPublisher {
	if app.Producer == nil {
		return nil
	}
	return app.Producer
}

func (r *Router) registerRoutes() {
	// Health check
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Courses
	r.mux.HandleFunc("GET /api/courses", r.courses.List)
	r.mux.HandleFunc("POST /api/courses", r.courses.Import)
	r.mux.HandleFunc("POST /api/courses/extract", r.courses.Extract)
	r.mux.HandleFunc("GET /api/courses/{id}", r.courses.Get)

	// Progress
	r.mux.HandleFunc("GET /api/progress", r.progress.List)
	r.mux.HandleFunc("POST /api/progress", r.progress.Record)

	// Settings
	r.mux.HandleFunc("GET /api/settings", r.settings.Get)
	r.mux.HandleFunc("POST /api/settings", r.settings.Update)

	// Code runs
	r.mux.HandleFunc("POST /api/runs", r.runs.Trigger)
	r.mux.HandleFunc("GET /api/runs/{lesson_id}", r.runs.Get)

	// Python runtime recovery after a failed load
	r.mux.HandleFunc("POST /api/runtime/reset", r.handleRuntimeReset)

	// Editor buffer
	r.mux.HandleFunc("GET /api/lessons/{lesson_id}/code", r.code.Get)
	r.mux.HandleFunc("PUT /api/lessons/{lesson_id}/code", r.code.Put)

	// Instructor session
	r.mux.HandleFunc("POST /api/instructor/enter", r.instructor.Enter)
	r.mux.HandleFunc("POST /api/instructor/message", r.instructor.Message)
	r.mux.HandleFunc("POST /api/instructor/advance", r.instructor.Advance)
	r.mux.HandleFunc("POST /api/instructor/end", r.instructor.End)

	// Free-form chat proxy
	r.mux.HandleFunc("POST /api/modal-chat", r.chat.Chat)
}

func (r *Router) buildMiddlewareChain(handler http.Handler, app *App) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	handler = middleware.Recover(handler)
	handler = middleware.AccessLog(handler)

	// Apply rate limiting (skip in debug mode for easier development)
	if !app.Config.Debug {
		handler = middleware.Throttle(middleware.DefaultLimitConfig())(handler)
	}

	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	return handler
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	r.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	// Check database connectivity
	if err := r.app.DB.PingContext(req.Context()); err != nil {
		slog.Error("database health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		r.jsonResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{
				"database": "unhealthy",
			},
		})
		return
	}

	checks := map[string]string{
		"database": "healthy",
	}
	if r.app.Queue != nil {
		if r.app.Queue.IsConnected() {
			checks["queue"] = "healthy"
		} else {
			checks["queue"] = "unhealthy"
		}
	}
	if r.app.Python != nil {
		if r.app.Python.Ready() {
			checks["python_runtime"] = "ready"
		} else {
			checks["python_runtime"] = "not ready"
		}
	}

	r.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}

func (r *Router) handleRuntimeReset(w http.ResponseWriter, req *http.Request) {
	if r.app.Python == nil {
		r.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"error": "python runtime is not configured",
		})
		return
	}

	r.app.Python.Reset()
	r.jsonResponse(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Helper for JSON responses
func (r *Router) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
