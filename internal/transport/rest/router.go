package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ideogrid/internal/service"
	"ideogrid/internal/transport/rest/handler"
	"ideogrid/internal/transport/rest/middleware"
	"ideogrid/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	QuizService *service.QuizService
	AuthService *service.AuthService
	WSHub       *ws.Hub
	Logger      *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()

	quizHandler := handler.NewQuizHandler(c.QuizService, logger)
	resultHandler := handler.NewResultHandler(c.QuizService, logger)
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS first so preflights never reach auth
	r.Use(corsMiddleware)
	r.Use(middleware.RequestLogger(logger))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/quiz", quizHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/results/{id}", resultHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/stats/{kind}", resultHandler.Stats).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.AuthService, logger)
		v1.HandleFunc("/ws/quiz/{id}", wsHandler.SessionWS).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes (require the session's respondent token)
	session := v1.PathPrefix("/quiz/{id}").Subrouter()
	session.Use(authMW.RequireRespondent)

	session.HandleFunc("", quizHandler.Progress).Methods("GET", "OPTIONS")
	session.HandleFunc("/answers", quizHandler.Answer).Methods("POST", "OPTIONS")
	session.HandleFunc("/skip", quizHandler.Skip).Methods("POST", "OPTIONS")
	session.HandleFunc("/unskip", quizHandler.Unskip).Methods("POST", "OPTIONS")
	session.HandleFunc("/continue", quizHandler.Continue).Methods("POST", "OPTIONS")
	session.HandleFunc("/submit", quizHandler.Submit).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")
	allowedMethods := getEnvOrDefault("CORS_ALLOWED_METHODS", "GET, POST, OPTIONS")
	allowedHeaders := getEnvOrDefault("CORS_ALLOWED_HEADERS", "Content-Type, Authorization")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
