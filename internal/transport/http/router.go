package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
)

// NewRouter wires the REST API and the live attempt websocket.
func NewRouter(service *app.QuizService, gate *app.SubmissionGate, verifier *auth.Verifier, tick time.Duration) http.Handler {
	api := NewAPI(service, gate)
	ws := NewWSHandler(gate, tick)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	protected := router.NewRoute().Subrouter()
	protected.Use(verifier.Middleware(writeServiceError))

	quizzes := protected.PathPrefix("/api/quizzes").Subrouter()
	quizzes.HandleFunc("", api.HandleCreateQuiz).Methods(http.MethodPost)
	quizzes.HandleFunc("", api.HandleListQuizzes).Methods(http.MethodGet)
	quizzes.HandleFunc("/{code}", api.HandleView).Methods(http.MethodGet)
	quizzes.HandleFunc("/{code}", api.HandleDeleteQuiz).Methods(http.MethodDelete)
	quizzes.HandleFunc("/{code}/attempt", api.HandleStartAttempt).Methods(http.MethodPost)
	quizzes.HandleFunc("/{code}/submission", api.HandleSubmit).Methods(http.MethodPost)
	quizzes.HandleFunc("/{code}/submissions", api.HandleSubmissions).Methods(http.MethodGet)
	quizzes.HandleFunc("/{code}/report", api.HandleReport).Methods(http.MethodGet)

	protected.HandleFunc("/api/submissions", api.HandleSubmissions).Methods(http.MethodGet)
	protected.HandleFunc("/ws/quizzes/{code}", ws.ServeWS).Methods(http.MethodGet)

	return router
}
