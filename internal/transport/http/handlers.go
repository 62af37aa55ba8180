package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
)

// API serves the REST endpoints. Every handler runs behind the auth middleware.
type API struct {
	service *app.QuizService
	gate    *app.SubmissionGate
}

func NewAPI(service *app.QuizService, gate *app.SubmissionGate) *API {
	return &API{service: service, gate: gate}
}

func (a *API) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	quiz, err := a.service.CreateQuiz(r.Context(), caller, domain.Quiz{
		Code:            req.Code,
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Questions:       req.Questions,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	quizzes, err := a.service.ListQuizzes(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) HandleView(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	view, err := a.service.View(r.Context(), caller, mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) HandleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	if err := a.service.DeleteQuiz(r.Context(), caller, mux.Vars(r)["code"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStartAttempt starts or resumes the caller's attempt. Calling it again
// returns the same start time and deadline.
func (a *API) HandleStartAttempt(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	code := domain.NormalizeCode(mux.Vars(r)["code"])
	entry, err := a.gate.Open(r.Context(), code, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptResponse(code, entry))
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	submission, err := a.gate.SubmitAnswers(r.Context(), mux.Vars(r)["code"], caller, req.Answers)
	if errors.Is(err, domain.ErrAlreadySubmitted) && submission.ID != "" {
		writeJSON(w, http.StatusConflict, submission)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submission)
}

// HandleSubmissions lists one quiz's submissions, or all when no code is routed.
func (a *API) HandleSubmissions(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	submissions, err := a.service.Submissions(r.Context(), caller, mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if submissions == nil {
		submissions = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, submissions)
}

func (a *API) HandleReport(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	report, err := a.service.Report(r.Context(), caller, mux.Vars(r)["code"], r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
