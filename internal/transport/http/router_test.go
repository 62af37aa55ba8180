package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

const testSecret = "test-secret"

var (
	testUser  = domain.Identity{Email: "alice@example.com", Name: "Alice", Role: domain.RoleUser}
	testAdmin = domain.Identity{Email: "root@example.com", Name: "Root", Role: domain.RoleAdmin}
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewQuizStore(sampleQuiz())
	repo := memory.NewQuizRepository(store, time.Minute)
	service := app.NewQuizService(store, repo, nil)
	gate := app.NewSubmissionGate(store, repo, memory.NewAnchorStore(), 5*time.Second, nil)

	server := httptest.NewServer(NewRouter(service, gate, auth.NewVerifier(testSecret), time.Hour))
	t.Cleanup(server.Close)
	return server
}

func tokenFor(t *testing.T, identity domain.Identity) string {
	t.Helper()
	token, err := auth.Issue(testSecret, identity, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, identity *domain.Identity, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *identity))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Code:            "quiz-1",
		Title:           "Arithmetic",
		DurationMinutes: 5,
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOption: "4"},
			{Text: "What is 3 * 3?", Options: []string{"6", "9"}, CorrectOption: "9"},
		},
	}
}

func TestHealthzIsPublic(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, server, http.MethodGet, "/healthz", nil, nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, server, http.MethodGet, "/api/quizzes/quiz-1", nil, nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/quizzes/quiz-1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	forged, err := auth.Issue("other-secret", testUser, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+forged)
	forgedResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer forgedResp.Body.Close()
	expectStatus(t, forgedResp, http.StatusUnauthorized)
}
