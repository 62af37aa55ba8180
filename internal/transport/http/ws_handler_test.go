package http

import (
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"quiz-attempt-service/internal/domain"
)

func dialAttempt(t *testing.T, serverURL, code string, identity domain.Identity) *websocket.Conn {
	t.Helper()
	u := "ws" + serverURL[len("http"):] + "/ws/quizzes/" + code + "?token=" + url.QueryEscape(tokenFor(t, identity))
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketAttemptFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dialAttempt(t, server.URL, "quiz-1", testUser)

	_, started := readUntil(conn, t, "started")
	if started["state"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", started["state"])
	}
	_, question := readUntil(conn, t, "question")
	if question["index"].(float64) != 0 || question["total"].(float64) != 2 {
		t.Fatalf("unexpected first question %v", question)
	}

	send(t, conn, "select", map[string]any{"option": "4"})
	_, question = readUntil(conn, t, "question")
	if question["selected"] != "4" {
		t.Fatalf("expected selection to be echoed, got %v", question)
	}

	send(t, conn, "select", map[string]any{"option": "42"})
	readUntil(conn, t, "error")

	send(t, conn, "next", nil)
	_, question = readUntil(conn, t, "question")
	if question["index"].(float64) != 1 {
		t.Fatalf("expected second question, got %v", question)
	}

	send(t, conn, "goto", map[string]any{"index": 0})
	_, question = readUntil(conn, t, "question")
	if question["selected"] != "4" {
		t.Fatalf("expected answer kept after navigation, got %v", question)
	}

	send(t, conn, "goto", map[string]any{"index": 1})
	readUntil(conn, t, "question")
	send(t, conn, "select", map[string]any{"option": "6"})
	readUntil(conn, t, "question")

	// next on the last question submits
	send(t, conn, "next", nil)
	_, submitted := readUntil(conn, t, "submitted")
	if submitted["score"].(float64) != 1 || submitted["forced"] != false {
		t.Fatalf("unexpected submission %v", submitted)
	}
}

func TestWebSocketReturnsPriorResult(t *testing.T) {
	server := newTestServer(t)
	first := dialAttempt(t, server.URL, "quiz-1", testUser)
	readUntil(first, t, "question")
	send(t, first, "submit", nil)
	_, submitted := readUntil(first, t, "submitted")

	second := dialAttempt(t, server.URL, "quiz-1", testUser)
	_, result := readUntil(second, t, "result")
	if result["id"] != submitted["id"] {
		t.Fatalf("expected stored submission %v, got %v", submitted["id"], result["id"])
	}
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server := newTestServer(t)
	conn := dialAttempt(t, server.URL, "nope", testUser)
	readUntil(conn, t, "error")
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips countdown ticks and other messages until one of type expect arrives.
func readUntil(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	for i := 0; i < 20; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", expect, err)
		}
		if msg.Type == expect {
			return msg.Type, msg.Payload
		}
	}
	t.Fatalf("no %s message received", expect)
	return "", nil
}
