package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pylearn-quiz-service/internal/app"
	"pylearn-quiz-service/internal/domain"
	"pylearn-quiz-service/internal/infra/memory"
)

func TestWebSocketQuizFlow(t *testing.T) {
	conn := dialTestServer(t)

	// Expect the initial state snapshot.
	msgType, payload := readNext(conn, t, "state")
	if msgType != "state" {
		t.Fatalf("expected state, got %s", msgType)
	}
	if payload["completed"] == true {
		t.Fatalf("expected active session, got %+v", payload)
	}

	// Inline-submit the first question.
	writeJSON(conn, t, map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionId": "q1",
			"answer":     1,
		},
	})
	_, payload = readNext(conn, t, "answerResult")
	if payload["isCorrect"] != true {
		t.Fatalf("expected correct answer, got %+v", payload)
	}
	if payload["pointsAwarded"] != float64(1) {
		t.Fatalf("expected 1 point awarded, got %v", payload["pointsAwarded"])
	}

	// Record the second answer and finalize.
	writeJSON(conn, t, map[string]any{
		"type": "record",
		"payload": map[string]any{
			"questionId": "q2",
			"answer":     "tuple",
		},
	})
	_, _ = readNext(conn, t, "state")

	writeJSON(conn, t, map[string]any{
		"type":    "finalize",
		"payload": map[string]any{"autoSubmit": false},
	})
	_, payload = readNext(conn, t, "quizResult")
	if payload["score"] != float64(3) || payload["percentage"] != float64(100) {
		t.Fatalf("unexpected quiz result %+v", payload)
	}
}

func TestWebSocketNavigationAndRetake(t *testing.T) {
	conn := dialTestServer(t)
	_, _ = readNext(conn, t, "state")

	writeJSON(conn, t, map[string]any{"type": "next"})
	_, payload := readNext(conn, t, "state")
	if payload["currentIndex"] != float64(1) {
		t.Fatalf("expected index 1 after next, got %v", payload["currentIndex"])
	}

	writeJSON(conn, t, map[string]any{"type": "finalize", "payload": map[string]any{"autoSubmit": true}})
	_, _ = readNext(conn, t, "quizResult")

	// Wallet seeded with 10, retake cost 5.
	writeJSON(conn, t, map[string]any{"type": "retake"})
	_, payload = readNext(conn, t, "retakeResult")
	if payload["granted"] != true {
		t.Fatalf("expected retake granted, got %+v", payload)
	}

	// Finalizing without answers is refused.
	writeJSON(conn, t, map[string]any{"type": "finalize", "payload": map[string]any{"autoSubmit": false}})
	msgType, _ := readNext(conn, t, "error")
	if msgType != "error" {
		t.Fatalf("expected refusal error, got %s", msgType)
	}
}

func dialTestServer(t *testing.T) *websocket.Conn {
	t.Helper()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), quizzes, app.NewProcessor(nil), memory.NewProgressStore(), memory.NewBalanceStore(10))
	wsHandler := NewWSHandler(service, 5)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=py-basics&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeJSON(conn *websocket.Conn, t *testing.T, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"py-basics": {
			ID: "py-basics",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.TypeMultipleChoice, Prompt: "Which keyword defines a function?", CorrectAnswer: 1, Points: 1},
				{ID: "q2", Type: domain.TypeFillInBlank, Prompt: "Immutable sequence type?", CorrectAnswer: []any{"tuple"}, Points: 2},
			},
		},
	}
}
