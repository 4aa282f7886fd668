package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/narrator"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewAttemptStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewAttemptService(store, quizRepo, noopGateway{}, narrator.Nop{})
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestWebSocketAttemptFlow(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Quiz content first, stripped of correct indices, then the snapshot.
	msgType, payload := readNext(conn, t, "quiz")
	if msgType != "quiz" {
		t.Fatalf("expected quiz, got %s", msgType)
	}
	questions, ok := payload["questions"].([]any)
	if !ok || len(questions) != 2 {
		t.Fatalf("expected 2 rendered questions, got %v", payload["questions"])
	}
	if _, leaked := questions[0].(map[string]any)["correctIndex"]; leaked {
		t.Fatalf("correct index must not cross the wire")
	}

	msgType, payload = readNext(conn, t, "session")
	if payload["status"] != string(domain.StatusInProgress) {
		t.Fatalf("expected in-progress session, got %v", payload["status"])
	}

	// Answer both questions correctly, then submit.
	writeMsg(conn, t, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionIndex": 0, "optionIndex": 1},
	})
	writeMsg(conn, t, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionIndex": 1, "optionIndex": 0},
	})
	writeMsg(conn, t, map[string]any{
		"type":    "navigate",
		"payload": map[string]any{"direction": "next"},
	})
	writeMsg(conn, t, map[string]any{"type": "submit"})

	result := readUntil(conn, t, "result")
	if result["scorePercent"] != float64(100) {
		t.Fatalf("expected 100%%, got %v", result["scorePercent"])
	}
	if result["correctCount"] != float64(2) || result["totalQuestions"] != float64(2) {
		t.Fatalf("unexpected counts: %v / %v", result["correctCount"], result["totalQuestions"])
	}
}

func TestWebSocketRejectsBadIndices(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "quiz")
	readNext(conn, t, "session")

	writeMsg(conn, t, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionIndex": 99, "optionIndex": 0},
	})
	errPayload := readUntil(conn, t, "error")
	if errPayload["message"] == "" {
		t.Fatalf("expected error message for bad index")
	}

	// The attempt is intact: a valid answer and submit still work.
	writeMsg(conn, t, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionIndex": 0, "optionIndex": 1},
	})
	writeMsg(conn, t, map[string]any{"type": "submit"})
	result := readUntil(conn, t, "result")
	if result["correctCount"] != float64(1) {
		t.Fatalf("expected 1 correct, got %v", result["correctCount"])
	}
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=nope&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, _ := readNext(conn, t, "error")
	if msgType != "error" {
		t.Fatalf("expected error, got %s", msgType)
	}
}

type noopGateway struct{}

func (noopGateway) Submit(_ context.Context, _ string, _ domain.Result) error { return nil }

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

// readUntil skips snapshot pushes until a message of the wanted type arrives.
func readUntil(conn *websocket.Conn, t *testing.T, want string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == want {
			return payload
		}
	}
	t.Fatalf("never received %q message", want)
	return nil
}

func writeMsg(conn *websocket.Conn, t *testing.T, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:               "quiz-1",
			Title:            "Arithmetic Basics",
			Subject:          "Mathematics",
			TimeLimitMinutes: 5,
			Questions: []domain.Question{
				{
					Text:         "What is 2 + 2?",
					Options:      []string{"3", "4", "5"},
					CorrectIndex: 1,
				},
				{
					Text:         "What is 9 - 3?",
					Options:      []string{"6", "7", "3"},
					CorrectIndex: 0,
				},
			},
		},
	}
}
