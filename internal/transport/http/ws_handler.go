package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// WSHandler drives a single quiz attempt over a websocket. The connection is
// the attempt's lifetime: closing it disposes of the attempt, which cancels
// the countdown without submitting.
type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex int `json:"questionIndex"`
	OptionIndex   int `json:"optionIndex"`
}

type navigatePayload struct {
	Direction string `json:"direction"` // "next" or "previous"
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// quizView is the render form of a quiz: correct indices never cross the wire.
type quizView struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Subject          string         `json:"subject,omitempty"`
	Description      string         `json:"description,omitempty"`
	TimeLimitMinutes int            `json:"timeLimitMinutes"`
	Questions        []questionView `json:"questions"`
}

type questionView struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

func viewOf(q domain.Quiz) quizView {
	questions := make([]questionView, len(q.Questions))
	for i, question := range q.Questions {
		questions[i] = questionView{Text: question.Text, Options: question.Options}
	}
	minutes := q.TimeLimitMinutes
	if minutes <= 0 {
		minutes = domain.DefaultTimeLimitMinutes
	}
	return quizView{
		ID:               q.ID,
		Title:            q.Title,
		Subject:          q.Subject,
		Description:      q.Description,
		TimeLimitMinutes: minutes,
		Questions:        questions,
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// attempt use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}
	attemptID := quizID + ":" + userID

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	q, err := h.service.Quiz(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	snapshot, err := h.service.StartAttempt(r.Context(), attemptID, quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(attemptID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	// Disposal on every exit path: abandoning mid-attempt cancels the
	// countdown and never submits.
	defer h.service.Abandon(attemptID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Queue the opening messages before the update feed starts so the client
	// always sees the quiz content first.
	send <- outboundMessage[any]{Type: "quiz", Payload: viewOf(q)}
	send <- outboundMessage[any]{Type: "session", Payload: snapshot}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				out := outboundMessage[any]{Type: "session", Payload: update}
				if update.Status == domain.StatusCompleted && update.Result != nil {
					out = outboundMessage[any]{Type: "result", Payload: *update.Result}
				}
				select {
				case send <- out:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handleMessage(attemptID, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleMessage(attemptID string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid answer payload")
			return
		}
		snapshot, err := h.service.SelectAnswer(attemptID, payload.QuestionIndex, payload.OptionIndex)
		if err != nil {
			send <- errorMessage(userFacing(err))
			return
		}
		send <- outboundMessage[any]{Type: "session", Payload: snapshot}
	case "navigate":
		var payload navigatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid navigate payload")
			return
		}
		snapshot, err := h.service.Navigate(attemptID, payload.Direction != "previous")
		if err != nil {
			send <- errorMessage(userFacing(err))
			return
		}
		send <- outboundMessage[any]{Type: "session", Payload: snapshot}
	case "submit":
		// The completed snapshot arrives through the update feed, so both
		// manual and timer-forced submits deliver exactly one result message.
		if _, err := h.service.Submit(attemptID); err != nil {
			send <- errorMessage(userFacing(err))
		}
	default:
		send <- errorMessage("unsupported message type")
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// userFacing collapses caller-misuse errors into a generic message: bad
// indices and wrong-state calls signal a client bug, not a user condition.
func userFacing(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuestionIndexOutOfRange),
		errors.Is(err, domain.ErrOptionIndexOutOfRange),
		errors.Is(err, domain.ErrNotInProgress):
		return "request ignored"
	default:
		return err.Error()
	}
}
