package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pylearn-quiz-service/internal/app"
	"pylearn-quiz-service/internal/domain"
)

// WSHandler adapts websocket clients to the quiz engine. It is the host the
// engine expects: it translates client messages into state-machine calls and
// drives the 1-second tick for timed quizzes.
type WSHandler struct {
	service    *app.QuizService
	retakeCost int
	upgrader   websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, retakeCost int) *WSHandler {
	return &WSHandler{
		service:    service,
		retakeCost: retakeCost,
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
	QuestionID string `json:"questionId"`
	Answer     any    `json:"answer"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type finalizePayload struct {
	AutoSubmit bool `json:"autoSubmit"`
}

type answerResult struct {
	QuestionID      string  `json:"questionId"`
	IsCorrect       bool    `json:"isCorrect"`
	PartialScore    float64 `json:"partialScore"`
	PointsAwarded   int     `json:"pointsAwarded"`
	CurrencyAwarded int     `json:"currencyAwarded"`
	TotalPoints     int     `json:"totalPoints"`
	TotalCurrency   int     `json:"totalCurrency"`
}

type retakeResult struct {
	Granted bool                `json:"granted"`
	State   domain.SessionState `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// engine use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	state, err := h.service.Start(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// emit never blocks past the writer's lifetime: if the writer exited on a
	// write error, pending sends are dropped instead of wedging the reader.
	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	// The engine does not own a clock: for timed quizzes this goroutine is the
	// 1-second collaborator. Tick itself ignores paused and completed sessions.
	if state.TimeRemaining == nil {
		close(tickerDone)
	} else {
		go func() {
			defer close(tickerDone)
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					result, expired, err := h.service.Tick(r.Context(), quizID, userID)
					if err != nil {
						return
					}
					if expired {
						emit(outboundMessage[any]{Type: "quizResult", Payload: result})
						return
					}
				case <-done:
					return
				}
			}
		}()
	}

	emit(outboundMessage[any]{Type: "state", Payload: state})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, quizID, userID, inbound, emit)
	}

	close(done)
	<-tickerDone
	close(send)
	<-writerDone
	h.service.Leave(r.Context(), quizID, userID)
}

func (h *WSHandler) dispatch(r *http.Request, quizID, userID string, inbound inboundMessage, emit func(outboundMessage[any])) {
	ctx := r.Context()
	fail := func(err error) {
		emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid answer payload"))
			return
		}
		outcome, totals, err := h.service.SubmitAnswer(ctx, quizID, userID, payload.QuestionID, payload.Answer)
		if err != nil {
			fail(err)
			return
		}
		emit(outboundMessage[any]{Type: "answerResult", Payload: answerResult{
			QuestionID:      outcome.QuestionID,
			IsCorrect:       outcome.Result.IsCorrect,
			PartialScore:    outcome.Result.PartialScore,
			PointsAwarded:   outcome.PointsAwarded,
			CurrencyAwarded: outcome.CurrencyAwarded,
			TotalPoints:     totals.Points,
			TotalCurrency:   totals.Currency,
		}})

	case "record":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid record payload"))
			return
		}
		state, err := h.service.RecordAnswer(ctx, quizID, userID, payload.QuestionID, payload.Answer)
		if err != nil {
			fail(err)
			return
		}
		emit(outboundMessage[any]{Type: "state", Payload: state})

	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid goto payload"))
			return
		}
		h.navigate(ctx, quizID, userID, emit, fail, func(s *app.Session) { s.GoTo(payload.Index) })

	case "next":
		h.navigate(ctx, quizID, userID, emit, fail, (*app.Session).Next)

	case "prev":
		h.navigate(ctx, quizID, userID, emit, fail, (*app.Session).Previous)

	case "pause":
		h.navigate(ctx, quizID, userID, emit, fail, (*app.Session).Pause)

	case "resume":
		h.navigate(ctx, quizID, userID, emit, fail, (*app.Session).Resume)

	case "finalize":
		var payload finalizePayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(errors.New("invalid finalize payload"))
				return
			}
		}
		result, err := h.service.Finalize(ctx, quizID, userID, payload.AutoSubmit)
		if err != nil {
			fail(err)
			return
		}
		emit(outboundMessage[any]{Type: "quizResult", Payload: result})

	case "retake":
		state, granted, err := h.service.RetakeQuiz(ctx, quizID, userID, h.retakeCost)
		if err != nil {
			fail(err)
			return
		}
		emit(outboundMessage[any]{Type: "retakeResult", Payload: retakeResult{Granted: granted, State: state}})

	default:
		fail(errors.New("unsupported message type"))
	}
}

func (h *WSHandler) navigate(ctx context.Context, quizID, userID string, emit func(outboundMessage[any]), fail func(error), apply func(*app.Session)) {
	state, err := h.service.Navigate(ctx, quizID, userID, apply)
	if err != nil {
		fail(err)
		return
	}
	emit(outboundMessage[any]{Type: "state", Payload: state})
}
