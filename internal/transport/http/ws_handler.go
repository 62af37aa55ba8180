package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
)

// WSHandler drives one live attempt per connection: it streams countdown
// ticks, applies answer/navigation messages, and submits once.
type WSHandler struct {
	gate     *app.SubmissionGate
	tick     time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(gate *app.SubmissionGate, tick time.Duration) *WSHandler {
	if tick <= 0 {
		tick = time.Second
	}
	return &WSHandler{
		gate:   gate,
		tick:   tick,
		logger: slog.Default().With("component", "ws"),
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

type selectPayload struct {
	Option string `json:"option"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type questionPayload struct {
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Selected string   `json:"selected,omitempty"`
}

type tickPayload struct {
	RemainingMillis int64 `json:"remainingMs"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the attempt use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeServiceError(w, domain.ErrUnauthorized)
		return
	}
	code := domain.NormalizeCode(mux.Vars(r)["code"])

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	entry, err := h.gate.Open(ctx, code, caller)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if entry.Prior != nil {
		// already submitted: read-only result, never a fresh attempt
		_ = conn.WriteJSON(outboundMessage[any]{Type: "result", Payload: entry.Prior})
		return
	}
	attempt := entry.Attempt

	send := make(chan outboundMessage[any], 16)
	ticks := make(chan app.Tick, 1)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})
	countdownDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "code", code, "email", caller.Email, "err", err)
				// keep draining so senders never block on a dead connection
				for range send {
				}
				return
			}
		}
	}()

	go func() {
		defer close(countdownDone)
		h.gate.RunCountdown(ctx, attempt, h.tick, ticks)
	}()

	go func() {
		defer close(forwardDone)
		for {
			select {
			case tick := <-ticks:
				msgs := []outboundMessage[any]{{Type: "tick", Payload: tickPayload{RemainingMillis: tick.Remaining.Milliseconds()}}}
				if tick.Submission != nil {
					msgs = append(msgs, outboundMessage[any]{Type: "submitted", Payload: tick.Submission})
				}
				switch {
				case tick.Err != nil && tick.Final:
					msgs = append(msgs, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: tick.Err.Error()}})
				case tick.Err != nil:
					msgs = append(msgs, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "submission failed, retrying"}})
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: toAttemptResponse(code, entry)}
	send <- outboundMessage[any]{Type: "question", Payload: currentQuestion(attempt)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, attempt, inbound) {
			send <- msg
		}
	}

	cancel()
	close(closeSignals)
	<-countdownDone
	<-forwardDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, attempt *app.Attempt, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessages("invalid select payload")
		}
		if err := attempt.Select(payload.Option); err != nil {
			return errorMessages(err.Error())
		}
		return []outboundMessage[any]{{Type: "question", Payload: currentQuestion(attempt)}}
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessages("invalid goto payload")
		}
		if err := attempt.Goto(payload.Index); err != nil {
			return errorMessages(err.Error())
		}
		return []outboundMessage[any]{{Type: "question", Payload: currentQuestion(attempt)}}
	case "next":
		last, err := attempt.Next()
		if err != nil {
			return errorMessages(err.Error())
		}
		if !last {
			return []outboundMessage[any]{{Type: "question", Payload: currentQuestion(attempt)}}
		}
		return h.submit(ctx, attempt)
	case "submit":
		return h.submit(ctx, attempt)
	default:
		return errorMessages("unsupported message type")
	}
}

func (h *WSHandler) submit(ctx context.Context, attempt *app.Attempt) []outboundMessage[any] {
	submission, err := h.gate.Submit(ctx, attempt)
	switch {
	case err == nil:
		return []outboundMessage[any]{{Type: "submitted", Payload: submission}}
	case errors.Is(err, domain.ErrSubmitInFlight), errors.Is(err, domain.ErrAlreadySubmitted):
		// the deadline tick already owns the submission and reports it
		return nil
	default:
		return errorMessages(err.Error())
	}
}

func currentQuestion(attempt *app.Attempt) questionPayload {
	index, question := attempt.Current()
	return questionPayload{
		Index:    index,
		Total:    len(attempt.Quiz().Questions),
		Text:     question.Text,
		Options:  question.Options,
		Selected: attempt.Answers()[index],
	}
}

func errorMessages(message string) []outboundMessage[any] {
	return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: message}}}
}
