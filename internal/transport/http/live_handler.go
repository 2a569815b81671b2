package http

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/session"
)

const writeWait = 10 * time.Second

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type questionPayload struct {
	QuestionID  int64 `json:"questionId"`
	OptionIndex int   `json:"optionIndex"`
}

type navigatePayload struct {
	Index int `json:"index"`
}

type tickPayload struct {
	SecondsRemaining int    `json:"secondsRemaining"`
	Clock            string `json:"clock"`
}

type submittedPayload struct {
	app.Report
	Automatic bool `json:"automatic"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// live hosts the session state machine for one connection. A single loop owns every
// write; the reader and the countdown feed it over channels.
func (h *Handler) live(c *gin.Context) {
	owner := currentUserID(c)
	sess, attempt, lease, err := h.service.OpenSession(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer lease.Release()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.String("attempt_id", attempt.ID), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := make(chan inboundMessage)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticks := make(chan int)
	expired := make(chan struct{})
	go func() {
		ran := session.RunCountdown(ctx, sess, h.clock, func(remaining int) {
			select {
			case ticks <- remaining:
			case <-ctx.Done():
			}
		})
		if ran {
			close(expired)
		}
	}()

	l := &liveConn{conn: conn, log: h.log.With(zap.String("attempt_id", attempt.ID))}
	l.send("state", sess.Snapshot())

	var renew <-chan time.Time
	if h.renewEvery > 0 {
		ticker := time.NewTicker(h.renewEvery)
		defer ticker.Stop()
		renew = ticker.C
	}

	warningAt := h.service.WarningSeconds()
	warned := false
	for {
		select {
		case <-readerDone:
			return
		case <-renew:
			if err := lease.Renew(ctx); err != nil {
				if errors.Is(err, domain.ErrSessionBusy) {
					l.log.Warn("session claim lost to another connection")
					_, body := errorStatus(err)
					l.sendError(body.Error, false)
					l.close("session taken over")
					return
				}
				l.log.Warn("renew session claim", zap.Error(err))
			}
		case remaining := <-ticks:
			l.send("tick", tickPayload{SecondsRemaining: remaining, Clock: session.FormatClock(remaining)})
			if !warned && warningAt > 0 && remaining <= warningAt && remaining > 0 {
				warned = true
				l.send("warning", tickPayload{SecondsRemaining: remaining, Clock: session.FormatClock(remaining)})
			}
		case <-expired:
			expired = nil
			l.log.Info("time expired, submitting")
			if h.submit(ctx, l, sess, true) {
				l.close("submitted")
				return
			}
		case msg := <-inbound:
			if msg.Type == "submit" {
				if h.submit(ctx, l, sess, false) {
					l.close("submitted")
					return
				}
				continue
			}
			h.apply(l, sess, attempt, msg)
		}
	}
}

// apply handles one editing message and echoes the resulting state.
func (h *Handler) apply(l *liveConn, sess *session.Session, attempt domain.Attempt, msg inboundMessage) {
	var ok bool
	switch msg.Type {
	case "select", "clear", "mark":
		var p questionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			l.sendError("invalid payload", false)
			return
		}
		q, found := findQuestion(attempt.Questions, p.QuestionID)
		if !found {
			l.sendError("unknown question", false)
			return
		}
		switch msg.Type {
		case "select":
			if p.OptionIndex < 0 || p.OptionIndex >= len(q.Options) {
				l.sendError("option out of range", false)
				return
			}
			ok = sess.SelectAnswer(q.ID, p.OptionIndex)
		case "clear":
			ok = sess.ClearAnswer(q.ID)
		case "mark":
			ok = sess.ToggleMark(q.ID)
		}
	case "navigate":
		var p navigatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			l.sendError("invalid payload", false)
			return
		}
		ok = sess.Navigate(p.Index)
	default:
		l.sendError("unsupported message type", false)
		return
	}
	if !ok {
		l.sendError("session is not active", false)
		return
	}
	l.send("state", sess.Snapshot())
}

// submit reports whether the session reached Submitted. A failed submit leaves the
// session Active and tells the client it may retry.
func (h *Handler) submit(ctx context.Context, l *liveConn, sess *session.Session, automatic bool) bool {
	attempt, submitted, err := sess.Submit(ctx)
	if err != nil {
		l.log.Warn("submit failed", zap.Bool("automatic", automatic), zap.Error(err))
		_, body := errorStatus(err)
		l.sendError(body.Error, true)
		l.send("state", sess.Snapshot())
		return false
	}
	if !submitted {
		return sess.State() == session.Submitted
	}
	l.send("submitted", submittedPayload{Report: app.BuildReport(attempt, true), Automatic: automatic})
	return true
}

func findQuestion(questions []domain.Question, id int64) (domain.Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

// liveConn serializes writes; only the session loop calls it.
type liveConn struct {
	conn *websocket.Conn
	log  *zap.Logger
}

func (l *liveConn) send(typ string, payload any) {
	_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := l.conn.WriteJSON(outboundMessage[any]{Type: typ, Payload: payload}); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		l.log.Debug("ws write failed", zap.String("type", typ), zap.Error(err))
	}
}

func (l *liveConn) sendError(msg string, retryable bool) {
	l.send("error", errorPayload{Message: msg, Retryable: retryable})
}

func (l *liveConn) close(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
