// Package chat holds the conversation state of one chat view and sequences the calls a user can trigger:
// starting the chat and sending a message.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
)

// Backend is the part of the tracking backend the controller talks to.
type Backend interface {
	StartChat(ctx context.Context, sessionID string) (models.ChatStartResponse, error)
	SendMessage(ctx context.Context, sessionID, message string) (models.MessageResponse, error)
}

// Recorder receives a copy of every message appended after a session exists.
type Recorder interface {
	Record(ctx context.Context, sessionID string, message models.Message) error
}

// Controller owns one conversation. All methods are safe for concurrent use; at most one send is in
// flight at any time, and messages are kept strictly in insertion order.
type Controller struct {
	backend  Backend
	recorder Recorder
	logger   *slog.Logger

	mu        sync.Mutex
	messages  []models.Message
	sessionID string
	loading   bool
	started   bool
	// unrecorded holds appended messages not yet handed to the recorder, in append order.
	unrecorded []record

	// recordMu serialises flushRecords so the archive sees messages in append order.
	recordMu sync.Mutex
}

type record struct {
	sessionID string
	message   models.Message
}

// Turn is an accepted user submission whose reply has not arrived yet.
type Turn struct {
	// User is the message that was appended when the submission was accepted.
	User models.Message

	c         *Controller
	sessionID string
	once      *sync.Once
	reply     *models.Message
}

// StartErrorMessage is shown when the chat cannot be started.
const StartErrorMessage = "Sorry, I encountered an error starting the chat. Please refresh the page."

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder archives every message of the conversation through r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets the logger used for failures that are not shown to the user.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller for a fresh conversation. The chat is not started until Start is
// called.
func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("module", "chat"))
	return c
}

// Start asks the backend for a session and appends its greeting. It runs at most once per controller;
// later calls return immediately. A failure appends StartErrorMessage and leaves the controller without
// a session, so every later submission is ignored.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.loading = true
	c.mu.Unlock()

	res, err := c.backend.StartChat(ctx, "")

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.logger.Error("Failed to start chat", slog.String("err", err.Error()))
		c.appendLocked(models.NewBotMessage(StartErrorMessage, nil))
	} else {
		c.sessionID = res.SessionID
		c.appendLocked(models.NewBotMessage(res.Message, nil))
	}
	c.mu.Unlock()

	c.flushRecords(ctx)
}

// Send accepts one user submission. The text is trimmed first; empty text, a missing session or a send
// already in flight make Send return false without any side effect. Otherwise the user message is
// appended immediately, the controller is marked as loading, and the returned Turn performs the call.
func (c *Controller) Send(text string) (Turn, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, false
	}

	c.mu.Lock()
	if c.sessionID == "" || c.loading {
		c.mu.Unlock()
		return Turn{}, false
	}

	msg := models.NewUserMessage(text)
	c.appendLocked(msg)
	c.loading = true
	turn := Turn{
		User:      msg,
		c:         c,
		sessionID: c.sessionID,
		once:      &sync.Once{},
		reply:     &models.Message{},
	}
	c.mu.Unlock()

	c.flushRecords(context.Background())
	return turn, true
}

// Submit is Send followed by Resolve. It reports whether the submission was accepted.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	turn, ok := c.Send(text)
	if !ok {
		return false
	}
	turn.Resolve(ctx)
	return true
}

// Resolve sends the user message to the backend and appends the reply, or an "Error: ..." message when
// the call fails. The controller accepts input again afterwards in both cases. Resolve runs the call only
// once; later calls return the same reply.
func (t Turn) Resolve(ctx context.Context) models.Message {
	if t.c == nil {
		return models.Message{}
	}

	t.once.Do(func() {
		res, err := t.c.backend.SendMessage(ctx, t.sessionID, t.User.Content)

		var reply models.Message
		if err != nil {
			t.c.logger.Error("Failed to send message",
				slog.String("sessionID", t.sessionID),
				slog.String("err", err.Error()))
			reply = models.NewBotMessage(models.ErrorPrefix+err.Error(), nil)
		} else {
			reply = models.NewBotMessage(res.Message, res.Metadata)
		}

		t.c.mu.Lock()
		t.c.appendLocked(reply)
		t.c.loading = false
		t.c.mu.Unlock()

		t.c.flushRecords(ctx)

		*t.reply = reply
	})

	return *t.reply
}

// Messages returns a copy of the conversation in insertion order.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]models.Message, len(c.messages))
	copy(msgs, c.messages)
	return msgs
}

// SessionID returns the backend session handle, or an empty string when the chat has not started
// successfully.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Loading reports whether a backend call is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Ready reports whether a submission would currently be accepted, which is also whether the input should
// be enabled.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID != "" && !c.loading
}

// appendLocked must be called with c.mu held. The message is queued for the recorder; callers hand
// the queue over with flushRecords once c.mu is released.
func (c *Controller) appendLocked(msg models.Message) {
	c.messages = append(c.messages, msg)

	if c.recorder == nil || c.sessionID == "" {
		return
	}
	c.unrecorded = append(c.unrecorded, record{sessionID: c.sessionID, message: msg})
}

// flushRecords hands the queued messages to the recorder. It must be called without c.mu held, so a slow
// archive never blocks readers of the conversation.
func (c *Controller) flushRecords(ctx context.Context) {
	if c.recorder == nil {
		return
	}

	c.recordMu.Lock()
	defer c.recordMu.Unlock()

	c.mu.Lock()
	queued := c.unrecorded
	c.unrecorded = nil
	c.mu.Unlock()

	for _, r := range queued {
		if err := c.recorder.Record(context.WithoutCancel(ctx), r.sessionID, r.message); err != nil {
			c.logger.Error("Failed to record message",
				slog.String("sessionID", r.sessionID),
				slog.String("err", err.Error()))
		}
	}
}
