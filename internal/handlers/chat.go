package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/chat"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/tmaxmax/go-sse"
)

// SSE event types for real-time updates.
var (
	connectedSSEType = sse.Type("connected")
	messagesSSEType  = sse.Type("messages")
	readySSEType     = sse.Type("ready")
)

// HandleSend accepts one user submission for a view, from the "message" form field.
//
// When the controller ignores the submission (blank text, chat not started, or a reply still pending)
// the handler answers 204 No Content and renders nothing. Otherwise it renders the user bubble followed
// by a loading bubble, and resolves the reply in the background; the rendered bot bubble is published
// to the view's SSE topic as a "messages" event, followed by a "ready" event once input is accepted
// again.
func (m Main) HandleSend(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	ctrl, ok := m.views.get(viewID)
	if !ok {
		m.logger.Error("View not found", slog.String("viewID", viewID))
		http.Error(w, "View not found", http.StatusNotFound)
		return
	}

	turn, ok := ctrl.Send(r.FormValue("message"))
	if !ok {
		m.logger.Debug("Submission ignored", slog.String("viewID", viewID))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	m.pending.Add(1)
	go m.resolve(viewID, turn)

	userBubble, err := models.NewBubble(turn.User)
	if err != nil {
		m.logger.Error("Failed to render user message",
			slog.String("message", fmt.Sprintf("%+v", turn.User)),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "message_bubble", userBubble); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := m.templates.ExecuteTemplate(w, "loading_bubble", nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleMessages renders the whole conversation of a view. Pages use it to resynchronise after the SSE
// connection dropped.
func (m Main) HandleMessages(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	ctrl, ok := m.views.get(viewID)
	if !ok {
		http.Error(w, "View not found", http.StatusNotFound)
		return
	}

	data, err := m.pageData(viewID, ctrl)
	if err != nil {
		m.logger.Error("Failed to render messages",
			slog.String("viewID", viewID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "message_list", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleClose drops a view. Pages call it when they are unloaded.
func (m Main) HandleClose(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	if m.views.remove(viewID) {
		m.logger.Debug("View closed",
			slog.String("viewID", viewID),
			slog.Int("openViews", m.views.count()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolve waits for the reply of turn and publishes it. It runs detached from the request that created
// the turn, so a client disconnect does not abandon the backend call.
func (m Main) resolve(viewID string, turn chat.Turn) {
	defer m.pending.Done()

	reply := turn.Resolve(context.Background())

	b, err := models.NewBubble(reply)
	if err != nil {
		m.logger.Error("Failed to render reply",
			slog.String("message", fmt.Sprintf("%+v", reply)),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "message_bubble", b); err != nil {
		m.logger.Error("Failed to execute message_bubble template",
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{
		Type: messagesSSEType,
	}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, viewTopic(viewID)); err != nil {
		m.logger.Error("Failed to publish reply",
			slog.String("viewID", viewID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	ready := sse.Message{
		Type: readySSEType,
	}
	ready.AppendData("ready")
	if err := m.sseSrv.Publish(&ready, viewTopic(viewID)); err != nil {
		m.logger.Error("Failed to publish ready",
			slog.String("viewID", viewID),
			slog.String(errLoggerKey, err.Error()))
	}
}
