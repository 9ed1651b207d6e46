package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/chat"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/google/uuid"
)

type homePageData struct {
	ViewID   string
	Messages []models.Bubble
	Ready    bool
	Loading  bool
}

// HandleHome opens a new view: it creates a controller for a fresh conversation, starts the chat with
// the backend and renders the page with whatever the start produced, which is either the greeting or
// the start failure notice. Views left idle for longer than viewIdleTimeout are dropped first.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	// Pages whose close beacon never arrived are dropped here.
	if n := m.views.sweep(viewIdleTimeout); n > 0 {
		m.logger.Info("Dropped idle views",
			slog.Int("dropped", n),
			slog.Int("openViews", m.views.count()))
	}

	var opts []chat.Option
	opts = append(opts, chat.WithLogger(m.logger))
	if m.recorder != nil {
		opts = append(opts, chat.WithRecorder(m.recorder))
	}
	ctrl := chat.NewController(m.backend, opts...)

	viewID := uuid.New().String()
	m.views.add(viewID, ctrl)

	ctrl.Start(r.Context())

	data, err := m.pageData(viewID, ctrl)
	if err != nil {
		m.logger.Error("Failed to prepare home page",
			slog.String("viewID", viewID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to execute home template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (m Main) pageData(viewID string, ctrl *chat.Controller) (homePageData, error) {
	bs, err := bubbles(ctrl.Messages())
	if err != nil {
		return homePageData{}, err
	}
	return homePageData{
		ViewID:   viewID,
		Messages: bs,
		Ready:    ctrl.Ready(),
		Loading:  ctrl.Loading(),
	}, nil
}

func bubbles(msgs []models.Message) ([]models.Bubble, error) {
	bs := make([]models.Bubble, len(msgs))
	for i, msg := range msgs {
		b, err := models.NewBubble(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to render message %s: %w", msg.ID, err)
		}
		bs[i] = b
	}
	return bs, nil
}
