package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/chat"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{}

func (stubBackend) StartChat(context.Context, string) (models.ChatStartResponse, error) {
	return models.ChatStartResponse{SessionID: "s-1", Step: models.StepInitial, Message: "Hello"}, nil
}

func (stubBackend) SendMessage(context.Context, string, string) (models.MessageResponse, error) {
	return models.MessageResponse{Message: "ok"}, nil
}

func TestViewsSweep(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	v := newViews()
	v.now = func() time.Time { return now }

	v.add("idle", chat.NewController(stubBackend{}))
	v.add("used", chat.NewController(stubBackend{}))
	v.add("streaming", chat.NewController(stubBackend{}))
	require.True(t, v.attach("streaming"))
	assert.False(t, v.attach("missing"))

	now = now.Add(viewIdleTimeout - time.Minute)
	_, ok := v.get("used")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, v.sweep(viewIdleTimeout))
	assert.Equal(t, 2, v.count())
	_, ok = v.get("idle")
	assert.False(t, ok, "idle view should be dropped")

	// Once its stream is gone, a view expires like any other.
	v.detach("streaming")
	now = now.Add(viewIdleTimeout + time.Second)
	assert.Equal(t, 2, v.sweep(viewIdleTimeout))
	assert.Zero(t, v.count())
}

func TestHandleHomeSweepsIdleViews(t *testing.T) {
	m, err := NewMain(stubBackend{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
	})

	now := time.Now()
	m.views.now = func() time.Time { return now }

	home := func() {
		w := httptest.NewRecorder()
		m.HandleHome(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	home()
	home()
	require.Equal(t, 2, m.views.count())

	// Both earlier pages never sent their close beacon.
	now = now.Add(viewIdleTimeout + time.Minute)
	home()
	assert.Equal(t, 1, m.views.count())
}
