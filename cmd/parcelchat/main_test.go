package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/config"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/services"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path+"?"+r.URL.RawQuery)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/chat/start":
		_, _ = w.Write([]byte(`{"session_id":"fresh","step":"initial","message":"Hi"}`))
	case "/chat/track":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		resp, _ := json.Marshal(map[string]any{
			"step":            "tracking_result",
			"tracking_number": body["tracking_number"],
			"status":          "in transit",
			"message":         "Package for " + body["session_id"],
			"can_claim":       false,
		})
		_, _ = w.Write(resp)
	case "/chat/status":
		q := r.URL.Query()
		if q.Get("session_id") == "" || q.Get("session_id") == "expired" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"session expired"}`))
			return
		}
		resp, _ := json.Marshal(map[string]string{
			"tracking": q.Get("tracking"),
			"status":   "in transit",
		})
		_, _ = w.Write(resp)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func setup(t *testing.T) (*fakeBackend, *cobra.Command, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{config.EnvPort, config.EnvAPIURL, config.EnvLogLevel, config.EnvTranscripts} {
		t.Setenv(key, "")
	}

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	logger = zap.NewNop()
	configPath = filepath.Join(dir, "config.yaml")
	apiURL = srv.URL
	sessionID = ""
	t.Cleanup(func() {
		configPath, apiURL, sessionID = "", "", ""
	})

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return backend, cmd, &out
}

func TestRunTrackStartsSession(t *testing.T) {
	backend, cmd, out := setup(t)

	require.NoError(t, runTrack(cmd, []string{" AB123456789 "}))

	assert.Equal(t, []string{"/chat/start?", "/chat/track?"}, backend.calls())
	assert.Contains(t, out.String(), "Package for fresh")
	assert.Contains(t, out.String(), "Tracking: AB123456789")
	assert.Contains(t, out.String(), "Status: in transit")
	assert.Contains(t, out.String(), "Can claim: false")
}

func TestRunTrackUsesSessionFlag(t *testing.T) {
	backend, cmd, out := setup(t)
	sessionID = "existing"

	require.NoError(t, runTrack(cmd, []string{"AB123456789"}))

	assert.Equal(t, []string{"/chat/track?"}, backend.calls())
	assert.Contains(t, out.String(), "Package for existing")
}

func TestRunStatusStartsSession(t *testing.T) {
	backend, cmd, out := setup(t)

	require.NoError(t, runStatus(cmd, []string{" AB123456789 "}))

	assert.Equal(t, []string{
		"/chat/start?",
		"/chat/status?session_id=fresh&tracking=AB123456789",
	}, backend.calls())
	assert.Equal(t, "AB123456789: in transit\n", out.String())
}

func TestRunStatusError(t *testing.T) {
	backend, cmd, _ := setup(t)
	sessionID = "expired"

	err := runStatus(cmd, []string{"AB123456789"})
	require.Error(t, err)
	assert.Equal(t, "status: session expired", err.Error())

	var apiErr *services.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, []string{"/chat/status?session_id=expired&tracking=AB123456789"}, backend.calls())
}

func TestRunHistory(t *testing.T) {
	_, cmd, out := setup(t)

	dbPath := filepath.Join(t.TempDir(), "transcripts.db")
	t.Setenv(config.EnvTranscripts, dbPath)

	db, err := services.NewBoltDB(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, db.Record(ctx, "s-1", models.NewBotMessage("Hello!", nil)))
	require.NoError(t, db.Record(ctx, "s-1", models.NewUserMessage("AB123456789")))
	require.NoError(t, db.Record(ctx, "s-1", models.NewBotMessage("In transit",
		&models.Metadata{TrackingNumber: "AB123456789", Status: "in transit"})))
	require.NoError(t, db.Close())

	require.NoError(t, runHistory(cmd, nil))
	assert.Contains(t, out.String(), "s-1")
	assert.Contains(t, out.String(), "3 messages")

	out.Reset()
	require.NoError(t, runHistory(cmd, []string{"s-1"}))
	assert.Contains(t, out.String(), "Assistant: Hello!")
	assert.Contains(t, out.String(), "You: AB123456789")
	assert.Contains(t, out.String(), "    Status: in transit")

	out.Reset()
	require.NoError(t, runHistory(cmd, []string{"missing"}))
	assert.Contains(t, out.String(), "No transcript for session missing.")
}
