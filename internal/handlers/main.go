package handlers

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	parcelchatui "github.com/MegaGrindStone/parcel-chat-ui"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/chat"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tmaxmax/go-sse"
)

// Main handles the web front end: it keeps one chat controller per open page, renders the page and the
// message bubbles, and pushes bot replies to the browser through server-sent events.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	backend  chat.Backend
	recorder chat.Recorder
	views    *views

	// pending tracks replies still being resolved, so Shutdown can wait for them.
	pending *sync.WaitGroup

	logger *slog.Logger
}

const errLoggerKey = "err"

// NewMain creates a new Main instance talking to backend. The recorder may be nil, in which case
// conversations are not archived. It parses the HTML templates from the embedded filesystem and
// configures the SSE server so every page subscribes to the topic of its own view.
func NewMain(backend chat.Backend, recorder chat.Recorder, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		parcelchatui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	m := Main{
		templates: tmpl,
		backend:   backend,
		recorder:  recorder,
		views:     newViews(),
		pending:   &sync.WaitGroup{},
		logger:    logger.With(slog.String("module", "main")),
	}

	m.sseSrv = &sse.Server{
		Provider: &sse.Joe{
			Replayer: connectedNotifier{},
		},
		OnSession: func(w http.ResponseWriter, r *http.Request) ([]string, bool) {
			viewID := r.URL.Query().Get("view_id")
			if _, ok := m.views.get(viewID); !ok {
				m.logger.Warn("SSE session for unknown view", slog.String("viewID", viewID))
				http.Error(w, "View not found", http.StatusNotFound)
				return nil, false
			}
			// Every client listens to the default topic for shutdown notices, and to its own view.
			return []string{sse.DefaultTopic, viewTopic(viewID)}, true
		},
	}

	return m, nil
}

func viewTopic(viewID string) string {
	return fmt.Sprintf("view-%s", viewID)
}

// connectedNotifier greets every new subscriber with a "connected" event as it is registered. The write
// flushes the response headers, so the page sees its stream open. Events published after the greeting
// reach the page.
type connectedNotifier struct{}

func (connectedNotifier) Put(msg *sse.Message, _ []string) (*sse.Message, error) {
	return msg, nil
}

func (connectedNotifier) Replay(sub sse.Subscription) error {
	e := &sse.Message{Type: connectedSSEType}
	e.AppendData("connected")
	if err := sub.Client.Send(e); err != nil {
		return err
	}
	return sub.Client.Flush()
}

// Router returns the HTTP handler serving every route of the web front end.
func (m Main) Router() (http.Handler, error) {
	staticFS, err := fs.Sub(parcelchatui.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(m.logRequests)
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	r.Get("/", m.HandleHome)
	r.Get("/sse", m.HandleSSE)
	r.Route("/views/{viewID}", func(r chi.Router) {
		r.Get("/messages", m.HandleMessages)
		r.Post("/messages", m.HandleSend)
		r.Post("/close", m.HandleClose)
	})

	return r, nil
}

// HandleSSE streams the replies of one view. The view is selected with the "view_id" query parameter.
// The stream opens with a "connected" event, and a view with an open stream is never swept as idle.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	viewID := r.URL.Query().Get("view_id")
	if m.views.attach(viewID) {
		defer m.views.detach(viewID)
	}
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance. It tells every connected page that the server is
// going away, waits for replies that are still being resolved, then shuts the SSE server down. Both
// waits are bounded by ctx and an internal 5 seconds limit.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("close")}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Shutdown before all replies were resolved")
	}

	m.views.reset()

	return m.sseSrv.Shutdown(ctx)
}

func (m Main) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		m.logger.Debug("Request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("requestID", middleware.GetReqID(r.Context())),
			slog.Duration("duration", time.Since(start)))
	})
}
