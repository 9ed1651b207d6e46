package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
)

// Tracking is a client for the package-tracking assistant backend. Every method issues exactly one HTTP
// request to the configured base URL and decodes the JSON body into the matching payload type. There is
// no retry, no caching and no client-side timeout; the context is the only way to abandon a call.
type Tracking struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

// APIError is returned for every non-2xx response from the backend. Its message is the server supplied
// detail when the body carries one, or a message derived from the HTTP status otherwise.
type APIError struct {
	StatusCode int
	Detail     string
}

type sendMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type trackRequest struct {
	SessionID      string `json:"session_id"`
	TrackingNumber string `json:"tracking_number"`
}

type claimRequest struct {
	SessionID      string `json:"session_id"`
	Email          string `json:"email"`
	TrackingNumber string `json:"tracking_number"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// DefaultTrackingURL is used when no base URL is configured.
const DefaultTrackingURL = "http://localhost:8000"

// NewTracking creates a new Tracking client for the backend at baseURL. A trailing slash on baseURL is
// ignored, and an empty baseURL falls back to DefaultTrackingURL.
func NewTracking(baseURL string, logger *slog.Logger) Tracking {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultTrackingURL
	}
	return Tracking{
		baseURL: baseURL,
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "tracking")),
	}
}

// BaseURL returns the backend URL the client talks to.
func (t Tracking) BaseURL() string {
	return t.baseURL
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// StartChat starts a conversation. When sessionID is not empty the backend is asked to reuse it.
func (t Tracking) StartChat(ctx context.Context, sessionID string) (models.ChatStartResponse, error) {
	var res models.ChatStartResponse
	err := t.do(ctx, http.MethodGet, withSession("/chat/start", sessionID), nil, &res)
	return res, err
}

// SendMessage forwards one line of user text within the session.
func (t Tracking) SendMessage(ctx context.Context, sessionID, message string) (models.MessageResponse, error) {
	var res models.MessageResponse
	err := t.do(ctx, http.MethodPost, "/chat/message", sendMessageRequest{
		SessionID: sessionID,
		Message:   message,
	}, &res)
	return res, err
}

// TrackPackage looks a tracking number up within the session.
func (t Tracking) TrackPackage(ctx context.Context, sessionID, trackingNumber string) (models.TrackResponse, error) {
	var res models.TrackResponse
	err := t.do(ctx, http.MethodPost, "/chat/track", trackRequest{
		SessionID:      sessionID,
		TrackingNumber: trackingNumber,
	}, &res)
	return res, err
}

// FileClaim files a claim for trackingNumber, to be answered at email.
func (t Tracking) FileClaim(
	ctx context.Context,
	sessionID, email, trackingNumber string,
) (models.ClaimResponse, error) {
	var res models.ClaimResponse
	err := t.do(ctx, http.MethodPost, "/chat/claim", claimRequest{
		SessionID:      sessionID,
		Email:          email,
		TrackingNumber: trackingNumber,
	}, &res)
	return res, err
}

// ClaimDetails fetches a previously filed claim. The sessionID is optional.
func (t Tracking) ClaimDetails(ctx context.Context, claimID, sessionID string) (models.ClaimDetails, error) {
	var res models.ClaimDetails
	path := withSession("/chat/claim/"+url.PathEscape(claimID), sessionID)
	err := t.do(ctx, http.MethodGet, path, nil, &res)
	return res, err
}

// Session returns the backend's view of the session, creating one when sessionID is empty or unknown.
func (t Tracking) Session(ctx context.Context, sessionID string) (models.SessionResponse, error) {
	var res models.SessionResponse
	err := t.do(ctx, http.MethodGet, withSession("/session", sessionID), nil, &res)
	return res, err
}

// Status asks for the bare status of a tracking number without advancing the conversation.
func (t Tracking) Status(ctx context.Context, sessionID, trackingNumber string) (models.StatusResponse, error) {
	var res models.StatusResponse
	q := url.Values{}
	q.Set("session_id", sessionID)
	q.Set("tracking", trackingNumber)
	err := t.do(ctx, http.MethodGet, "/chat/status?"+q.Encode(), nil, &res)
	return res, err
}

func withSession(path, sessionID string) string {
	if sessionID == "" {
		return path
	}
	return path + "?session_id=" + url.QueryEscape(sessionID)
}

func (t Tracking) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	t.logger.Debug("Backend response",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// apiError builds the error for a non-2xx response. Only a JSON body with a string detail is trusted;
// anything else (HTML error pages, validation error lists) falls back to the status code.
func apiError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(e.Detail, &detail); err == nil {
		apiErr.Detail = detail
	}
	return apiErr
}
