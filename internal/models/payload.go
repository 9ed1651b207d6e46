package models

// Step is the backend's conversation step. The client carries it around without interpreting it.
type Step string

// Steps the backend is known to report.
const (
	StepInitial        Step = "initial"
	StepTracking       Step = "tracking"
	StepTrackingResult Step = "tracking_result"
	StepClaimPrompt    Step = "claim_prompt"
	StepClaimEmail     Step = "claim_email"
	StepClaimComplete  Step = "claim_complete"
)

// ChatStartResponse is returned by GET /chat/start.
type ChatStartResponse struct {
	SessionID string `json:"session_id"`
	Step      Step   `json:"step"`
	Message   string `json:"message"`
}

// MessageResponse is returned by POST /chat/message.
type MessageResponse struct {
	Message    string    `json:"message"`
	BotMessage bool      `json:"bot_message"`
	Metadata   *Metadata `json:"metadata,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// TrackResponse is returned by POST /chat/track.
type TrackResponse struct {
	Step           Step   `json:"step"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Status         string `json:"status,omitempty"`
	Message        string `json:"message"`
	CanClaim       *bool  `json:"can_claim,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ClaimResponse is returned by POST /chat/claim.
type ClaimResponse struct {
	Step           Step   `json:"step"`
	Message        string `json:"message"`
	ClaimID        string `json:"claim_id,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Email          string `json:"email,omitempty"`
	Error          string `json:"error,omitempty"`
	Status         string `json:"status,omitempty"`
}

// ClaimDetails is returned by GET /chat/claim/{id}.
type ClaimDetails struct {
	ClaimID        string `json:"claim_id"`
	Email          string `json:"email"`
	TrackingNumber string `json:"tracking_number"`
	CreatedAt      string `json:"created_at"`
	Status         string `json:"status"`
}

// SessionResponse is returned by GET /session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// StatusResponse is returned by GET /chat/status.
type StatusResponse struct {
	Tracking string `json:"tracking"`
	Status   string `json:"status"`
}
