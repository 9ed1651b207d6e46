package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// requestTimeout bounds every one-shot backend call.
const requestTimeout = 30 * time.Second

// trackCmd looks up one tracking number
var trackCmd = &cobra.Command{
	Use:   "track <tracking-number>",
	Short: "Track a package",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

// claimCmd files a claim for a package
var claimCmd = &cobra.Command{
	Use:   "claim <tracking-number> <email>",
	Short: "File a claim for a lost or damaged package",
	Args:  cobra.ExactArgs(2),
	RunE:  runClaim,
}

// claimDetailsCmd shows a filed claim
var claimDetailsCmd = &cobra.Command{
	Use:   "claim-details <claim-id>",
	Short: "Show a filed claim",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaimDetails,
}

// sessionCmd asks the backend for a session handle
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the backend session handle",
	Args:  cobra.NoArgs,
	RunE:  runSession,
}

// statusCmd prints the bare status of a package
var statusCmd = &cobra.Command{
	Use:   "status <tracking-number>",
	Short: "Show the status of a package",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

// historyCmd reads archived conversations
var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List archived conversations, or print one transcript",
	Long: `Without arguments, history lists every archived conversation, newest first.
With a session id, it prints the transcript of that conversation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func newClient() (services.Tracking, error) {
	cfg, err := loadConfig()
	if err != nil {
		return services.Tracking{}, err
	}
	return services.NewTracking(cfg.APIURL, serviceLogger(cfg)), nil
}

// ensureSession returns the --session value, or starts a new chat to obtain one.
func ensureSession(ctx context.Context, client services.Tracking) (string, error) {
	if sessionID != "" {
		return sessionID, nil
	}

	res, err := client.StartChat(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to start chat: %w", err)
	}
	logger.Debug("Started session", zap.String("sessionID", res.SessionID))
	return res.SessionID, nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	sid, err := ensureSession(ctx, client)
	if err != nil {
		return err
	}

	res, err := client.TrackPackage(ctx, sid, strings.TrimSpace(args[0]))
	if err != nil {
		return reportError("track", err)
	}
	printTrack(cmd.OutOrStdout(), sid, res)
	return nil
}

func runClaim(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	sid, err := ensureSession(ctx, client)
	if err != nil {
		return err
	}

	res, err := client.FileClaim(ctx, sid, strings.TrimSpace(args[1]), strings.TrimSpace(args[0]))
	if err != nil {
		return reportError("claim", err)
	}
	printClaim(cmd.OutOrStdout(), sid, res)
	return nil
}

func runClaimDetails(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	res, err := client.ClaimDetails(ctx, strings.TrimSpace(args[0]), sessionID)
	if err != nil {
		return reportError("claim-details", err)
	}
	printClaimDetails(cmd.OutOrStdout(), res)
	return nil
}

func runSession(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	res, err := client.Session(ctx, sessionID)
	if err != nil {
		return reportError("session", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.SessionID)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	sid, err := ensureSession(ctx, client)
	if err != nil {
		return err
	}

	res, err := client.Status(ctx, sid, strings.TrimSpace(args[0]))
	if err != nil {
		return reportError("status", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Tracking, res.Status)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := transcriptPath(cfg)
	if err != nil {
		return err
	}
	db, err := services.NewBoltDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		sessions, err := db.Sessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		printSessions(cmd.OutOrStdout(), sessions)
		return nil
	}

	msgs, err := db.Transcript(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	printTranscript(cmd.OutOrStdout(), args[0], msgs)
	return nil
}

// reportError logs err and returns it with the operation name, keeping the backend detail readable.
func reportError(op string, err error) error {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		logger.Debug("Backend rejected request",
			zap.String("op", op),
			zap.Int("status", apiErr.StatusCode))
	} else {
		logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func printTrack(w io.Writer, sid string, res models.TrackResponse) {
	fmt.Fprintln(w, res.Message)
	printField(w, "Tracking", res.TrackingNumber)
	printField(w, "Status", res.Status)
	if res.CanClaim != nil {
		printField(w, "Can claim", fmt.Sprintf("%t", *res.CanClaim))
	}
	printField(w, "Session", sid)
}

func printClaim(w io.Writer, sid string, res models.ClaimResponse) {
	fmt.Fprintln(w, res.Message)
	printField(w, "Claim ID", res.ClaimID)
	printField(w, "Tracking", res.TrackingNumber)
	printField(w, "Email", res.Email)
	printField(w, "Status", res.Status)
	printField(w, "Session", sid)
}

func printClaimDetails(w io.Writer, res models.ClaimDetails) {
	printField(w, "Claim ID", res.ClaimID)
	printField(w, "Tracking", res.TrackingNumber)
	printField(w, "Email", res.Email)
	printField(w, "Status", res.Status)
	printField(w, "Created", res.CreatedAt)
}

func printSessions(w io.Writer, sessions []services.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No archived conversations found.")
		return
	}

	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  %d messages\n",
			s.SessionID, s.UpdatedAt.Local().Format(time.DateTime), s.Messages)
	}
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintf(w, "Total: %d conversations\n", len(sessions))
}

func printTranscript(w io.Writer, sid string, msgs []models.Message) {
	if len(msgs) == 0 {
		fmt.Fprintf(w, "No transcript for session %s.\n", sid)
		return
	}

	for _, m := range msgs {
		who := "Assistant"
		if m.Type == models.MessageTypeUser {
			who = "You"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format(time.TimeOnly), who, m.Content)
		for _, line := range models.MetadataLines(m.Metadata) {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

func printField(w io.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", name, value)
}
