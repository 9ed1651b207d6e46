package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltDB archives conversation transcripts in a BoltDB file. Every message the chat controller appends
// is recorded under the backend session handle it belongs to, so transcripts can be read back after the
// conversation itself is gone.
type BoltDB struct {
	db *bolt.DB
}

// SessionSummary describes one archived conversation.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  int       `json:"messages"`
}

var sessionsBucket = []byte("sessions")

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the database
// with required buckets and returns an error if the database cannot be opened or initialized. The
// database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return BoltDB{}, fmt.Errorf("failed to create buckets: %w", err)
	}

	return BoltDB{db: db}, nil
}

// Close releases the database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

func transcriptBucketName(sessionID string) []byte {
	return []byte(fmt.Sprintf("transcript-%s", sessionID))
}

// Record appends message to the transcript of sessionID, creating the transcript on first use. Messages
// are keyed by a per-transcript sequence so they read back in insertion order.
func (b BoltDB) Record(_ context.Context, sessionID string, message models.Message) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(sessionsBucket)
		if sessions == nil {
			return fmt.Errorf("sessions bucket is missing")
		}

		transcript, err := tx.CreateBucketIfNotExists(transcriptBucketName(sessionID))
		if err != nil {
			return fmt.Errorf("failed to create transcript bucket: %w", err)
		}

		seq, err := transcript.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}

		v, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := transcript.Put(sequenceKey(seq), v); err != nil {
			return fmt.Errorf("failed to put message: %w", err)
		}

		summary := SessionSummary{
			SessionID: sessionID,
			StartedAt: message.Timestamp,
		}
		if raw := sessions.Get([]byte(sessionID)); raw != nil {
			if err := json.Unmarshal(raw, &summary); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
		}
		summary.UpdatedAt = message.Timestamp
		summary.Messages++

		sv, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		return sessions.Put([]byte(sessionID), sv)
	})
}

// Sessions retrieves the summaries of all archived conversations, most recently updated first.
func (b BoltDB) Sessions(context.Context) ([]SessionSummary, error) {
	var summaries []SessionSummary
	err := b.db.View(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(sessionsBucket)
		if sessions == nil {
			return nil
		}

		return sessions.ForEach(func(_, v []byte) error {
			var s SessionSummary
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			summaries = append(summaries, s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(summaries, func(a, b SessionSummary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return summaries, nil
}

// Transcript retrieves the archived messages of sessionID in the order they were recorded. An unknown
// session yields an empty transcript.
func (b BoltDB) Transcript(_ context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	err := b.db.View(func(tx *bolt.Tx) error {
		transcript := tx.Bucket(transcriptBucketName(sessionID))
		if transcript == nil {
			return nil
		}

		return transcript.ForEach(func(_, v []byte) error {
			var message models.Message
			if err := json.Unmarshal(v, &message); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			messages = append(messages, message)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// sequenceKey encodes seq big-endian so bolt's byte ordering matches insertion order.
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
