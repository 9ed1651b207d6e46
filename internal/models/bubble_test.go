package models_test

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestMetadataLines(t *testing.T) {
	tests := []struct {
		name string
		md   *models.Metadata
		want []string
	}{
		{
			name: "nil metadata",
			md:   nil,
			want: nil,
		},
		{
			name: "email only",
			md:   &models.Metadata{Email: "a@example.com"},
			want: nil,
		},
		{
			name: "tracking and status",
			md:   &models.Metadata{TrackingNumber: "AB123456789", Status: "in transit"},
			want: []string{"Tracking: AB123456789", "Status: in transit"},
		},
		{
			name: "all fields keep display order",
			md: &models.Metadata{
				ClaimID:        "CLM-1",
				Status:         "lost",
				TrackingNumber: "CD555666777",
			},
			want: []string{"Tracking: CD555666777", "Status: lost", "Claim ID: CLM-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.MetadataLines(tt.md)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MetadataLines() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewBubble(t *testing.T) {
	t.Run("user message is escaped and right aligned", func(t *testing.T) {
		b, err := models.NewBubble(models.NewUserMessage("<b>AB123456789</b>"))
		if err != nil {
			t.Fatalf("NewBubble() error = %v", err)
		}
		if b.Align() != models.AlignRight {
			t.Errorf("Align() = %q, want %q", b.Align(), models.AlignRight)
		}
		if strings.Contains(string(b.HTML), "<b>") {
			t.Errorf("HTML = %q, want escaped content", b.HTML)
		}
		if len(b.Lines) != 0 {
			t.Errorf("Lines = %v, want none", b.Lines)
		}
	})

	t.Run("bot message renders markdown and metadata", func(t *testing.T) {
		msg := models.NewBotMessage("In **transit**", &models.Metadata{
			TrackingNumber: "AB123456789",
			Status:         "in transit",
		})
		b, err := models.NewBubble(msg)
		if err != nil {
			t.Fatalf("NewBubble() error = %v", err)
		}
		if b.Align() != models.AlignLeft {
			t.Errorf("Align() = %q, want %q", b.Align(), models.AlignLeft)
		}
		if !strings.Contains(string(b.HTML), "<strong>transit</strong>") {
			t.Errorf("HTML = %q, want rendered markdown", b.HTML)
		}
		want := []string{"Tracking: AB123456789", "Status: in transit"}
		if diff := cmp.Diff(want, b.Lines); diff != "" {
			t.Errorf("Lines mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("bare urls are not linked", func(t *testing.T) {
		b, err := models.NewBubble(models.NewBotMessage("Details at https://example.com/track", nil))
		if err != nil {
			t.Fatalf("NewBubble() error = %v", err)
		}
		if strings.Contains(string(b.HTML), "<a ") {
			t.Errorf("HTML = %q, want no link", b.HTML)
		}
	})

	t.Run("error notice is shown verbatim", func(t *testing.T) {
		content := `Error: Post "http://localhost:8000/chat/message": dial tcp: connection refused`
		b, err := models.NewBubble(models.NewBotMessage(content, nil))
		if err != nil {
			t.Fatalf("NewBubble() error = %v", err)
		}
		if !b.Notice {
			t.Error("Notice = false, want true")
		}
		want := `Error: Post &#34;http://localhost:8000/chat/message&#34;: dial tcp: connection refused`
		if string(b.HTML) != want {
			t.Errorf("HTML = %q, want %q", b.HTML, want)
		}
	})

	t.Run("error notice keeps list and heading markers", func(t *testing.T) {
		b, err := models.NewBubble(models.NewBotMessage("Error: 1. # bad", nil))
		if err != nil {
			t.Fatalf("NewBubble() error = %v", err)
		}
		if string(b.HTML) != "Error: 1. # bad" {
			t.Errorf("HTML = %q, want the text unchanged", b.HTML)
		}
	})

	t.Run("bot message drops raw html", func(t *testing.T) {
		b, err := models.NewBubble(models.NewBotMessage("<script>alert(1)</script>", nil))
		if err != nil {
			t.Fatalf("NewBubble() error = %v", err)
		}
		if strings.Contains(string(b.HTML), "<script>") {
			t.Errorf("HTML = %q, want raw html omitted", b.HTML)
		}
	})
}
