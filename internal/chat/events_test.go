package chat

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDecodeInbound(t *testing.T) {
	msgID := uuid.New()

	tests := []struct {
		name    string
		payload string
		want    InboundType
		wantErr bool
	}{
		{"text", `{"type":"text","content":"hello"}`, InboundText, false},
		{"typing", `{"type":"typing","is_typing":true}`, InboundTyping, false},
		{"media announce", `{"type":"media-announce","message_id":"` + msgID.String() + `"}`, InboundMediaAnnounce, false},
		{"media announce without id", `{"type":"media-announce"}`, "", true},
		{"unknown kind", `{"type":"presence-hack"}`, "", true},
		{"missing kind", `{"content":"hi"}`, "", true},
		{"not json", `{{{`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeInbound([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("want ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.Type != tt.want {
				t.Errorf("type %q, want %q", ev.Type, tt.want)
			}
		})
	}
}

func TestValidateText(t *testing.T) {
	if _, err := ValidateText("   \n\t  "); !errors.Is(err, ErrValidation) {
		t.Errorf("whitespace-only content accepted: %v", err)
	}
	if _, err := ValidateText(strings.Repeat("x", maxContentBytes+1)); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized content accepted: %v", err)
	}

	got, err := ValidateText("  hello world  ")
	if err != nil {
		t.Fatalf("valid content rejected: %v", err)
	}
	if got != "hello world" {
		t.Errorf("content not trimmed: %q", got)
	}
}

func TestSenderOfNil(t *testing.T) {
	if SenderOf(nil) != nil {
		t.Error("nil user produced a sender")
	}
}
