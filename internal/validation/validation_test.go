package validation

import (
	"errors"
	"testing"
	"time"
)

func TestValidateChallengeParams(t *testing.T) {
	tests := []struct {
		name       string
		challenger string
		recipient  string
		steps      int64
		stake      int64
		wantErr    error
	}{
		{name: "valid", challenger: "a@x.com", recipient: "b@x.com", steps: 5000, stake: 50, wantErr: nil},
		{name: "empty challenger", challenger: "", recipient: "b@x.com", steps: 5000, stake: 50, wantErr: ErrEmptyParticipant},
		{name: "blank recipient", challenger: "a@x.com", recipient: "   ", steps: 5000, stake: 50, wantErr: ErrEmptyParticipant},
		{name: "same participants", challenger: "a@x.com", recipient: "a@x.com", steps: 5000, stake: 50, wantErr: ErrSameParticipants},
		{name: "zero target", challenger: "a@x.com", recipient: "b@x.com", steps: 0, stake: 50, wantErr: ErrNonPositiveSteps},
		{name: "negative stake", challenger: "a@x.com", recipient: "b@x.com", steps: 5000, stake: -1, wantErr: ErrNonPositiveStake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChallengeParams(tt.challenger, tt.recipient, tt.steps, tt.stake)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseChallengeDate(t *testing.T) {
	got, err := ParseChallengeDate("2025-06-15")
	if err != nil {
		t.Fatalf("ParseChallengeDate error: %v", err)
	}
	if got.Year() != 2025 || got.Month() != time.June || got.Day() != 15 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("date not truncated to day: %v", got)
	}

	got, err = ParseChallengeDate("2025-06-15T18:30:00Z")
	if err != nil {
		t.Fatalf("ParseChallengeDate RFC3339 error: %v", err)
	}
	if got.Day() != 15 || got.Hour() != 0 {
		t.Fatalf("RFC3339 date not truncated: %v", got)
	}

	if _, err := ParseChallengeDate("15/06/2025"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	if !SameDay(morning, evening) {
		t.Fatalf("same calendar day must match regardless of time")
	}
	if SameDay(evening, nextDay) {
		t.Fatalf("adjacent days must not match")
	}
}
