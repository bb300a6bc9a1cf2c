package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCheckEligibility(t *testing.T) {
	deadline := testNow.Add(time.Hour)
	tests := []struct {
		name   string
		in     EligibilityInput
		reason EligibilityReason
		err    error
	}{
		{"allowed", EligibilityInput{SignedIn: true, IsActive: true, Deadline: deadline, Now: testNow}, EligibilityGranted, nil},
		{"deadline instant still open", EligibilityInput{SignedIn: true, IsActive: true, Deadline: testNow, Now: testNow}, EligibilityGranted, nil},
		{"guest", EligibilityInput{IsActive: true, Deadline: deadline, Now: testNow}, ReasonSignInRequired, ErrSignInRequired},
		{"inactive", EligibilityInput{SignedIn: true, Deadline: deadline, Now: testNow}, ReasonRegistrationClosed, ErrRegistrationClosed},
		{"late", EligibilityInput{SignedIn: true, IsActive: true, Deadline: testNow, Now: testNow.Add(time.Nanosecond)}, ReasonDeadlinePassed, ErrDeadlinePassed},
		{"guest wins over inactive", EligibilityInput{Deadline: testNow, Now: deadline}, ReasonSignInRequired, ErrSignInRequired},
		{"inactive wins over late", EligibilityInput{SignedIn: true, Deadline: testNow, Now: deadline}, ReasonRegistrationClosed, ErrRegistrationClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckEligibility(tt.in)
			require.Equal(t, tt.reason, got.Reason)
			require.Equal(t, tt.reason == EligibilityGranted, got.Allowed)
			require.Equal(t, tt.err, got.Err())
			if !got.Allowed {
				require.NotEmpty(t, got.Title)
				require.NotEmpty(t, got.Message)
			}
		})
	}
}

func TestCheckEligibilityRuleOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := EligibilityInput{
			SignedIn: rapid.Bool().Draw(t, "signedIn"),
			IsActive: rapid.Bool().Draw(t, "isActive"),
			Deadline: testNow.Add(time.Duration(rapid.Int64Range(-1e12, 1e12).Draw(t, "offset"))),
			Now:      testNow,
		}
		got := CheckEligibility(in)

		var want EligibilityReason
		switch {
		case !in.SignedIn:
			want = ReasonSignInRequired
		case !in.IsActive:
			want = ReasonRegistrationClosed
		case in.Now.After(in.Deadline):
			want = ReasonDeadlinePassed
		}
		if got.Reason != want {
			t.Fatalf("reason = %q, want %q", got.Reason, want)
		}
		if got.Allowed != (want == EligibilityGranted) {
			t.Fatalf("allowed = %v for reason %q", got.Allowed, want)
		}
	})
}

func TestEventEligibilityTreatsEmptySubjectAsGuest(t *testing.T) {
	event := individualEvent(1)
	require.Equal(t, ReasonSignInRequired, EventEligibility(&event, nil, testNow).Reason)
	require.Equal(t, ReasonSignInRequired, EventEligibility(&event, testIdentity(""), testNow).Reason)
	require.True(t, EventEligibility(&event, testIdentity("u1"), testNow).Allowed)
}
