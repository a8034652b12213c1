package domain

import (
	"testing"
	"time"
)

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusProcessing, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
		{JobStatusCancelled, true},
	}
	for _, tc := range tests {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestEntityKindValid(t *testing.T) {
	for _, kind := range AllEntityKinds() {
		if !kind.Valid() {
			t.Errorf("catalog kind %s reports invalid", kind)
		}
		if kind.Label() == "" {
			t.Errorf("catalog kind %s has no label", kind)
		}
	}
	if EntityKind("invoices").Valid() {
		t.Error("unknown kind reports valid")
	}
}

func TestDateRangeCutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		rng  DateRange
		want *time.Time
	}{
		{DateRangeAll, nil},
		{DateRangeCustom, nil},
		{DateRangeYear, timePtr(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))},
		{DateRangeQuarter, timePtr(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC))},
		{DateRangeMonth, timePtr(time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC))},
	}
	for _, tc := range tests {
		got := tc.rng.Cutoff(now)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("%s.Cutoff = %v, want nil", tc.rng, got)
		case tc.want != nil && got == nil:
			t.Errorf("%s.Cutoff = nil, want %v", tc.rng, tc.want)
		case tc.want != nil && !got.Equal(*tc.want):
			t.Errorf("%s.Cutoff = %v, want %v", tc.rng, got, tc.want)
		}
	}
}

func TestEntityListRoundTrip(t *testing.T) {
	list := EntityList{EntityContacts, EntityDeals}
	value, err := list.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded EntityList
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != EntityContacts || decoded[1] != EntityDeals {
		t.Errorf("round trip = %v, want %v", decoded, list)
	}

	var empty EntityList
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Scan(nil) = %v, want empty", empty)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
