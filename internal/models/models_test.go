package models

import (
	"testing"
	"time"
)

func TestNextDue(t *testing.T) {
	tests := []struct {
		name    string
		cadence Cadence
		opened  time.Time
		want    time.Time
	}{
		{
			name:    "daily",
			cadence: CadenceDaily,
			opened:  time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "daily at midnight",
			cadence: CadenceDaily,
			opened:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "weekly",
			cadence: CadenceWeekly,
			opened:  time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 1, 18, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "monthly",
			cadence: CadenceMonthly,
			opened:  time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "non-UTC input",
			cadence: CadenceDaily,
			opened:  time.Date(2026, 1, 1, 23, 0, 0, 0, time.FixedZone("WAT", 3600)),
			want:    time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cadence.NextDue(tt.opened)
			if err != nil {
				t.Fatalf("NextDue() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextDue() = %v, want %v", got, tt.want)
			}
			if got.Sub(tt.opened) < 24*time.Hour {
				t.Errorf("deadline %v is less than a day after %v", got, tt.opened)
			}
		})
	}

	if _, err := Cadence("HOURLY").NextDue(time.Now()); err == nil {
		t.Error("expected error for unknown cadence")
	}
}

func TestBeneficiary(t *testing.T) {
	g := &Group{RotationOrder: []string{"m1", "m2", "m3"}}

	tests := []struct {
		seq    int
		want   string
		wantOK bool
	}{
		{seq: 0, wantOK: false},
		{seq: 1, want: "m1", wantOK: true},
		{seq: 3, want: "m3", wantOK: true},
		{seq: 4, want: "m1", wantOK: true},
		{seq: 8, want: "m2", wantOK: true},
	}
	for _, tt := range tests {
		got, ok := g.Beneficiary(tt.seq)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Beneficiary(%d) = %q, %v; want %q, %v", tt.seq, got, ok, tt.want, tt.wantOK)
		}
	}

	if _, ok := (&Group{}).Beneficiary(1); ok {
		t.Error("expected no beneficiary without an order")
	}
}

func TestStatusValidation(t *testing.T) {
	for _, s := range []GroupStatus{GroupActive, GroupSuspended, GroupClosed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if GroupStatus("ARCHIVED").Valid() {
		t.Error("ARCHIVED should be invalid")
	}
	if !PenaltyAbsence.Valid() || PenaltyReason("").Valid() {
		t.Error("penalty reason validation")
	}
	if !OrderRandom.Valid() || OrderingMode("ALPHA").Valid() {
		t.Error("ordering mode validation")
	}
}
