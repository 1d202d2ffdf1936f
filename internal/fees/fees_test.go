package fees

import (
	"errors"
	"math"
	"testing"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		in      string
		want    Rate
		wantErr bool
	}{
		{"0", 0, false},
		{"1", 100, false},
		{"1.5", 150, false},
		{"10", 1000, false},
		{"2.25", 225, false},
		{"100", 10000, false},
		{"100.01", 0, true},
		{"-1", 0, true},
		{"0.125", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRate) {
				t.Errorf("ParseRate(%q) error = %v, want ErrInvalidRate", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRate(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestRateString(t *testing.T) {
	if got := Rate(150).String(); got != "1.5" {
		t.Errorf("Rate(150).String() = %q, want 1.5", got)
	}
	if got := Rate(1000).String(); got != "10" {
		t.Errorf("Rate(1000).String() = %q, want 10", got)
	}
}

func TestTransactionFee(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   Rate
		want   int64
	}{
		{"zero rate", 1000, 0, 0},
		{"zero amount", 0, 150, 0},
		{"one percent", 1000, 100, 10},
		{"one and a half percent", 1000, 150, 15},
		{"rounds half up", 1, 5000, 1},
		{"rounds down below half", 1, 4999, 0},
		{"fractional result rounds up", 333, 150, 5}, // 4.995
		{"fractional result rounds down", 290, 150, 4}, // 4.35
		{"full rate", 1234, MaxRate, 1234},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TransactionFee(tt.amount, tt.rate)
			if err != nil {
				t.Fatalf("TransactionFee() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("TransactionFee(%d, %d) = %d, want %d", tt.amount, tt.rate, got, tt.want)
			}
		})
	}
}

func TestSplitDistribution(t *testing.T) {
	// gross 3000, 10% -> fee 300, net 2700
	fee, net, err := SplitDistribution(3000, MustParseRate("10"))
	if err != nil {
		t.Fatalf("SplitDistribution() error = %v", err)
	}
	if fee != 300 || net != 2700 {
		t.Errorf("SplitDistribution(3000, 10%%) = (%d, %d), want (300, 2700)", fee, net)
	}
}

func TestFeeErrors(t *testing.T) {
	if _, err := TransactionFee(-1, 100); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := TransactionFee(100, MaxRate+1); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("rate above 100%%: got %v, want ErrInvalidRate", err)
	}
	if _, err := DistributionFee(math.MaxInt64, 100); !errors.Is(err, ErrOverflow) {
		t.Errorf("huge amount: got %v, want ErrOverflow", err)
	}
	if _, err := TransactionFee(MaxAmount, MaxRate); err != nil {
		t.Errorf("MaxAmount at 100%%: got %v, want no error", err)
	}
	if _, err := TransactionFee(MaxAmount+1, 0); !errors.Is(err, ErrOverflow) {
		t.Errorf("MaxAmount+1: got %v, want ErrOverflow", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{150050, "EUR", "1500.50 EUR"},
		{5, "USD", "0.05 USD"},
		{25000, "XOF", "25000 XOF"},
	}
	for _, tt := range tests {
		if got := Format(tt.amount, tt.currency); got != tt.want {
			t.Errorf("Format(%d, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}
