package common

import (
	"math"
	"testing"
)

func assertEqual(t *testing.T, expected, actual interface{}, msg string) {
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func assertClose(t *testing.T, expected, actual, tolerance float64, msg string) {
	if math.Abs(expected-actual) > tolerance {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func TestPayoutRatio(t *testing.T) {
	tests := []struct {
		name     string
		price    int
		expected float64
		wantErr  bool
	}{
		{name: "Plus 200 pays 2x", price: 200, expected: 2.0},
		{name: "Plus 150 pays 1.5x", price: 150, expected: 1.5},
		{name: "Minus 150 pays 0.6667x", price: -150, expected: 0.6667},
		{name: "Minus 110 pays 0.9091x", price: -110, expected: 0.9091},
		{name: "Even money plus 100", price: 100, expected: 1.0},
		{name: "Zero odds rejected", price: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, err := PayoutRatio(tt.price)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for price %d", tt.price)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertClose(t, tt.expected, ratio, 0.0001, tt.name)
		})
	}
}

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name     string
		price    int
		expected float64
		wantErr  bool
	}{
		{name: "Plus 150 converts to 2.50", price: 150, expected: 2.50},
		{name: "Minus 150 converts to 1.6667", price: -150, expected: 1.6667},
		{name: "Minus 110 converts to 1.9091", price: -110, expected: 1.9091},
		{name: "Plus 100 converts to 2.00", price: 100, expected: 2.00},
		{name: "Zero odds rejected", price: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decimal, err := AmericanToDecimal(tt.price)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for price %d", tt.price)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertClose(t, tt.expected, decimal, 0.0001, tt.name)
		})
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		name     string
		decimal  float64
		expected int
		wantErr  bool
	}{
		{name: "2.50 converts to plus 150", decimal: 2.50, expected: 150},
		{name: "1.6667 converts to minus 150", decimal: 1.6667, expected: -150},
		{name: "2.00 is even money", decimal: 2.00, expected: 100},
		{name: "1.9091 converts to minus 110", decimal: 1.9091, expected: -110},
		{name: "Below 1.0 rejected", decimal: 0.9, wantErr: true},
		{name: "Exactly 1.0 rejected", decimal: 1.0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			american, err := DecimalToAmerican(tt.decimal)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for decimal %v", tt.decimal)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertEqual(t, tt.expected, american, tt.name)
		})
	}
}

func TestAmericanDecimalRoundTrip(t *testing.T) {
	prices := []int{-250, -150, -110, 100, 130, 150, 200, 450}

	for _, price := range prices {
		decimal, err := AmericanToDecimal(price)
		if err != nil {
			t.Fatalf("AmericanToDecimal(%d): %v", price, err)
		}
		back, err := DecimalToAmerican(decimal)
		if err != nil {
			t.Fatalf("DecimalToAmerican(%v): %v", decimal, err)
		}
		assertEqual(t, price, back, "round trip")
	}
}

func TestCalculateParlayOddsMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		legs     []int
		expected float64
		wantErr  bool
	}{
		{
			name:     "Two leg parlay minus 110 plus 150",
			legs:     []int{-110, 150},
			expected: 4.7727,
		},
		{
			name:     "Two even money legs",
			legs:     []int{100, 100},
			expected: 4.0,
		},
		{
			name:     "Three favorites",
			legs:     []int{-200, -200, -200},
			expected: 3.375,
		},
		{
			name:    "Empty legs rejected",
			legs:    []int{},
			wantErr: true,
		},
		{
			name:    "Zero leg rejected",
			legs:    []int{-110, 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			multiplier, err := CalculateParlayOddsMultiplier(tt.legs)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for legs %v", tt.legs)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertClose(t, tt.expected, multiplier, 0.0001, tt.name)
		})
	}
}

func TestCalculateParlayPayout(t *testing.T) {
	payout := CalculateParlayPayout(100, 4.7727)
	assertClose(t, 477.27, payout, 0.01, "100 stake at 4.7727x")

	payout = CalculateParlayPayout(50, 2.0)
	assertClose(t, 100.0, payout, 0.0001, "50 stake at 2x")
}

func TestFormatOdds(t *testing.T) {
	tests := []struct {
		name     string
		odds     float64
		expected string
	}{
		{name: "Positive integer gets plus sign", odds: 150, expected: "+150"},
		{name: "Negative integer keeps minus", odds: -110, expected: "-110"},
		{name: "Positive half point", odds: 7.5, expected: "+7.5"},
		{name: "Negative half point", odds: -7.5, expected: "-7.5"},
		{name: "Zero has no sign", odds: 0, expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, FormatOdds(tt.odds), tt.name)
		})
	}
}
