package utils

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"2h", 2 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"02:00:00", 2 * time.Hour, false},
		{"2:30", 2*time.Hour + 30*time.Minute, false},
		{"00:30:00", 30 * time.Minute, false},
		{"26:00:00", 26 * time.Hour, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1:2:3:4", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestFormatWalltime(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{2 * time.Hour, "02:00:00"},
		{90 * time.Minute, "01:30:00"},
		{26*time.Hour + 15*time.Second, "26:00:15"},
		{0, "00:00:00"},
		{-time.Hour, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatWalltime(tt.input); got != tt.expected {
			t.Errorf("FormatWalltime(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
