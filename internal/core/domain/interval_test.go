package domain

import (
	"testing"
	"time"
)

func TestNextSyncFrom(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		interval string
		want     time.Time
	}{
		{"hours", "6h", now.Add(6 * time.Hour)},
		{"days", "2d", now.Add(48 * time.Hour)},
		{"minutes", "30m", now.Add(30 * time.Minute)},
		{"zero", "0h", now},
		{"empty falls back", "", now.Add(24 * time.Hour)},
		{"unknown unit falls back", "5x", now.Add(24 * time.Hour)},
		{"garbage falls back", "abc", now.Add(24 * time.Hour)},
		{"whitespace falls back", " 6h", now.Add(24 * time.Hour)},
		{"uppercase unit falls back", "6H", now.Add(24 * time.Hour)},
		{"negative falls back", "-1h", now.Add(24 * time.Hour)},
		{"seconds unsupported", "10s", now.Add(24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextSyncFrom(tt.interval, now)
			if !got.Equal(tt.want) {
				t.Errorf("NextSyncFrom(%q) = %v, want %v", tt.interval, got, tt.want)
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	if d, ok := ParseInterval("15m"); !ok || d != 15*time.Minute {
		t.Errorf("expected 15m, got %v (ok=%v)", d, ok)
	}
	if _, ok := ParseInterval("15"); ok {
		t.Error("expected missing unit to fail")
	}
}
