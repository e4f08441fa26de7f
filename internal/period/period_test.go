package period

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		token   string
		days    int
		wantErr bool
	}{
		{token: "", days: 0},
		{token: "7d", days: 7},
		{token: "30d", days: 30},
		{token: "7", wantErr: true},
		{token: "d", wantErr: true},
		{token: "-7d", wantErr: true},
		{token: "7w", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			days, err := Parse(tc.token)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPeriod) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidPeriod", tc.token, err)
				}
				return
			}
			if err != nil || days != tc.days {
				t.Fatalf("Parse(%q) = %d, %v; want %d", tc.token, days, err, tc.days)
			}
		})
	}
}

func TestSinceTruncatesToStartOfDay(t *testing.T) {
	now := time.Date(2024, 3, 15, 17, 45, 12, 0, time.UTC)
	since, ok, err := Since("7d", now, time.UTC)
	if err != nil || !ok {
		t.Fatalf("Since() = %v, %v, %v", since, ok, err)
	}
	want := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	if !since.Equal(want) {
		t.Fatalf("Since() = %v, want %v", since, want)
	}
}

func TestSinceUsesReferenceTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 20:00 UTC on the 15th is already the 16th at UTC+10.
	now := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
	since, _, err := Since("7d", now, loc)
	if err != nil {
		t.Fatalf("Since() error = %v", err)
	}
	want := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	if !since.Equal(want) {
		t.Fatalf("Since() = %v, want %v", since, want)
	}
}

func TestSinceWithoutToken(t *testing.T) {
	_, ok, err := Since("", time.Now(), nil)
	if err != nil || ok {
		t.Fatalf("Since(\"\") ok = %v, err = %v; want no bound", ok, err)
	}
}
