package srs

import "testing"

func TestClampQuality(t *testing.T) {
	tests := []struct {
		in   int
		want Quality
	}{
		{-10, 0},
		{-1, 0},
		{0, 0},
		{3, 3},
		{5, 5},
		{6, 5},
		{100, 5},
	}
	for _, tt := range tests {
		if got := ClampQuality(tt.in); got != tt.want {
			t.Errorf("ClampQuality(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQuality_IsPass(t *testing.T) {
	for q := MinQuality; q <= MaxQuality; q++ {
		want := q >= 3
		if q.IsPass() != want {
			t.Errorf("Quality(%d).IsPass() = %v, want %v", q, q.IsPass(), want)
		}
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in      string
		want    Quality
		wantErr bool
	}{
		{"again", Again, false},
		{"Hard", Hard, false},
		{" GOOD ", Good, false},
		{"easy", Easy, false},
		{"3", 3, false},
		{"9", 5, false},
		{"-1", 0, false},
		{"meh", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRating(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRating(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRating(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQuality_String(t *testing.T) {
	if Good.String() != "Good" {
		t.Errorf("Good.String() = %q", Good.String())
	}
	if Quality(3).String() != "3" {
		t.Errorf("Quality(3).String() = %q", Quality(3).String())
	}
}
