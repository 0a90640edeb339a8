package models

import (
	"testing"

	"github.com/mr1hm/civic-eye/internal/geo"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"pothole", CategoryPothole, false},
		{" Graffiti ", CategoryGraffiti, false},
		{"STREETLIGHT", CategoryStreetlight, false},
		{"other", CategoryOther, false},
		{"flood", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"reported", "in-progress", "solved"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseStatus("closed"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusReported, StatusInProgress, true},
		{StatusInProgress, StatusReported, true},
		{StatusReported, StatusSolved, false},
		{StatusInProgress, StatusSolved, false},
		{StatusSolved, StatusReported, false},
		{StatusSolved, StatusInProgress, false},
		{StatusReported, StatusReported, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIssue_Location(t *testing.T) {
	var issue Issue
	if issue.Location() != nil {
		t.Fatal("expected nil location for issue without coordinates")
	}

	issue.SetLocation(&geo.Coordinate{Latitude: 51.5, Longitude: -0.12})
	loc := issue.Location()
	if loc == nil || loc.Latitude != 51.5 || loc.Longitude != -0.12 {
		t.Errorf("unexpected location %v", loc)
	}

	issue.SetLocation(nil)
	if issue.Latitude != nil || issue.Longitude != nil {
		t.Error("expected coordinates to be cleared")
	}
}
