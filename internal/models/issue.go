package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/civic-eye/internal/geo"
)

type Category string

const (
	CategoryPothole     Category = "pothole"
	CategoryGarbage     Category = "garbage"
	CategoryStreetlight Category = "streetlight"
	CategoryGraffiti    Category = "graffiti"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryPothole,
	CategoryGarbage,
	CategoryStreetlight,
	CategoryGraffiti,
	CategoryOther,
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type Status string

const (
	StatusReported   Status = "reported"
	StatusInProgress Status = "in-progress"
	StatusSolved     Status = "solved"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusReported, StatusInProgress, StatusSolved:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// CanTransition reports whether an administrator may move an issue from one
// status to another through a plain status update. Solved is terminal and is
// only reachable through a verified solve.
func CanTransition(from, to Status) bool {
	if from == StatusSolved || to == StatusSolved {
		return false
	}
	return from != to
}

type Role string

const (
	RoleCivic Role = "civic"
	RoleAdmin Role = "admin"
)

type Issue struct {
	ID               string     `db:"id" json:"id"`
	PhotoURL         string     `db:"photo_url" json:"photoUrl"`
	Category         Category   `db:"category" json:"category"`
	Notes            string     `db:"notes" json:"notes,omitempty"`
	Status           Status     `db:"status" json:"status"`
	Latitude         *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64   `db:"longitude" json:"longitude,omitempty"`
	UserID           string     `db:"user_id" json:"userId,omitempty"`
	UserEmail        string     `db:"user_email" json:"userEmail,omitempty"`
	SolutionPhotoURL *string    `db:"solution_photo_url" json:"solutionPhotoUrl,omitempty"`
	SolutionNotes    *string    `db:"solution_notes" json:"solutionNotes,omitempty"`
	SolvedAt         *time.Time `db:"solved_at" json:"solvedAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

// Location returns the reported location, or nil when the reporter did not
// share one.
func (i *Issue) Location() *geo.Coordinate {
	if i.Latitude == nil || i.Longitude == nil {
		return nil
	}
	return &geo.Coordinate{Latitude: *i.Latitude, Longitude: *i.Longitude}
}

func (i *Issue) SetLocation(c *geo.Coordinate) {
	if c == nil {
		i.Latitude, i.Longitude = nil, nil
		return
	}
	lat, lng := c.Latitude, c.Longitude
	i.Latitude, i.Longitude = &lat, &lng
}

type Solution struct {
	PhotoURL string
	Notes    string
	SolvedAt time.Time
}
