package api

import (
	"github.com/mr1hm/civic-eye/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders located issues as points. Issues without a location
// cannot be placed on the map and are skipped.
func toGeoJSON(issues []models.Issue) FeatureCollection {
	features := make([]Feature, 0, len(issues))

	for _, issue := range issues {
		loc := issue.Location()
		if loc == nil {
			continue
		}
		props := map[string]any{
			"id":         issue.ID,
			"category":   issue.Category,
			"status":     issue.Status,
			"notes":      issue.Notes,
			"photo_url":  issue.PhotoURL,
			"created_at": issue.CreatedAt,
		}
		if issue.SolvedAt != nil {
			props["solved_at"] = *issue.SolvedAt
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{loc.Longitude, loc.Latitude},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
