// Package classify suggests an issue category from the reporter's notes.
package classify

import (
	"strings"

	"github.com/mr1hm/civic-eye/internal/models"
)

const minConfidence = 0.3

type Result struct {
	Category   models.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

var keywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryPothole, []string{
		"pothole", "hole", "crack", "damage", "asphalt", "road", "street", "pavement",
		"broken", "damaged", "surface", "bump", "rough",
	}},
	{models.CategoryGarbage, []string{
		"trash", "garbage", "litter", "waste", "dump", "rubbish", "debris",
		"bottle", "can", "bag", "dirty", "mess", "overflow",
	}},
	{models.CategoryStreetlight, []string{
		"light", "lamp", "lighting", "bulb", "dark", "broken", "out", "dead",
		"flickering", "electricity", "power", "illumination",
	}},
	{models.CategoryGraffiti, []string{
		"graffiti", "tag", "spray", "paint", "vandalism", "marking", "writing",
		"drawing", "wall", "building", "defacement",
	}},
}

// Text scores notes against each category's keyword list. Ties go to the
// category listed first.
func Text(notes string) Result {
	text := strings.ToLower(notes)

	best, bestScore := models.CategoryOther, 0
	for _, k := range keywords {
		score := 0
		for _, w := range k.words {
			if strings.Contains(text, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = k.category, score
		}
	}

	confidence := min(float64(bestScore)/3, 1)
	if confidence <= minConfidence {
		return Result{
			Category:   models.CategoryOther,
			Confidence: confidence,
			Reasoning:  "No clear category detected from text analysis",
		}
	}
	return Result{
		Category:   best,
		Confidence: confidence,
		Reasoning:  "Detected keywords related to " + string(best),
	}
}
