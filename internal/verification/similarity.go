package verification

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

type Similarity struct {
	Score    float64  `json:"score"`
	Features []string `json:"features,omitempty"`
}

// SimilarityAnalyzer scores how likely two photos show the same place.
// Implementations must return a score in [0,1] and honor ctx cancellation
// where they block.
type SimilarityAnalyzer interface {
	Compare(ctx context.Context, original, solution []byte) (Similarity, error)
}

// HashAnalyzer compares perceptual and difference hashes. Identical inputs
// always produce the same score.
type HashAnalyzer struct{}

func NewHashAnalyzer() *HashAnalyzer {
	return &HashAnalyzer{}
}

func (a *HashAnalyzer) Compare(ctx context.Context, original, solution []byte) (Similarity, error) {
	origImg, err := decodeImage(original)
	if err != nil {
		return Similarity{}, fmt.Errorf("decode original photo: %w", err)
	}
	solImg, err := decodeImage(solution)
	if err != nil {
		return Similarity{}, fmt.Errorf("decode solution photo: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Similarity{}, err
	}

	structure, err := hashSimilarity(goimagehash.PerceptionHash, origImg, solImg)
	if err != nil {
		return Similarity{}, fmt.Errorf("perception hash: %w", err)
	}
	edges, err := hashSimilarity(goimagehash.DifferenceHash, origImg, solImg)
	if err != nil {
		return Similarity{}, fmt.Errorf("difference hash: %w", err)
	}

	score := clamp01((structure + edges) / 2)
	return Similarity{Score: score, Features: describe(structure, edges)}, nil
}

func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

type hashFunc func(image.Image) (*goimagehash.ImageHash, error)

func hashSimilarity(fn hashFunc, a, b image.Image) (float64, error) {
	ha, err := fn(a)
	if err != nil {
		return 0, err
	}
	hb, err := fn(b)
	if err != nil {
		return 0, err
	}
	dist, err := ha.Distance(hb)
	if err != nil {
		return 0, err
	}
	bits := ha.Bits()
	if bits == 0 {
		return 0, fmt.Errorf("zero-length hash")
	}
	return 1 - float64(dist)/float64(bits), nil
}

func describe(structure, edges float64) []string {
	var features []string
	switch {
	case structure >= 0.9:
		features = append(features, "Matching scene composition")
	case structure >= 0.7:
		features = append(features, "Similar scene composition")
	default:
		features = append(features, "Different scene composition")
	}
	switch {
	case edges >= 0.9:
		features = append(features, "Matching edge layout")
	case edges >= 0.7:
		features = append(features, "Similar edge layout")
	default:
		features = append(features, "Different edge layout")
	}
	return features
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
