package verification

import (
	"errors"
	"fmt"
	"math"

	"github.com/mr1hm/civic-eye/internal/exif"
	"github.com/mr1hm/civic-eye/internal/geo"
)

type Method string

const (
	MethodGPS     Method = "GPS"
	MethodVisual  Method = "Visual"
	MethodCurrent Method = "Current"
	MethodNone    Method = "None"
)

type Tier string

const (
	TierConfirmed    Tier = "confirmed"
	TierCorroborate  Tier = "corroborate"
	TierRejected     Tier = "rejected"
	TierInconclusive Tier = "inconclusive"
	TierUnverifiable Tier = "unverifiable"

	// Preview-only tiers.
	TierAcceptable Tier = "acceptable"
	TierWarning    Tier = "warning"
)

// Policy holds the distance and similarity cutoffs. All radii are meters.
type Policy struct {
	ConfirmRadius       float64
	CorroborateRadius   float64
	PreviewAcceptRadius float64
	PreviewWarnRadius   float64
	HighSimilarity      float64
	MinSimilarity       float64
}

func DefaultPolicy() Policy {
	return Policy{
		ConfirmRadius:       50,
		CorroborateRadius:   100,
		PreviewAcceptRadius: 200,
		PreviewWarnRadius:   1000,
		HighSimilarity:      0.8,
		MinSimilarity:       0.6,
	}
}

// CheckThresholds reports whether the radii and similarity cutoffs are
// consistently ordered.
func (p Policy) CheckThresholds() error {
	if p.ConfirmRadius <= 0 || p.CorroborateRadius <= p.ConfirmRadius {
		return errors.New("corroborate radius must exceed a positive confirm radius")
	}
	if p.PreviewAcceptRadius < p.ConfirmRadius || p.PreviewWarnRadius <= p.PreviewAcceptRadius {
		return errors.New("preview radii must satisfy confirm <= accept < warn")
	}
	if p.MinSimilarity < 0 || p.HighSimilarity > 1 || p.MinSimilarity > p.HighSimilarity {
		return errors.New("similarity thresholds must satisfy 0 <= min <= high <= 1")
	}
	return nil
}

type Verdict struct {
	IsValid        bool     `json:"isValid"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
	Message        string   `json:"message"`
	Method         Method   `json:"method"`
	Tier           Tier     `json:"tier"`
	Advisory       bool     `json:"advisory"`
}

// Validate grades photo GPS against the original issue location. This is the
// check that gates the transition to solved.
func (p Policy) Validate(meta exif.Metadata, reference *geo.Coordinate) (Verdict, error) {
	if reference == nil {
		return Verdict{
			IsValid: true,
			Message: "Original issue location unknown - location could not be verified",
			Method:  MethodNone,
			Tier:    TierUnverifiable,
		}, nil
	}
	if err := reference.Validate(); err != nil {
		return Verdict{}, err
	}
	if !meta.HasGPS {
		return Verdict{
			Message: "No GPS data in photo - location must be confirmed visually",
			Method:  MethodNone,
			Tier:    TierInconclusive,
		}, nil
	}

	d, err := geo.Distance(meta.Coordinate, *reference)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{DistanceMeters: &d, Method: MethodGPS}
	switch {
	case d <= p.ConfirmRadius:
		v.IsValid = true
		v.Tier = TierConfirmed
		v.Message = fmt.Sprintf("Photo location verified (%s from original issue location)", FormatDistance(d))
	case d <= p.CorroborateRadius:
		v.IsValid = true
		v.Tier = TierCorroborate
		v.Message = fmt.Sprintf("Photo taken %s from original issue location - visual confirmation required", FormatDistance(d))
	default:
		v.Tier = TierRejected
		v.Message = fmt.Sprintf("Photo location too far (%s from original issue location)", FormatDistance(d))
	}
	return v, nil
}

// Preview grades photo GPS against the device's current location for
// pre-submission feedback. Its verdicts are advisory: a photo without GPS is
// accepted on the strength of the device location alone, which the
// authoritative Validate never does.
func (p Policy) Preview(meta exif.Metadata, current *geo.Coordinate) (Verdict, error) {
	if current == nil {
		return Verdict{}, fmt.Errorf("current location required: %w", geo.ErrInvalidCoordinate)
	}
	if err := current.Validate(); err != nil {
		return Verdict{}, err
	}
	if !meta.HasGPS {
		return Verdict{
			IsValid:  true,
			Message:  "No GPS data in photo - using current location",
			Method:   MethodCurrent,
			Tier:     TierUnverifiable,
			Advisory: true,
		}, nil
	}

	d, err := geo.Distance(meta.Coordinate, *current)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{DistanceMeters: &d, Method: MethodGPS, Advisory: true}
	switch {
	case d <= p.ConfirmRadius:
		v.IsValid = true
		v.Tier = TierConfirmed
		v.Message = fmt.Sprintf("Photo location verified (%dm from current location)", int(math.Round(d)))
	case d <= p.PreviewAcceptRadius:
		v.IsValid = true
		v.Tier = TierAcceptable
		v.Message = fmt.Sprintf("Photo location acceptable (%dm from current location)", int(math.Round(d)))
	case d <= p.PreviewWarnRadius:
		v.Tier = TierWarning
		v.Message = fmt.Sprintf("Warning: Photo taken %dm away from current location", int(math.Round(d)))
	default:
		v.Tier = TierRejected
		v.Message = fmt.Sprintf("Photo location too far (%.1fkm away)", d/1000)
	}
	return v, nil
}

// Judge maps a similarity result onto a verdict. The confidence of a visual
// verdict is the score itself.
func Judge(sim Similarity, p Policy) (bool, string) {
	switch score := sim.Score; {
	case score >= p.HighSimilarity:
		return true, "High visual similarity confirms same location"
	case score >= p.MinSimilarity:
		return true, "Good visual similarity indicates same location"
	default:
		return false, "Visual analysis suggests different locations"
	}
}

func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.2fkm", meters/1000)
}
