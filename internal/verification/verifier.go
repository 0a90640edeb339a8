package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mr1hm/civic-eye/internal/exif"
	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/observability"
	"github.com/mr1hm/civic-eye/internal/photo"
)

const (
	DefaultTimeout = 5 * time.Second

	confidenceGPSConfirmed = 0.95
	confidenceGPSRejected  = 0.1

	technicalErrorMessage = "Verification failed due to technical error"
)

// ErrVerificationInconclusive is recorded in Details.Reason when no evidence
// source clears its threshold.
var ErrVerificationInconclusive = errors.New("verification inconclusive")

type Stage string

const (
	StageStart           Stage = "start"
	StageGPSChecked      Stage = "gps_checked"
	StageVisuallyChecked Stage = "visually_checked"
	StageDone            Stage = "done"
)

type Request struct {
	OriginalPhotoURL string
	SolutionPhotoURL string
	OriginalLocation *geo.Coordinate
}

type Result struct {
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
	Details    Details `json:"details"`
}

type Details struct {
	Method           Method          `json:"method"`
	DistanceMeters   *float64        `json:"distanceMeters,omitempty"`
	SolutionLocation *geo.Coordinate `json:"solutionLocation,omitempty"`
	GPS              *Verdict        `json:"gps,omitempty"`
	Similarity       *float64        `json:"similarity,omitempty"`
	Features         []string        `json:"features,omitempty"`
	Stages           []Stage         `json:"stages"`
	Reason           string          `json:"reason,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// TechnicalError reports whether the result stems from a failure to gather
// evidence rather than from the evidence itself.
func (r Result) TechnicalError() bool {
	return r.Details.Error != ""
}

// Verifier runs GPS verification with visual fallback. It holds no mutable
// state and is safe for concurrent use.
type Verifier struct {
	fetcher  photo.Fetcher
	analyzer SimilarityAnalyzer
	policy   Policy
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

type Option func(*Verifier)

func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

func New(fetcher photo.Fetcher, analyzer SimilarityAnalyzer, policy Policy, opts ...Option) *Verifier {
	v := &Verifier{
		fetcher:  fetcher,
		analyzer: analyzer,
		policy:   policy,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) Policy() Policy {
	return v.policy
}

// Verify produces exactly one Result for the request. The only error returned
// is ErrInvalidCoordinate for a malformed OriginalLocation; every other
// failure is reported as an unverified Result with Details.Error set.
func (v *Verifier) Verify(ctx context.Context, req Request) (Result, error) {
	if req.OriginalLocation != nil {
		if err := req.OriginalLocation.Validate(); err != nil {
			return Result{}, err
		}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		done <- v.run(ctx, req)
	}()

	var res Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = technicalError([]Stage{StageStart}, fmt.Errorf("verification timed out: %w", ctx.Err()))
	}

	v.observe(res, time.Since(start))
	return res, nil
}

func (v *Verifier) run(ctx context.Context, req Request) (res Result) {
	stages := []Stage{StageStart}
	defer func() {
		if r := recover(); r != nil {
			res = technicalError(stages, fmt.Errorf("panic during verification: %v", r))
		}
	}()

	solution, err := v.fetch(ctx, "solution", req.SolutionPhotoURL)
	if err != nil {
		return technicalError(stages, fmt.Errorf("fetch solution photo: %w", err))
	}

	meta := exif.ExtractBytes(solution)
	verdict, err := v.policy.Validate(meta, req.OriginalLocation)
	if err != nil {
		return technicalError(stages, err)
	}
	stages = append(stages, StageGPSChecked)

	details := Details{
		Method:           MethodGPS,
		DistanceMeters:   verdict.DistanceMeters,
		SolutionLocation: meta.Location(),
		GPS:              &verdict,
	}

	switch verdict.Tier {
	case TierConfirmed:
		details.Stages = append(stages, StageDone)
		return Result{
			Verified:   true,
			Confidence: confidenceGPSConfirmed,
			Message:    "GPS coordinates confirm same location",
			Details:    details,
		}
	case TierRejected:
		details.Stages = append(stages, StageDone)
		details.Reason = ErrVerificationInconclusive.Error()
		return Result{
			Confidence: confidenceGPSRejected,
			Message:    fmt.Sprintf("Photos taken %s apart - too far to be same location", FormatDistance(*verdict.DistanceMeters)),
			Details:    details,
		}
	}

	original, err := v.fetch(ctx, "original", req.OriginalPhotoURL)
	if err != nil {
		return technicalError(stages, fmt.Errorf("fetch original photo: %w", err))
	}
	sim, err := v.analyzer.Compare(ctx, original, solution)
	if err != nil {
		return technicalError(stages, fmt.Errorf("visual analysis: %w", err))
	}
	score := clamp01(sim.Score)
	stages = append(stages, StageVisuallyChecked)

	verified, message := Judge(Similarity{Score: score, Features: sim.Features}, v.policy)
	details.Method = MethodVisual
	details.Similarity = &score
	details.Features = sim.Features
	details.Stages = append(stages, StageDone)
	if !verified {
		details.Reason = ErrVerificationInconclusive.Error()
	}
	return Result{
		Verified:   verified,
		Confidence: score,
		Message:    message,
		Details:    details,
	}
}

func (v *Verifier) fetch(ctx context.Context, role, url string) ([]byte, error) {
	data, err := v.fetcher.Fetch(ctx, url)
	if v.metrics != nil {
		v.metrics.PhotoFetches.WithLabelValues(role, observability.Outcome(err)).Inc()
	}
	return data, err
}

func (v *Verifier) observe(res Result, elapsed time.Duration) {
	outcome := "rejected"
	switch {
	case res.TechnicalError():
		outcome = "error"
		v.logger.Warn("verification technical error", "error", res.Details.Error, "stages", res.Details.Stages)
	case res.Verified:
		outcome = "verified"
	}
	v.logger.Info("verification complete",
		"method", res.Details.Method,
		"verified", res.Verified,
		"confidence", res.Confidence,
		"duration", elapsed,
	)
	if v.metrics != nil {
		v.metrics.Verifications.WithLabelValues(string(res.Details.Method), outcome).Inc()
		v.metrics.VerificationDuration.Observe(elapsed.Seconds())
	}
}

func technicalError(stages []Stage, err error) Result {
	return Result{
		Message: technicalErrorMessage,
		Details: Details{
			Method: MethodNone,
			Stages: append(stages, StageDone),
			Error:  err.Error(),
		},
	}
}
