package models

import "time"

// VerificationRecord is the audit entry written for every solve attempt,
// successful or not.
type VerificationRecord struct {
	ID               string    `db:"id" json:"id"`
	IssueID          string    `db:"issue_id" json:"issueId"`
	SolutionPhotoURL string    `db:"solution_photo_url" json:"solutionPhotoUrl"`
	Verified         bool      `db:"verified" json:"verified"`
	Confidence       float64   `db:"confidence" json:"confidence"`
	Method           string    `db:"method" json:"method"`
	Message          string    `db:"message" json:"message"`
	DistanceMeters   *float64  `db:"distance_meters" json:"distanceMeters,omitempty"`
	Similarity       *float64  `db:"similarity" json:"similarity,omitempty"`
	TechnicalError   *string   `db:"technical_error" json:"technicalError,omitempty"`
	VerifiedBy       string    `db:"verified_by" json:"verifiedBy"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
