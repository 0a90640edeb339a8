// Package verification decides whether a "solved" photo was taken at the same
// place as the original issue report.
//
// Three pieces cooperate:
//
//   - Policy.Validate grades GPS evidence against the original issue location
//     into tiers (confirmed, corroborate, rejected, inconclusive, unverifiable).
//     Policy.Preview is the lenient variant shown to a submitting user before
//     upload; its verdicts are marked Advisory and never gate a status change.
//   - A SimilarityAnalyzer scores how alike the two photos look. HashAnalyzer
//     compares perceptual and difference hashes and is deterministic.
//   - Verifier sequences both into exactly one Result per call.
package verification
