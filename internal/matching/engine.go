package matching

import (
	"math"

	"curator/internal/catalog"
)

// Sub-score weights for the composite confidence.
const (
	weightTitle      = 0.50
	weightArtist     = 0.30
	weightTrackCount = 0.20
)

// Classification is the tagged outcome of scoring an item against its
// candidate list.
type Classification string

const (
	ClassAutoApproved Classification = "auto_approved"
	ClassNeedsReview  Classification = "needs_review"
	ClassRejected     Classification = "rejected"
	ClassNotFound     Classification = "not_found"
)

// Local is the descriptive data extracted from the library item.
type Local struct {
	Title      string
	Artist     string
	TrackCount int
	HasArtwork bool
	Genre      string
}

// Scores holds the per-component sub-scores behind a confidence value.
type Scores struct {
	Title      float64 `json:"title"`
	Artist     float64 `json:"artist"`
	TrackCount float64 `json:"track_count"`
}

// Outcome is the result of one reconciliation pass for one item.
type Outcome struct {
	Matched        bool
	Best           *catalog.Candidate
	Confidence     float64
	Scores         Scores
	Classification Classification
	Corrections    []Correction
}

// Thresholds carries the configurable classification floors.
type Thresholds struct {
	AutoApprove float64
	Review      float64
}

// Engine scores candidates and classifies outcomes. It holds only
// thresholds, so a single engine can be shared across workers.
type Engine struct {
	thresholds Thresholds
}

func NewEngine(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Match scores every candidate against the local data and returns the best
// one with its confidence. The first candidate wins ties, so a fixed input
// list always produces the same outcome. An empty candidate list yields a
// not_found outcome with no best candidate.
func (e *Engine) Match(local Local, candidates []catalog.Candidate) Outcome {
	if len(candidates) == 0 {
		return Outcome{Classification: ClassNotFound}
	}

	var best *catalog.Candidate
	var bestScores Scores
	bestConfidence := -1.0
	for i := range candidates {
		scores := e.score(local, &candidates[i])
		confidence := weightTitle*scores.Title + weightArtist*scores.Artist + weightTrackCount*scores.TrackCount
		if confidence > bestConfidence {
			best = &candidates[i]
			bestScores = scores
			bestConfidence = confidence
		}
	}

	outcome := Outcome{
		Matched:    true,
		Best:       best,
		Confidence: bestConfidence,
		Scores:     bestScores,
	}
	switch {
	case bestConfidence >= e.thresholds.AutoApprove:
		outcome.Classification = ClassAutoApproved
	case bestConfidence >= e.thresholds.Review:
		outcome.Classification = ClassNeedsReview
	default:
		outcome.Classification = ClassRejected
		outcome.Matched = false
	}
	return outcome
}

func (e *Engine) score(local Local, candidate *catalog.Candidate) Scores {
	return Scores{
		Title:      titleScore(local.Title, candidate.Title),
		Artist:     artistScore(local.Artist, candidate.Artist),
		TrackCount: trackCountScore(local.TrackCount, candidate.TrackCount),
	}
}

func titleScore(local, candidate string) float64 {
	a := Normalize(local)
	b := Normalize(candidate)
	if a == b {
		return 1.0
	}
	return Similarity(a, b)
}

// artistScore is lenient with compilations: if both sides mention
// "various" they count as the same artist no matter what else they say.
func artistScore(local, candidate string) float64 {
	a := Normalize(local)
	b := Normalize(candidate)
	if containsToken(a, "various") && containsToken(b, "various") {
		return 1.0
	}
	if a == b {
		return 1.0
	}
	return Similarity(a, b)
}

// trackCountScore applies a tolerance ladder. An unknown count on either
// side is neutral (0.5) rather than a penalty; compilations frequently
// report partial listings.
func trackCountScore(local, candidate int) float64 {
	switch {
	case local == 0 || candidate == 0:
		return 0.5
	case local == candidate:
		return 1.0
	}
	diff := local - candidate
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return 0.9
	case diff <= 5:
		return 0.7
	}
	larger := local
	if candidate > larger {
		larger = candidate
	}
	return math.Max(0, 1-float64(diff)/float64(larger))
}
