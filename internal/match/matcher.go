package match

import (
	"fmt"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// DefaultMinConfidence is the score a candidate must exceed to be accepted.
const DefaultMinConfidence = 75

// Matcher selects the best destination candidate for a source track.
type Matcher struct {
	MinConfidence int
	Scorer        Scorer // Defaults to [TokenSortRatio]
}

// NewMatcher returns a Matcher using [TokenSortRatio].
func NewMatcher(minConfidence int) (*Matcher, error) {
	m := &Matcher{MinConfidence: minConfidence, Scorer: TokenSortRatio}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that MinConfidence lies within 0..100.
func (m *Matcher) Validate() error {
	if m.MinConfidence < 0 || m.MinConfidence > 100 {
		return fmt.Errorf("%w: min confidence must be within 0..100, got %d", shared.ErrInvalidConfig, m.MinConfidence)
	}
	return nil
}

// BestMatch scores every candidate against desired and returns the outcome.
//
// The first candidate with the highest score wins. It is accepted only when its score is strictly greater than
// MinConfidence; otherwise the result is unmatched and carries the rejected score.
func (m *Matcher) BestMatch(desired models.Track, candidates []models.Candidate) models.MatchResult {
	if len(candidates) == 0 {
		result := models.Unmatched(0)
		result.Source = desired
		return result
	}

	score := m.Scorer
	if score == nil {
		score = TokenSortRatio
	}

	query := Normalize(desired)
	best, bestScore := -1, -1
	for i, c := range candidates {
		if s := score(query, Normalize(c.Track)); s > bestScore {
			best, bestScore = i, s
		}
	}

	var result models.MatchResult
	if bestScore > m.MinConfidence {
		result = models.Matched(candidates[best], bestScore)
	} else {
		result = models.Unmatched(bestScore)
	}
	result.Source = desired
	return result
}
