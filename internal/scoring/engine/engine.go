// Package engine computes MEDDPICC scores. It is pure: no I/O, no clock.
package engine

import (
	"strings"

	"fulqrun/backend/internal/scoring/domain"
)

// Result is the outcome of scoring one set of answers.
type Result struct {
	Score     int
	Band      domain.Band
	Breakdown domain.Breakdown
}

// Score evaluates answers against cfg. Each pillar earns 0-10 points from
// answer depth plus keyword matches; the total is the weight-blended sum on a
// 0-100 scale.
func Score(answers domain.Answers, cfg *domain.Config) Result {
	breakdown := make(domain.Breakdown, len(domain.Pillars))
	var total float64
	for _, pillar := range domain.Pillars {
		pc := cfg.Pillars[pillar]
		points := pillarPoints(answers[pillar], pc.Keywords)
		weighted := float64(points) / 10 * float64(pc.Weight)
		breakdown[pillar] = domain.PillarScore{Points: points, Weight: pc.Weight, Weighted: weighted}
		total += weighted
	}
	score := int(total + 0.5)
	if score > 100 {
		score = 100
	}
	return Result{Score: score, Band: domain.BandFor(score), Breakdown: breakdown}
}

// pillarPoints scores one answer: 0 when empty, 4 when present, 7 at 60+
// chars, 9 at 200+ chars, plus one point per matched keyword, capped at 10.
func pillarPoints(answer string, keywords []string) int {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return 0
	}
	points := 4
	if len(trimmed) >= 60 {
		points = 7
	}
	if len(trimmed) >= 200 {
		points = 9
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			points++
		}
	}
	if points > 10 {
		points = 10
	}
	return points
}
