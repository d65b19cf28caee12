package engine

import (
	"fmt"

	"github.com/northdesk/triage/internal/scoring"
)

// confidenceFactors are the five checks that back the confidence score.
// Each contributes exactly one fifth; confidence is their pass fraction.
type confidenceFactors struct {
	StrongSimilarity bool
	SkillMatch       bool
	Available        bool
	ClearMargin      bool
	TimezoneViable   bool
}

func (f confidenceFactors) score() float64 {
	n := 0
	for _, pass := range []bool{f.StrongSimilarity, f.SkillMatch, f.Available, f.ClearMargin, f.TimezoneViable} {
		if pass {
			n++
		}
	}
	return float64(n) / 5.0
}

func (e *Engine) assessConfidence(ranked []scoring.Candidate) confidenceFactors {
	top := ranked[0]
	f := confidenceFactors{
		StrongSimilarity: top.SimilarityScore > e.cfg.ConfidenceSimilarityBar,
		SkillMatch:       top.SkillScore > e.cfg.ConfidenceSkillBar,
		Available:        top.AvailabilityScore > e.cfg.ConfidenceAvailabilityBar,
		TimezoneViable:   top.TimezoneScore >= e.cfg.ConfidenceTimezoneBar,
	}
	// A lone candidate has no margin over anyone; the factor fails.
	if len(ranked) > 1 {
		f.ClearMargin = top.Composite-ranked[1].Composite > e.cfg.ConfidenceMarginBar
	}
	return f
}

// applyConfidenceGate is the last pipeline stage. Low confidence flips
// the decision to human review; borderline confidence keeps the
// assignment but loops in the team lead.
func (e *Engine) applyConfidenceGate(d *Decision, ranked []scoring.Candidate) {
	factors := e.assessConfidence(ranked)
	d.Confidence = factors.score()

	switch {
	case d.Confidence < e.cfg.ConfidenceLow:
		d.review(newReviewTrigger(ReasonLowConfidence, SeverityMedium))
	case d.Confidence < e.cfg.ConfidenceMedium:
		d.AppliedRules = append(d.AppliedRules, RuleTeamLeadNotification)
		d.Reasoning = append(d.Reasoning, fmt.Sprintf(
			"confidence %.2f is borderline, team lead notified", d.Confidence))
	}
}
