package engine

import (
	"fmt"

	"github.com/northdesk/triage/internal/scoring"
)

// The rules run in a fixed order after ranking. Each rule sees the
// ranking as left by the previous rule; a rule either replaces the top
// candidate, annotates the decision, or escalates to human review.

// promote moves the candidate at index i to the front, preserving the
// relative order of everyone else.
func promote(ranked []scoring.Candidate, i int) []scoring.Candidate {
	if i <= 0 || i >= len(ranked) {
		return ranked
	}
	c := ranked[i]
	copy(ranked[1:i+1], ranked[0:i])
	ranked[0] = c
	return ranked
}

// checkAvailability escalates when nobody on the team can take a ticket
// at all. Runs before the reassignment rules: shuffling the ranking of
// an entirely unavailable team is pointless.
func (e *Engine) checkAvailability(d *Decision, ranked []scoring.Candidate) bool {
	for _, c := range ranked {
		if c.AvailabilityScore > 0 {
			return false
		}
	}
	d.review(newReviewTrigger(ReasonNoAvailableMembers, SeverityCritical))
	return true
}

// ruleOverloadPrevention keeps work away from members already at
// capacity. Escalates when no viable alternative exists: assigning to
// an overloaded member anyway would just create a second stuck ticket.
func (e *Engine) ruleOverloadPrevention(d *Decision, ranked []scoring.Candidate) ([]scoring.Candidate, bool) {
	top := ranked[0]
	if !top.Overloaded && top.WorkloadScore >= e.cfg.OverloadScoreFloor {
		return ranked, false
	}

	for i := 1; i < len(ranked); i++ {
		alt := ranked[i]
		if !alt.Overloaded && alt.AvailabilityScore == 1.0 && alt.WorkloadScore >= e.cfg.OverloadAltFloor {
			d.AppliedRules = append(d.AppliedRules, RuleOverloadPrevention)
			d.Reasoning = append(d.Reasoning, fmt.Sprintf(
				"%s is overloaded (weighted load %.1f), reassigned to %s", top.Email, top.WeightedLoad, alt.Email))
			return promote(ranked, i), false
		}
	}

	d.AppliedRules = append(d.AppliedRules, RuleOverloadPrevention)
	d.review(newReviewTrigger(ReasonTeamAtCapacity, SeverityCritical))
	return ranked, true
}

// ruleTimezoneVsExpertise resolves the tension between the member who
// knows the problem and the member who is awake. A large expertise lead
// wins; a narrow one yields to working hours.
func (e *Engine) ruleTimezoneVsExpertise(d *Decision, ranked []scoring.Candidate) []scoring.Candidate {
	top := ranked[0]
	if top.TimezoneScore >= 1.0 || top.SimilarityScore <= e.cfg.ExpertiseSimilarityBar {
		return ranked
	}

	for i := 1; i < len(ranked); i++ {
		alt := ranked[i]
		if alt.TimezoneScore < 1.0 {
			continue
		}
		d.AppliedRules = append(d.AppliedRules, RuleTimezoneVsExpertise)
		if diff := top.Composite - alt.Composite; diff > e.cfg.TZExpertiseGap {
			d.Reasoning = append(d.Reasoning, fmt.Sprintf(
				"%s kept despite off-hours timezone: composite lead %.2f over %s",
				top.Email, diff, alt.Email))
			return ranked
		}
		d.Reasoning = append(d.Reasoning, fmt.Sprintf(
			"reassigned to %s who is in working hours; composite gap to %s is within %.2f",
			alt.Email, top.Email, e.cfg.TZExpertiseGap))
		return promote(ranked, i)
	}
	return ranked
}

// ruleFairDistribution spreads work when the top pick has been catching
// too many tickets lately. Uses the recent assignment count when the
// store can provide one, otherwise the active ticket count.
func (e *Engine) ruleFairDistribution(d *Decision, ranked []scoring.Candidate, hasRecentCounts bool) []scoring.Candidate {
	metric := func(c scoring.Candidate) int { return c.ActiveTicketCount }
	ceiling, metricName := e.cfg.FairActiveCap, "active tickets"
	if hasRecentCounts {
		metric = func(c scoring.Candidate) int { return c.RecentAssignments }
		ceiling, metricName = e.cfg.FairRecentCap, "recent assignments"
	}

	top := ranked[0]
	if metric(top) < ceiling {
		return ranked
	}

	limit := len(ranked)
	if limit > 5 {
		limit = 5
	}
	for i := 1; i < limit; i++ {
		alt := ranked[i]
		if metric(alt) < ceiling && alt.AvailabilityScore == 1.0 {
			d.AppliedRules = append(d.AppliedRules, RuleFairDistribution)
			d.Reasoning = append(d.Reasoning, fmt.Sprintf(
				"%s has %d %s (cap %d), reassigned to %s with %d",
				top.Email, metric(top), metricName, ceiling, alt.Email, metric(alt)))
			return promote(ranked, i)
		}
	}

	d.Reasoning = append(d.Reasoning, fmt.Sprintf(
		"%s exceeds the %s cap but no ranked alternative is under it", top.Email, metricName))
	return ranked
}

// ruleSkillsGap annotates, never reassigns. A weak skill match with a
// strong composite usually means the member solved similar tickets
// before; that track record outranks the tag list.
func (e *Engine) ruleSkillsGap(d *Decision, ranked []scoring.Candidate, category string) {
	top := ranked[0]
	if top.SkillScore >= e.cfg.SkillGapFloor {
		return
	}
	d.AppliedRules = append(d.AppliedRules, RuleSkillsGap)
	d.Reasoning = append(d.Reasoning, fmt.Sprintf(
		"%s has a weak skill match (%.2f) for category %q; consider pairing or a knowledge-base pointer",
		top.Email, top.SkillScore, category))
}
