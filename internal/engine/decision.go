package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/northdesk/triage/internal/scoring"
	"github.com/northdesk/triage/internal/store"
)

type AssignmentType string

const (
	AssignmentNormal      AssignmentType = "normal"
	AssignmentHumanReview AssignmentType = "human_review"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Human-review trigger reasons.
const (
	ReasonNoSimilarPattern   = "no_similar_pattern"
	ReasonNoAvailableMembers = "no_available_members"
	ReasonTeamAtCapacity     = "team_at_capacity"
	ReasonLowConfidence      = "low_confidence_assignment"
)

// Applied-rule names, in pipeline order.
const (
	RuleOverloadPrevention   = "overload_prevention"
	RuleTimezoneVsExpertise  = "timezone_vs_expertise"
	RuleFairDistribution     = "fair_distribution"
	RuleSkillsGap            = "skills_gap_detected"
	RuleTeamLeadNotification = "team_lead_notification"
)

// ReviewTrigger describes one escalation to a human. Every trigger
// carries an operator-facing message.
type ReviewTrigger struct {
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
	Action   string   `json:"action"`
	Timeout  string   `json:"timeout,omitempty"`
	Message  string   `json:"message"`
}

// newReviewTrigger maps a severity onto its escalation path.
func newReviewTrigger(reason string, severity Severity) ReviewTrigger {
	t := ReviewTrigger{Reason: reason, Severity: severity}
	switch severity {
	case SeverityCritical:
		t.Action = "immediate_manager_escalation"
		t.Message = "Team at capacity or critical issue requires immediate attention"
	case SeverityHigh:
		t.Action = "team_consultation_email"
		t.Timeout = "1h"
		t.Message = "No similar pattern found - team input needed"
	case SeverityMedium:
		t.Action = "team_lead_review"
		t.Timeout = "15m"
		t.Message = "Low confidence assignment - team lead review requested"
	default:
		t.Action = "assign_with_note"
		t.Message = "Assignment flagged for awareness"
	}
	return t
}

// Decision is the engine's output. Exactly one of PrimaryAssignee
// (normal) or Triggers (human_review) is populated.
type Decision struct {
	TicketID        string              `json:"ticket_id"`
	Type            AssignmentType      `json:"assignment_type"`
	PrimaryAssignee string              `json:"primary_assignee,omitempty"`
	Confidence      float64             `json:"confidence"`
	AppliedRules    []string            `json:"applied_rules"`
	Reasoning       []string            `json:"reasoning"`
	Triggers        []ReviewTrigger     `json:"human_review_triggers,omitempty"`
	Candidates      []scoring.Candidate `json:"candidates,omitempty"`
	DecidedAt       time.Time           `json:"decided_at"`
}

func newDecision(ticketID string, decidedAt time.Time) *Decision {
	return &Decision{
		TicketID:     ticketID,
		Type:         AssignmentNormal,
		AppliedRules: []string{},
		Reasoning:    []string{},
		DecidedAt:    decidedAt,
	}
}

// Record flattens the decision into its persisted form. Triggers and
// candidates are stored as generic JSON documents so the history table
// survives field changes without a migration.
func (d *Decision) Record() (*store.DecisionRecord, error) {
	rec := &store.DecisionRecord{
		TicketID:        d.TicketID,
		AssignmentType:  string(d.Type),
		PrimaryAssignee: d.PrimaryAssignee,
		Confidence:      d.Confidence,
		AppliedRules:    d.AppliedRules,
		Reasoning:       d.Reasoning,
		DecidedAt:       d.DecidedAt,
	}
	if err := reencode(d.Triggers, &rec.Triggers); err != nil {
		return nil, fmt.Errorf("encode triggers: %w", err)
	}
	if err := reencode(d.Candidates, &rec.Candidates); err != nil {
		return nil, fmt.Errorf("encode candidates: %w", err)
	}
	return rec, nil
}

func reencode(src, dst interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// review converts the decision into a human-review decision. The primary
// assignee is cleared: a decision routes to a person or to a human
// reviewer, never ambiguously to both.
func (d *Decision) review(trigger ReviewTrigger) *Decision {
	d.Type = AssignmentHumanReview
	d.PrimaryAssignee = ""
	d.Triggers = append(d.Triggers, trigger)
	d.Reasoning = append(d.Reasoning,
		"Human review triggered: "+trigger.Reason+" (severity: "+string(trigger.Severity)+")")
	return d
}
