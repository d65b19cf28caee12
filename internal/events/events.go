package events

import "time"

// AssignmentRequestEvent asks the engine to decide an assignment for one
// ticket. The similar-ticket list comes pre-computed from the retrieval
// service upstream.
type AssignmentRequestEvent struct {
	TicketID    string              `json:"ticket_id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Priority    string              `json:"priority"`
	Category    string              `json:"category,omitempty"`
	Similar     []SimilarTicketItem `json:"similar_tickets,omitempty"`
	Source      string              `json:"source,omitempty"`
}

type SimilarTicketItem struct {
	AssigneeEmail   string     `json:"assignee_email"`
	SimilarityScore float64    `json:"similarity_score"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

type DecisionEvent struct {
	TicketID        string    `json:"ticket_id"`
	AssignmentType  string    `json:"assignment_type"`
	PrimaryAssignee string    `json:"primary_assignee,omitempty"`
	Confidence      float64   `json:"confidence"`
	AppliedRules    []string  `json:"applied_rules"`
	DecidedAt       time.Time `json:"decided_at"`
}

type AssignmentFailedEvent struct {
	TicketID string `json:"ticket_id"`
	Error    string `json:"error"`
}
