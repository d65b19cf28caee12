package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoleUser is the role tag of members eligible for ticket assignment.
const RoleUser = "USER"

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// ParsePriority validates a priority string. Unknown values are an error,
// they must never silently fall through to a default weight row.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusInProgress TicketStatus = "InProgress"
	StatusBlocked    TicketStatus = "Blocked"
	StatusPending    TicketStatus = "Pending"
)

// Region is a coarse geographic tag used for holiday matching.
type Region string

const (
	RegionIN      Region = "IN"
	RegionUS      Region = "US"
	RegionGlobal  Region = "GLOBAL"
	RegionUnknown Region = ""
)

// RegionFromTimezone derives a member's region from their IANA timezone.
// Unknown regions are never blocked by regional holidays, only global ones.
func RegionFromTimezone(tz string) Region {
	switch {
	case strings.HasPrefix(tz, "Asia/"):
		return RegionIN
	case strings.HasPrefix(tz, "America/"):
		return RegionUS
	default:
		return RegionUnknown
	}
}

type Member struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Timezone string    `json:"timezone"`
	Role     string    `json:"role"`
	Skills   []string  `json:"skills,omitempty"`
}

// ActiveTicket is one in-flight ticket owned by a member, reduced to the
// fields workload scoring needs.
type ActiveTicket struct {
	Priority  Priority     `json:"priority"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

type LeaveRecord struct {
	MemberID  uuid.UUID `json:"member_id"`
	StartDate time.Time `json:"start_date"` // inclusive
	EndDate   time.Time `json:"end_date"`   // inclusive
}

type HolidayEntry struct {
	Date   time.Time `json:"date"`
	Region Region    `json:"region"`
}

// Ticket is the assignment input. The engine never mutates ticket state.
type Ticket struct {
	ID          string   `json:"ticket_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Category    string   `json:"category,omitempty"`
}

// SimilarTicket is one pre-computed semantic neighbour of the input ticket.
type SimilarTicket struct {
	AssigneeEmail   string     `json:"assignee_email"`
	SimilarityScore float64    `json:"similarity_score"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// DecisionRecord is the persisted form of an assignment decision. The
// trigger and candidate breakdowns are stored as JSON documents so the
// explain endpoint can replay the full decision.
type DecisionRecord struct {
	ID              uuid.UUID                `json:"id"`
	TicketID        string                   `json:"ticket_id"`
	AssignmentType  string                   `json:"assignment_type"`
	PrimaryAssignee string                   `json:"primary_assignee,omitempty"`
	Confidence      float64                  `json:"confidence"`
	AppliedRules    []string                 `json:"applied_rules"`
	Reasoning       []string                 `json:"reasoning"`
	Triggers        []map[string]interface{} `json:"human_review_triggers,omitempty"`
	Candidates      []map[string]interface{} `json:"candidates,omitempty"`
	DecidedAt       time.Time                `json:"decided_at"`
	CreatedAt       time.Time                `json:"created_at"`
}

type Store interface {
	// Snapshot queries. Each is a single batched round-trip; the engine
	// issues at most five per decision.
	ListMembers(ctx context.Context, role string) ([]*Member, error)
	ListActiveTickets(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID][]ActiveTicket, error)
	ListActiveLeaves(ctx context.Context, memberIDs []uuid.UUID, today time.Time) (map[uuid.UUID]bool, error)
	ListHolidays(ctx context.Context, date time.Time, regions []Region) ([]HolidayEntry, error)
	CountRecentAssignments(ctx context.Context, memberIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error)

	// Decision history.
	SaveDecision(ctx context.Context, rec *DecisionRecord) error
	GetDecision(ctx context.Context, ticketID string) (*DecisionRecord, error)
	DecisionStats(ctx context.Context) (map[string]int, error)

	Close() error
}
