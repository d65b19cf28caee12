package scoring

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/northdesk/triage/internal/store"
)

// MemberState bundles one member's snapshot data for scoring.
type MemberState struct {
	Member          *store.Member
	ActiveTickets   []store.ActiveTicket
	OnLeave         bool
	RegionalHoliday bool
	GlobalHoliday   bool
	RecentCount     int
}

// Candidate captures the complete scoring output for one member.
type Candidate struct {
	MemberID uuid.UUID    `json:"member_id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Region   store.Region `json:"region,omitempty"`

	SimilarityScore   float64 `json:"similarity_score"`
	SkillScore        float64 `json:"skill_match_score"`
	AvailabilityScore float64 `json:"availability_score"`
	WorkloadScore     float64 `json:"workload_score"`
	TimezoneScore     float64 `json:"timezone_score"`
	Composite         float64 `json:"composite_score"`

	ActiveTicketCount  int     `json:"active_tickets_count"`
	RecentAssignments  int     `json:"recent_assignments_count"`
	WeightedLoad       float64 `json:"weighted_load"`
	Overloaded         bool    `json:"is_overloaded"`
	SolvedSimilarCount int     `json:"solved_similar_count"`
}

// Scorer computes the five component scores and their priority-weighted
// composite. It holds only immutable configuration.
type Scorer struct {
	weights WeightTable
	params  Params
	logger  *slog.Logger
}

func NewScorer(weights WeightTable, params Params, logger *slog.Logger) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights, params: params, logger: logger}, nil
}

// Score evaluates one member against the ticket. nowUTC is the single
// wall-clock reading captured at pipeline entry; no other time source may
// influence the result.
func (s *Scorer) Score(ms MemberState, ticket *store.Ticket, similar []store.SimilarTicket, nowUTC time.Time) (Candidate, error) {
	weights, ok := s.weights[ticket.Priority]
	if !ok {
		return Candidate{}, fmt.Errorf("no weight row for priority %s", ticket.Priority)
	}

	m := ms.Member
	c := Candidate{
		MemberID:          m.ID,
		Name:              m.Name,
		Email:             m.Email,
		Region:            store.RegionFromTimezone(m.Timezone),
		ActiveTicketCount: len(ms.ActiveTickets),
		RecentAssignments: ms.RecentCount,
	}

	c.SimilarityScore, c.SolvedSimilarCount = similarityScore(m.Email, similar)
	c.SkillScore = skillScore(m, ticket)
	c.AvailabilityScore = availabilityScore(ms)
	c.WorkloadScore, c.WeightedLoad, c.Overloaded = s.workloadScore(ms.ActiveTickets, nowUTC)
	c.TimezoneScore = s.timezoneScore(c.Region, ticket.Priority, c.SolvedSimilarCount, nowUTC)

	c.Composite = clamp(
		c.SimilarityScore*weights.Similarity+
			c.SkillScore*weights.Skill+
			c.AvailabilityScore*weights.Availability+
			c.WorkloadScore*weights.Workload+
			c.TimezoneScore*weights.Timezone,
		0, 1)

	return c, nil
}

// similarityScore combines how many of the similar tickets the member
// resolved with how similar those tickets actually were. The logarithmic
// expertise factor saturates at five matches so frequent assignees do not
// become ticket magnets: 1 match -> 0.387, 3 -> 0.774, 5+ -> 1.0.
func similarityScore(email string, similar []store.SimilarTicket) (float64, int) {
	var sum float64
	var solved int
	for _, t := range similar {
		if t.AssigneeEmail == email {
			solved++
			sum += t.SimilarityScore
		}
	}
	if solved == 0 {
		return 0, 0
	}

	expertise := math.Log(float64(solved)+1) / math.Log(6)
	if expertise > 1.0 {
		expertise = 1.0
	}
	avg := sum / float64(solved)

	return clamp(expertise*avg, 0, 1), solved
}

// skillScore matches the ticket category against the member's skill tags.
// A member with no matching tag still gets 0.2, never 0.0: a zero here
// would flag a skills gap on every decision.
func skillScore(m *store.Member, ticket *store.Ticket) float64 {
	category := strings.TrimSpace(ticket.Category)
	if category == "" {
		return 0.5
	}
	for _, skill := range m.Skills {
		if strings.EqualFold(strings.TrimSpace(skill), category) {
			return 0.9
		}
	}
	return 0.2
}

// availabilityScore is a strict binary gate: 1.0 only when the member is
// not on leave and not blocked by a regional or global holiday.
func availabilityScore(ms MemberState) float64 {
	if ms.OnLeave || ms.RegionalHoliday || ms.GlobalHoliday {
		return 0.0
	}
	return 1.0
}

// workloadScore weighs each active ticket by priority, age, and status,
// then maps the summed load onto [0, 1]. Old tickets count more (they are
// probably stuck); blocked tickets count less.
func (s *Scorer) workloadScore(tickets []store.ActiveTicket, nowUTC time.Time) (score, load float64, overloaded bool) {
	for _, t := range tickets {
		load += priorityWeight(t.Priority) * ageMultiplier(t.CreatedAt, nowUTC) * statusWeight(t.Status)
	}
	score = math.Max(0, 1.0-load/s.params.WorkloadCapacity)
	overloaded = load > s.params.OverloadThreshold
	return score, load, overloaded
}

func priorityWeight(p store.Priority) float64 {
	switch p {
	case store.PriorityCritical:
		return 3.0
	case store.PriorityHigh:
		return 2.0
	case store.PriorityLow:
		return 0.5
	default:
		return 1.0
	}
}

func ageMultiplier(createdAt, nowUTC time.Time) float64 {
	days := nowUTC.Sub(createdAt).Hours() / 24
	switch {
	case days > 7:
		return 1.5
	case days > 3:
		return 1.2
	default:
		return 1.0
	}
}

func statusWeight(s store.TicketStatus) float64 {
	switch s {
	case store.StatusInProgress:
		return 1.0
	case store.StatusBlocked:
		return 0.3
	default: // Open, Pending
		return 0.5
	}
}

// timezoneScore prefers members whose working hours cover the current UTC
// instant. Out-of-window members keep a non-zero floor, hard exclusion
// would be too rigid; Critical tickets and experts get a higher floor.
func (s *Scorer) timezoneScore(region store.Region, priority store.Priority, solved int, nowUTC time.Time) float64 {
	if region == s.params.PreferredRegion(nowUTC) {
		return 1.0
	}
	if priority == store.PriorityCritical {
		return s.params.TZBoostCritical
	}
	if solved >= s.params.ExpertSolvedCount {
		return s.params.TZBoostExpert
	}
	return 0.2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
