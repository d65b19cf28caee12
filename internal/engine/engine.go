package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/northdesk/triage/internal/scoring"
	"github.com/northdesk/triage/internal/store"
)

// Config holds the rule and gate thresholds. Zero values are never
// valid; construct with DefaultConfig and override from configuration.
type Config struct {
	// Pre-rule gate: best similarity below this means the ticket has no
	// usable precedent and goes straight to human review.
	SimilarityFloor float64

	// Overload prevention.
	OverloadScoreFloor float64 // top pick below this workload score triggers the rule
	OverloadAltFloor   float64 // alternatives need at least this workload score

	// Timezone vs expertise.
	ExpertiseSimilarityBar float64 // similarity above this marks the top pick an expert
	TZExpertiseGap         float64 // expertise lead that overrides timezone

	// Fair distribution.
	FairRecentCap int // recent assignments at or above this triggers the rule
	FairActiveCap int // active-ticket fallback cap

	// Skills gap annotation.
	SkillGapFloor float64

	// Confidence factor bars.
	ConfidenceSimilarityBar   float64
	ConfidenceSkillBar        float64
	ConfidenceAvailabilityBar float64
	ConfidenceMarginBar       float64
	ConfidenceTimezoneBar     float64

	// Confidence bands.
	ConfidenceLow    float64 // below: human review
	ConfidenceMedium float64 // below: assign but notify team lead
}

func DefaultConfig() Config {
	return Config{
		SimilarityFloor:           0.70,
		OverloadScoreFloor:        0.3,
		OverloadAltFloor:          0.5,
		ExpertiseSimilarityBar:    0.8,
		TZExpertiseGap:            0.15,
		FairRecentCap:             5,
		FairActiveCap:             8,
		SkillGapFloor:             0.4,
		ConfidenceSimilarityBar:   0.75,
		ConfidenceSkillBar:        0.15,
		ConfidenceAvailabilityBar: 0.7,
		ConfidenceMarginBar:       0.01,
		ConfidenceTimezoneBar:     0.2,
		ConfidenceLow:             0.30,
		ConfidenceMedium:          0.50,
	}
}

// Engine turns a ticket plus its similar-ticket neighbours into an
// assignment decision. Safe for concurrent use.
type Engine struct {
	loader *Loader
	scorer *scoring.Scorer
	cfg    Config
	logger *slog.Logger

	// now is injectable so tests can pin the clock. The pipeline reads
	// it exactly once per decision.
	now func() time.Time
}

func New(st TeamStore, scorer *scoring.Scorer, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		loader: NewLoader(st, logger),
		scorer: scorer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func validateInput(ticket *store.Ticket, similar []store.SimilarTicket) error {
	if ticket == nil {
		return fmt.Errorf("%w: nil ticket", ErrInvalidInput)
	}
	if ticket.ID == "" {
		return fmt.Errorf("%w: empty ticket id", ErrInvalidInput)
	}
	if _, err := store.ParsePriority(string(ticket.Priority)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for i, st := range similar {
		if st.SimilarityScore < 0 || st.SimilarityScore > 1 {
			return fmt.Errorf("%w: similar ticket %d has similarity %.3f outside [0, 1]", ErrInvalidInput, i, st.SimilarityScore)
		}
	}
	return nil
}

func maxSimilarity(similar []store.SimilarTicket) float64 {
	best := 0.0
	for _, st := range similar {
		if st.SimilarityScore > best {
			best = st.SimilarityScore
		}
	}
	return best
}

// AssignTicket runs the full decision pipeline: pre-rule gate, snapshot,
// scoring, ranking, rules, confidence gate. It never mutates the ticket
// and returns either a decision or an error, never both.
func (e *Engine) AssignTicket(ctx context.Context, ticket *store.Ticket, similar []store.SimilarTicket) (*Decision, error) {
	start := time.Now()
	if err := validateInput(ticket, similar); err != nil {
		return nil, err
	}

	nowUTC := e.now().UTC()
	d := newDecision(ticket.ID, nowUTC)

	// A ticket without a recognizable precedent goes to humans before we
	// spend any store round-trips on it.
	if best := maxSimilarity(similar); best < e.cfg.SimilarityFloor {
		d.Reasoning = append(d.Reasoning, fmt.Sprintf(
			"best similarity %.2f is below the %.2f floor", best, e.cfg.SimilarityFloor))
		d.review(newReviewTrigger(ReasonNoSimilarPattern, SeverityHigh))
		e.logDecision(d, start)
		return d, nil
	}

	snap, err := e.loader.Load(ctx, nowUTC)
	if err != nil {
		return nil, err
	}

	candidates := make([]scoring.Candidate, 0, len(snap.Members))
	for _, ms := range snap.Members {
		c, err := e.scorer.Score(ms, ticket, similar, nowUTC)
		if err != nil {
			return nil, fmt.Errorf("%w: score %s: %v", ErrInvariant, ms.Member.Email, err)
		}
		candidates = append(candidates, c)
	}
	ranked := scoring.Rank(candidates)
	d.Candidates = ranked

	if e.checkAvailability(d, ranked) {
		e.logDecision(d, start)
		return d, nil
	}

	var escalated bool
	ranked, escalated = e.ruleOverloadPrevention(d, ranked)
	if escalated {
		d.Candidates = ranked
		e.logDecision(d, start)
		return d, nil
	}
	ranked = e.ruleTimezoneVsExpertise(d, ranked)
	ranked = e.ruleFairDistribution(d, ranked, snap.HasRecentCounts)
	e.ruleSkillsGap(d, ranked, ticket.Category)
	d.Candidates = ranked

	d.PrimaryAssignee = ranked[0].Email
	d.Reasoning = append(d.Reasoning, fmt.Sprintf(
		"selected %s: highest composite score %.3f across %d candidates",
		ranked[0].Email, ranked[0].Composite, len(ranked)))
	e.applyConfidenceGate(d, ranked)

	e.logDecision(d, start)
	return d, nil
}

func (e *Engine) logDecision(d *Decision, start time.Time) {
	e.logger.Info("assignment decided",
		"ticket_id", d.TicketID,
		"assignment_type", d.Type,
		"assignee", d.PrimaryAssignee,
		"confidence", d.Confidence,
		"applied_rules", d.AppliedRules,
		"elapsed", time.Since(start))
}
