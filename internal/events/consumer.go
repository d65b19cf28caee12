package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/northdesk/triage/internal/engine"
	"github.com/northdesk/triage/internal/store"
)

// requestTimeout bounds one event-driven decision, store queries
// included.
const requestTimeout = 30 * time.Second

// SubscribeAssignmentRequests wires the request subject into the engine.
// Each decision is persisted and then echoed back on the decided or
// review subject; malformed or failed requests go to the failed subject.
func SubscribeAssignmentRequests(c Client, eng *engine.Engine, st store.Store, logger *slog.Logger) error {
	return c.Subscribe(SubjectAssignmentRequest, func(_ string, data []byte) {
		var req AssignmentRequestEvent
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Warn("dropping malformed assignment request", "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		decision, err := eng.AssignTicket(ctx, requestTicket(&req), requestSimilar(&req))
		if err != nil {
			logger.Error("assignment request failed", "ticket_id", req.TicketID, "error", err)
			_ = c.Publish(SubjectAssignmentFailed(req.TicketID), AssignmentFailedEvent{
				TicketID: req.TicketID,
				Error:    err.Error(),
			})
			return
		}

		if rec, err := decision.Record(); err != nil {
			logger.Error("failed to encode decision", "ticket_id", req.TicketID, "error", err)
		} else if err := st.SaveDecision(ctx, rec); err != nil {
			logger.Error("failed to persist decision", "ticket_id", req.TicketID, "error", err)
		}

		subject := SubjectAssignmentDecided(decision.TicketID)
		if decision.Type == engine.AssignmentHumanReview {
			subject = SubjectAssignmentReview(decision.TicketID)
		}
		if err := c.Publish(subject, DecisionEvent{
			TicketID:        decision.TicketID,
			AssignmentType:  string(decision.Type),
			PrimaryAssignee: decision.PrimaryAssignee,
			Confidence:      decision.Confidence,
			AppliedRules:    decision.AppliedRules,
			DecidedAt:       decision.DecidedAt,
		}); err != nil {
			logger.Warn("failed to publish decision event", "ticket_id", decision.TicketID, "error", err)
		}
	})
}

func requestTicket(req *AssignmentRequestEvent) *store.Ticket {
	return &store.Ticket{
		ID:          req.TicketID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    store.Priority(req.Priority),
		Category:    req.Category,
	}
}

func requestSimilar(req *AssignmentRequestEvent) []store.SimilarTicket {
	similar := make([]store.SimilarTicket, len(req.Similar))
	for i, s := range req.Similar {
		similar[i] = store.SimilarTicket{
			AssigneeEmail:   s.AssigneeEmail,
			SimilarityScore: s.SimilarityScore,
			ResolvedAt:      s.ResolvedAt,
		}
	}
	return similar
}
