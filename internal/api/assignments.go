package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/northdesk/triage/internal/engine"
	"github.com/northdesk/triage/internal/events"
	"github.com/northdesk/triage/internal/store"
)

type AssignmentsHandler struct {
	store  store.Store
	events events.Client
	engine *engine.Engine
}

func NewAssignmentsHandler(s store.Store, ev events.Client, eng *engine.Engine) *AssignmentsHandler {
	return &AssignmentsHandler{store: s, events: ev, engine: eng}
}

type CreateAssignmentRequest struct {
	TicketID    string                     `json:"ticket_id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description,omitempty"`
	Priority    string                     `json:"priority"`
	Category    string                     `json:"category,omitempty"`
	Similar     []events.SimilarTicketItem `json:"similar_tickets,omitempty"`
}

func (h *AssignmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TicketID == "" || req.Priority == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ticket_id and priority required"})
		return
	}

	ticket := &store.Ticket{
		ID:          req.TicketID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    store.Priority(req.Priority),
		Category:    req.Category,
	}
	similar := make([]store.SimilarTicket, len(req.Similar))
	for i, s := range req.Similar {
		similar[i] = store.SimilarTicket{
			AssigneeEmail:   s.AssigneeEmail,
			SimilarityScore: s.SimilarityScore,
			ResolvedAt:      s.ResolvedAt,
		}
	}

	start := time.Now()
	decision, err := h.engine.AssignTicket(r.Context(), ticket, similar)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, engine.ErrStore):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	observeDecision(decision, time.Since(start))

	if rec, err := decision.Record(); err == nil {
		if err := h.store.SaveDecision(r.Context(), rec); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	if h.events != nil {
		subject := events.SubjectAssignmentDecided(decision.TicketID)
		if decision.Type == engine.AssignmentHumanReview {
			subject = events.SubjectAssignmentReview(decision.TicketID)
		}
		_ = h.events.Publish(subject, events.DecisionEvent{
			TicketID:        decision.TicketID,
			AssignmentType:  string(decision.Type),
			PrimaryAssignee: decision.PrimaryAssignee,
			Confidence:      decision.Confidence,
			AppliedRules:    decision.AppliedRules,
			DecidedAt:       decision.DecidedAt,
		})
	}

	writeJSON(w, http.StatusCreated, decision)
}

func (h *AssignmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticket_id")

	rec, err := h.store.GetDecision(r.Context(), ticketID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no decision for ticket"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Explain replays the stored decision with the full candidate score
// breakdown, for operators asking "why did this ticket go to X".
func (h *AssignmentsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticket_id")

	rec, err := h.store.GetDecision(r.Context(), ticketID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no decision for ticket"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticket_id":        rec.TicketID,
		"assignment_type":  rec.AssignmentType,
		"primary_assignee": rec.PrimaryAssignee,
		"confidence":       rec.Confidence,
		"applied_rules":    rec.AppliedRules,
		"reasoning":        rec.Reasoning,
		"triggers":         rec.Triggers,
		"candidates":       rec.Candidates,
		"decided_at":       rec.DecidedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
