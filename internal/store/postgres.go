package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListMembers(ctx context.Context, role string) ([]*Member, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, timezone, role, skills
		FROM team_members
		WHERE role = $1
		ORDER BY email ASC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Timezone, &m.Role, &m.Skills); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *PostgresStore) ListActiveTickets(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID][]ActiveTicket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT assignee_id, priority, status, created_at
		FROM tickets
		WHERE assignee_id = ANY($1)
		  AND status IN ('Open', 'InProgress', 'Pending')`, memberIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMember := make(map[uuid.UUID][]ActiveTicket)
	for rows.Next() {
		var assignee uuid.UUID
		var t ActiveTicket
		if err := rows.Scan(&assignee, &t.Priority, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		byMember[assignee] = append(byMember[assignee], t)
	}
	return byMember, rows.Err()
}

func (s *PostgresStore) ListActiveLeaves(ctx context.Context, memberIDs []uuid.UUID, today time.Time) (map[uuid.UUID]bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT member_id
		FROM leave_records
		WHERE member_id = ANY($1)
		  AND start_date <= $2
		  AND end_date >= $2`, memberIDs, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	onLeave := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		onLeave[id] = true
	}
	return onLeave, rows.Err()
}

func (s *PostgresStore) ListHolidays(ctx context.Context, date time.Time, regions []Region) ([]HolidayEntry, error) {
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = string(r)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT date, region
		FROM holidays
		WHERE date = $1 AND region = ANY($2)`, date, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []HolidayEntry
	for rows.Next() {
		var h HolidayEntry
		if err := rows.Scan(&h.Date, &h.Region); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// CountRecentAssignments counts tickets assigned to each member since the
// cutoff, by assignment timestamp and regardless of current status.
func (s *PostgresStore) CountRecentAssignments(ctx context.Context, memberIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT assignee_id, COUNT(*)
		FROM tickets
		WHERE assignee_id = ANY($1)
		  AND assigned_at >= $2
		GROUP BY assignee_id`, memberIDs, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) SaveDecision(ctx context.Context, rec *DecisionRecord) error {
	triggersJSON, _ := json.Marshal(rec.Triggers)
	candidatesJSON, _ := json.Marshal(rec.Candidates)

	return s.pool.QueryRow(ctx, `
		INSERT INTO assignment_decisions (ticket_id, assignment_type, primary_assignee,
			confidence, applied_rules, reasoning, triggers, candidates, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		rec.TicketID, rec.AssignmentType, rec.PrimaryAssignee,
		rec.Confidence, rec.AppliedRules, rec.Reasoning, triggersJSON, candidatesJSON, rec.DecidedAt,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// GetDecision returns the most recent decision for a ticket, or nil if the
// ticket has never been through the engine.
func (s *PostgresStore) GetDecision(ctx context.Context, ticketID string) (*DecisionRecord, error) {
	rec := &DecisionRecord{}
	var triggersJSON, candidatesJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, ticket_id, assignment_type, primary_assignee,
			confidence, applied_rules, reasoning, triggers, candidates, decided_at, created_at
		FROM assignment_decisions
		WHERE ticket_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, ticketID,
	).Scan(
		&rec.ID, &rec.TicketID, &rec.AssignmentType, &rec.PrimaryAssignee,
		&rec.Confidence, &rec.AppliedRules, &rec.Reasoning, &triggersJSON, &candidatesJSON,
		&rec.DecidedAt, &rec.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if triggersJSON != nil {
		_ = json.Unmarshal(triggersJSON, &rec.Triggers)
	}
	if candidatesJSON != nil {
		_ = json.Unmarshal(candidatesJSON, &rec.Candidates)
	}
	return rec, nil
}

func (s *PostgresStore) DecisionStats(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT assignment_type, COUNT(*)
		FROM assignment_decisions
		GROUP BY assignment_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		stats[kind] = n
	}
	return stats, rows.Err()
}
