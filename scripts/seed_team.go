// seed_team.go is a standalone script that creates the triage schema and seeds a
// sample support team.
//
// Usage:
//
//	go run scripts/seed_team.go -db postgres://localhost/triage
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS team_members (
	id        UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name      TEXT NOT NULL,
	email     TEXT NOT NULL UNIQUE,
	timezone  TEXT NOT NULL,
	role      TEXT NOT NULL DEFAULT 'USER',
	skills    TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS tickets (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	assignee_id UUID REFERENCES team_members(id),
	priority    TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	assigned_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS leave_records (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	member_id  UUID NOT NULL REFERENCES team_members(id),
	start_date DATE NOT NULL,
	end_date   DATE NOT NULL
);

CREATE TABLE IF NOT EXISTS holidays (
	id     UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	date   DATE NOT NULL,
	region TEXT NOT NULL,
	name   TEXT
);

CREATE TABLE IF NOT EXISTS assignment_decisions (
	id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	ticket_id        TEXT NOT NULL,
	assignment_type  TEXT NOT NULL,
	primary_assignee TEXT,
	confidence       DOUBLE PRECISION NOT NULL,
	applied_rules    TEXT[] NOT NULL DEFAULT '{}',
	reasoning        TEXT[] NOT NULL DEFAULT '{}',
	triggers         JSONB,
	candidates       JSONB,
	decided_at       TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_decisions_ticket ON assignment_decisions (ticket_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tickets_assignee ON tickets (assignee_id, status);
`

type member struct {
	name     string
	email    string
	timezone string
	skills   []string
}

var team = []member{
	{"Ravi Kumar", "ravi@northdesk.io", "Asia/Kolkata", []string{"database", "backend"}},
	{"Priya Sharma", "priya@northdesk.io", "Asia/Kolkata", []string{"networking", "security"}},
	{"Sneha Patel", "sneha@northdesk.io", "Asia/Kolkata", []string{"frontend", "database"}},
	{"John Miller", "john@northdesk.io", "America/New_York", []string{"backend", "infrastructure"}},
}

func main() {
	dbURL := flag.String("db", "postgres://localhost/triage", "database URL")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, *dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	log.Println("schema ready")

	for _, m := range team {
		_, err := conn.Exec(ctx, `
			INSERT INTO team_members (name, email, timezone, role, skills)
			VALUES ($1, $2, $3, 'USER', $4)
			ON CONFLICT (email) DO UPDATE SET timezone = $3, skills = $4`,
			m.name, m.email, m.timezone, m.skills)
		if err != nil {
			log.Fatalf("seed member %s: %v", m.email, err)
		}
		log.Printf("seeded %s (%s)", m.name, m.timezone)
	}

	// A sample regional holiday two weeks out, for exercising availability.
	holiday := time.Now().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	if _, err := conn.Exec(ctx, `
		INSERT INTO holidays (date, region, name)
		VALUES ($1, 'IN', 'Sample Regional Holiday')
		ON CONFLICT DO NOTHING`, holiday); err != nil {
		log.Fatalf("seed holiday: %v", err)
	}

	log.Println("done")
}
