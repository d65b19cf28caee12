package events

const (
	SubjectAssignmentRequest = "desk.assignment.request"

	StreamName   = "TRIAGE_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectAssignmentDecided(ticketID string) string { return "desk.assignment." + ticketID + ".decided" }
func SubjectAssignmentReview(ticketID string) string  { return "desk.assignment." + ticketID + ".review" }
func SubjectAssignmentFailed(ticketID string) string  { return "desk.assignment." + ticketID + ".failed" }
