package scoring

import "testing"

func TestRankOrdersByComposite(t *testing.T) {
	candidates := []Candidate{
		{Email: "a@northdesk.io", Composite: 0.4},
		{Email: "b@northdesk.io", Composite: 0.9},
		{Email: "c@northdesk.io", Composite: 0.7},
	}
	ranked := Rank(candidates)
	want := []string{"b@northdesk.io", "c@northdesk.io", "a@northdesk.io"}
	for i, email := range want {
		if ranked[i].Email != email {
			t.Errorf("position %d: got %s, want %s", i, ranked[i].Email, email)
		}
	}
}

func TestRankBreaksTiesByEmail(t *testing.T) {
	candidates := []Candidate{
		{Email: "zoe@northdesk.io", Composite: 0.8},
		{Email: "amy@northdesk.io", Composite: 0.8},
	}
	ranked := Rank(candidates)
	if ranked[0].Email != "amy@northdesk.io" {
		t.Errorf("tie should break alphabetically, got %s first", ranked[0].Email)
	}
}

func TestRankDoesNotModifyInput(t *testing.T) {
	candidates := []Candidate{
		{Email: "a@northdesk.io", Composite: 0.1},
		{Email: "b@northdesk.io", Composite: 0.9},
	}
	_ = Rank(candidates)
	if candidates[0].Email != "a@northdesk.io" {
		t.Error("input slice was reordered")
	}
}
