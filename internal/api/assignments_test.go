package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/northdesk/triage/internal/engine"
	"github.com/northdesk/triage/internal/events"
	"github.com/northdesk/triage/internal/scoring"
	"github.com/northdesk/triage/internal/store"
)

// MockStore implements store.Store for handler tests
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListMembers(ctx context.Context, role string) ([]*store.Member, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Member), args.Error(1)
}

func (m *MockStore) ListActiveTickets(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID][]store.ActiveTicket, error) {
	return map[uuid.UUID][]store.ActiveTicket{}, nil
}

func (m *MockStore) ListActiveLeaves(ctx context.Context, memberIDs []uuid.UUID, today time.Time) (map[uuid.UUID]bool, error) {
	return map[uuid.UUID]bool{}, nil
}

func (m *MockStore) ListHolidays(ctx context.Context, date time.Time, regions []store.Region) ([]store.HolidayEntry, error) {
	return nil, nil
}

func (m *MockStore) CountRecentAssignments(ctx context.Context, memberIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	return map[uuid.UUID]int{}, nil
}

func (m *MockStore) SaveDecision(ctx context.Context, rec *store.DecisionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) GetDecision(ctx context.Context, ticketID string) (*store.DecisionRecord, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.DecisionRecord), args.Error(1)
}

func (m *MockStore) DecisionStats(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(t *testing.T, ms *MockStore) http.Handler {
	t.Helper()
	scorer, err := scoring.NewScorer(scoring.DefaultWeights(), scoring.DefaultParams(), testLogger())
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	eng := engine.New(ms, scorer, engine.DefaultConfig(), testLogger())
	return NewRouter(ms, nil, eng, "", testLogger())
}

func doRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Client-ID", "helpdesk")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAssignment(t *testing.T) {
	ms := &MockStore{}
	ms.On("ListMembers", mock.Anything, store.RoleUser).Return([]*store.Member{
		{ID: uuid.New(), Name: "Ravi Kumar", Email: "ravi@northdesk.io", Timezone: "Asia/Kolkata", Role: store.RoleUser, Skills: []string{"database"}},
	}, nil)
	ms.On("SaveDecision", mock.Anything, mock.Anything).Return(nil)

	w := doRequest(testRouter(t, ms), "POST", "/api/v1/assignments", CreateAssignmentRequest{
		TicketID: "TK-200",
		Title:    "Replica lag spike",
		Priority: "High",
		Category: "database",
		Similar: []events.SimilarTicketItem{
			{AssigneeEmail: "ravi@northdesk.io", SimilarityScore: 0.90},
			{AssigneeEmail: "ravi@northdesk.io", SimilarityScore: 0.90},
		},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var d engine.Decision
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, engine.AssignmentNormal, d.Type)
	assert.Equal(t, "ravi@northdesk.io", d.PrimaryAssignee)
	assert.Len(t, d.Candidates, 1)
	ms.AssertCalled(t, "SaveDecision", mock.Anything, mock.Anything)
}

func TestCreateAssignmentSimilarityFloor(t *testing.T) {
	ms := &MockStore{}
	ms.On("SaveDecision", mock.Anything, mock.Anything).Return(nil)

	w := doRequest(testRouter(t, ms), "POST", "/api/v1/assignments", CreateAssignmentRequest{
		TicketID: "TK-201",
		Priority: "High",
		Similar: []events.SimilarTicketItem{
			{AssigneeEmail: "ravi@northdesk.io", SimilarityScore: 0.40},
		},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var d engine.Decision
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, engine.AssignmentHumanReview, d.Type)
	assert.Empty(t, d.PrimaryAssignee)
	ms.AssertNotCalled(t, "ListMembers", mock.Anything, mock.Anything)
}

func TestCreateAssignmentValidation(t *testing.T) {
	ms := &MockStore{}
	router := testRouter(t, ms)

	t.Run("missing fields", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/assignments", CreateAssignmentRequest{Title: "no id"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown priority", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/assignments", CreateAssignmentRequest{
			TicketID: "TK-202", Priority: "Urgent",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/assignments", bytes.NewBufferString("{nope"))
		req.Header.Set("X-Client-ID", "helpdesk")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAssignment(t *testing.T) {
	ms := &MockStore{}
	ms.On("GetDecision", mock.Anything, "TK-300").Return(&store.DecisionRecord{
		TicketID:       "TK-300",
		AssignmentType: "normal",
		Confidence:     0.8,
	}, nil)
	ms.On("GetDecision", mock.Anything, "TK-404").Return(nil, nil)

	router := testRouter(t, ms)

	w := doRequest(router, "GET", "/api/v1/assignments/TK-300", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var rec store.DecisionRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "TK-300", rec.TicketID)

	w = doRequest(router, "GET", "/api/v1/assignments/TK-404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExplainAssignment(t *testing.T) {
	ms := &MockStore{}
	ms.On("GetDecision", mock.Anything, "TK-300").Return(&store.DecisionRecord{
		TicketID:       "TK-300",
		AssignmentType: "normal",
		AppliedRules:   []string{"fair_distribution"},
		Candidates:     []map[string]interface{}{{"email": "ravi@northdesk.io", "composite_score": 0.86}},
	}, nil)

	w := doRequest(testRouter(t, ms), "GET", "/api/v1/assignments/TK-300/explain", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TK-300", body["ticket_id"])
	assert.NotNil(t, body["candidates"])
}

func TestAdminStats(t *testing.T) {
	ms := &MockStore{}
	ms.On("DecisionStats", mock.Anything).Return(map[string]int{"normal": 12, "human_review": 3}, nil)

	w := doRequest(testRouter(t, ms), "GET", "/api/v1/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats map[string]int
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 12, stats["normal"])
}
