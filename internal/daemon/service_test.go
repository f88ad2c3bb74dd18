package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendwise/internal/logging"
	"github.com/theirongolddev/spendwise/internal/model"
	"github.com/theirongolddev/spendwise/internal/store"
)

type fakeStore struct {
	mu      sync.Mutex
	txns    []model.Transaction
	budgets []model.Budget
	goals   []model.Goal
	err     error
}

func (f *fakeStore) GetTrackedFiles(context.Context, string) (map[string]store.FileInfo, error) {
	return map[string]store.FileInfo{}, nil
}

func (f *fakeStore) TrackFile(context.Context, string, string, store.FileInfo) error { return nil }

func (f *fakeStore) DeleteFileTracker(context.Context, string, string) error { return nil }

func (f *fakeStore) ReplaceFileTransactions(_ context.Context, _, _ string, txns []model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txns = append(f.txns, txns...)
	return nil
}

func (f *fakeStore) ListTransactions(context.Context, string) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Transaction(nil), f.txns...), nil
}

func (f *fakeStore) ListBudgets(context.Context, string) ([]model.Budget, error) {
	return f.budgets, nil
}

func (f *fakeStore) ListGoals(context.Context, string) ([]model.Goal, error) {
	return f.goals, nil
}

type fakePublisher struct {
	alerts []AnomalyAlert
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, a AnomalyAlert) error {
	p.alerts = append(p.alerts, a)
	return p.err
}

var seq int

func food(date string, amount int64) model.Transaction {
	seq++
	d, _ := time.Parse("2006-01-02", date)
	return model.Transaction{
		ID:       "t" + strconv.Itoa(seq),
		UserID:   "u1",
		Title:    "Lunch",
		Amount:   decimal.NewFromInt(amount),
		Type:     model.Expense,
		Category: "Food & Dining",
		Date:     d,
	}
}

func newTestService(st Store, pub Publisher) *Service {
	s := New(Config{UserID: "u1", Interval: 10 * time.Second}, st, pub, logging.Discard())
	s.now = func() time.Time { return time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Transactions: 10, ExpenseUSD: 100.5, IncomeUSD: 1000, Anomalies: 1}
	curr := Snapshot{Transactions: 12, ExpenseUSD: 130.1, IncomeUSD: 1000, Anomalies: 2}

	delta := diffSnapshots(prev, curr)
	assert.Equal(t, 2, delta.Transactions)
	assert.InDelta(t, 29.6, delta.ExpenseUSD, 1e-9)
	assert.Zero(t, delta.IncomeUSD)
	assert.Equal(t, 1, delta.Anomalies)
	assert.False(t, delta.isZero())
	assert.True(t, diffSnapshots(curr, curr).isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(&fakeStore{}, nil)
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestPollOnce_EventsAndAlerts(t *testing.T) {
	st := &fakeStore{txns: []model.Transaction{
		food("2025-03-01", 10), food("2025-03-02", 10), food("2025-03-03", 10),
		food("2025-03-04", 10), food("2025-03-05", 100),
	}}
	pub := &fakePublisher{}
	s := newTestService(st, pub)
	ctx := context.Background()

	// First poll seeds: the existing anomaly is known, not alerted.
	s.pollOnce(ctx)
	status := s.snapshotStatus()
	assert.Equal(t, 5, status.Summary.Transactions)
	assert.Equal(t, 1, status.Summary.Anomalies)
	assert.InDelta(t, 140.0, status.Summary.ExpenseUSD, 1e-9)
	assert.Empty(t, pub.alerts)
	require.Len(t, s.events, 1)
	assert.Equal(t, EventSnapshot, s.events[0].Type)

	// No change, no events.
	s.pollOnce(ctx)
	assert.Len(t, s.events, 1)
	assert.Equal(t, int64(2), s.snapshotStatus().PollCount)

	// A new outlier produces a delta event and one anomaly alert.
	for _, d := range []string{"2025-03-06", "2025-03-07", "2025-03-08", "2025-03-09", "2025-03-10"} {
		st.txns = append(st.txns, food(d, 10))
	}
	spike := food("2025-03-11", 500)
	st.txns = append(st.txns, spike)
	s.pollOnce(ctx)

	types := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, EventSpendingDelta)
	assert.Contains(t, types, EventAnomaly)

	require.Len(t, pub.alerts, 1)
	assert.Equal(t, spike.ID, pub.alerts[0].Anomaly.TransactionID)
	assert.Equal(t, "u1", pub.alerts[0].UserID)
}

func TestPollOnce_KnownAnomaliesFollowWindow(t *testing.T) {
	base := []model.Transaction{
		food("2025-03-01", 10), food("2025-03-02", 10), food("2025-03-03", 10),
		food("2025-03-04", 10),
	}
	spike := food("2025-03-05", 100)
	st := &fakeStore{txns: append(append([]model.Transaction(nil), base...), spike)}
	pub := &fakePublisher{}
	s := newTestService(st, pub)
	ctx := context.Background()

	s.pollOnce(ctx)
	assert.Equal(t, map[string]struct{}{spike.ID: {}}, s.seen)

	// The spike leaves the data; it is no longer tracked.
	st.txns = base
	s.pollOnce(ctx)
	assert.Empty(t, s.seen)
	assert.Empty(t, pub.alerts)

	// Coming back makes it new again.
	st.txns = append(append([]model.Transaction(nil), base...), spike)
	s.pollOnce(ctx)
	require.Len(t, pub.alerts, 1)
	assert.Equal(t, spike.ID, pub.alerts[0].Anomaly.TransactionID)
	assert.Len(t, s.seen, 1)
}

func TestPollOnce_GoalInsights(t *testing.T) {
	g := model.NewGoal("g1", "u1", "Laptop", decimal.NewFromInt(1000), decimal.NewFromInt(250))
	st := &fakeStore{goals: []model.Goal{g}}
	s := newTestService(st, nil)

	s.pollOnce(context.Background())
	assert.Equal(t, 1, s.snapshotStatus().Summary.Insights)
}

func TestPollOnce_PublisherErrorIsLogged(t *testing.T) {
	st := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	s := newTestService(st, pub)
	ctx := context.Background()

	s.pollOnce(ctx)
	st.txns = []model.Transaction{
		food("2025-03-01", 10), food("2025-03-02", 10), food("2025-03-03", 10),
		food("2025-03-04", 10), food("2025-03-05", 100),
	}
	s.pollOnce(ctx)

	assert.Len(t, pub.alerts, 1)
	assert.Empty(t, s.snapshotStatus().LastError)
}

func TestPollOnce_StoreError(t *testing.T) {
	s := newTestService(&fakeStore{err: errors.New("disk gone")}, nil)
	s.pollOnce(context.Background())

	status := s.snapshotStatus()
	assert.Contains(t, status.LastError, "disk gone")
	assert.Equal(t, int64(1), status.PollCount)
}

func TestPollOnce_MonthsWindow(t *testing.T) {
	st := &fakeStore{txns: []model.Transaction{food("2024-01-15", 50), food("2025-03-15", 20)}}
	s := newTestService(st, nil)
	s.cfg.Months = 3

	s.pollOnce(context.Background())
	assert.Equal(t, 1, s.snapshotStatus().Summary.Transactions)
}

func getJSON(t *testing.T, h http.Handler, url string, v any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if v != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	}
	return rec.Code
}

func TestHandlers(t *testing.T) {
	st := &fakeStore{txns: []model.Transaction{
		food("2025-01-10", 100), food("2025-02-10", 200), food("2025-03-10", 300),
	}}
	s := newTestService(st, nil)
	s.pollOnce(context.Background())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok\n", rec.Body.String())

	var status Status
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/status", &status))
	assert.Equal(t, "u1", status.UserID)
	assert.False(t, status.Publishing)

	var preds []model.PredictionResult
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/predictions", &preds))
	require.Len(t, preds, 1)
	assert.InDelta(t, 400.0, preds[0].PredictedAmount, 1e-6)
	assert.Equal(t, model.TrendIncreasing, preds[0].Trend)

	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/predictions?category=Travel", &preds))
	assert.Empty(t, preds)

	var anomalies []model.AnomalyDetection
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/anomalies?category=Food%20%26%20Dining", &anomalies))
	assert.Empty(t, anomalies)

	var patterns []model.SpendingPattern
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/patterns", &patterns))
	require.Len(t, patterns, 1)

	var insights []model.Insight
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/insights", &insights))
	assert.NotEmpty(t, insights)

	var goals []model.Goal
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/goals", &goals))
	assert.Empty(t, goals)

	var cat CategorizeResponse
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/categorize?title=Uber%20Eats%20order&amount=25", &cat))
	assert.Equal(t, "Food & Dining", cat.Category)
	assert.Equal(t, "25", cat.Amount.String())

	assert.Equal(t, http.StatusBadRequest, getJSON(t, h, "/v1/categorize", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, h, "/v1/categorize?title=x&amount=abc", nil))

	var events []Event
	require.Equal(t, http.StatusOK, getJSON(t, h, "/v1/events", &events))
	assert.Len(t, events, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleStream_SendsSnapshot(t *testing.T) {
	s := newTestService(&fakeStore{}, nil)
	s.pollOnce(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.handleStream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.subs) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: snapshot\n")
}
