// Package daemon provides the long-running spending monitor service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/categorize"
	"github.com/theirongolddev/spendwise/internal/model"
	"github.com/theirongolddev/spendwise/internal/pipeline"
)

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventSpendingDelta = "spending_delta"
	EventAnomaly       = "anomaly"
)

// Config controls the daemon runtime behavior.
type Config struct {
	UserID string
	// Months limits analysis to the trailing calendar months; 0 means all.
	Months int
	// ImportDir, when set, is re-imported on every poll.
	ImportDir    string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Classifier   *categorize.Classifier
}

// Store is the persistence the daemon reads from and imports into.
type Store interface {
	pipeline.Store
	ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
	ListBudgets(ctx context.Context, userID string) ([]model.Budget, error)
	ListGoals(ctx context.Context, userID string) ([]model.Goal, error)
}

// AnomalyAlert is handed to a Publisher for every newly detected anomaly.
type AnomalyAlert struct {
	UserID     string                 `json:"user_id"`
	DetectedAt time.Time              `json:"detected_at"`
	Anomaly    model.AnomalyDetection `json:"anomaly"`
}

// Publisher forwards anomaly alerts to an external system.
type Publisher interface {
	Publish(ctx context.Context, alert AnomalyAlert) error
}

// Snapshot is a compact spending state for status/event payloads.
type Snapshot struct {
	At            time.Time `json:"at"`
	Transactions  int       `json:"transactions"`
	ExpenseUSD    float64   `json:"expense_usd"`
	IncomeUSD     float64   `json:"income_usd"`
	NetUSD        float64   `json:"net_usd"`
	Categories    int       `json:"categories"`
	Anomalies     int       `json:"anomalies"`
	Insights      int       `json:"insights"`
	ForecastUSD   float64   `json:"forecast_usd"`
	LatestExpense time.Time `json:"latest_expense"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Transactions int     `json:"transactions"`
	ExpenseUSD   float64 `json:"expense_usd"`
	IncomeUSD    float64 `json:"income_usd"`
	Anomalies    int     `json:"anomalies"`
}

func (d Delta) isZero() bool {
	return d.Transactions == 0 &&
		d.ExpenseUSD == 0 &&
		d.IncomeUSD == 0 &&
		d.Anomalies == 0
}

// Event is emitted whenever the spending snapshot changes or an anomaly
// appears.
type Event struct {
	ID        int64                   `json:"id"`
	Type      string                  `json:"type"`
	Timestamp time.Time               `json:"timestamp"`
	Snapshot  Snapshot                `json:"snapshot"`
	Delta     Delta                   `json:"delta"`
	Anomaly   *model.AnomalyDetection `json:"anomaly,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	UserID          string    `json:"user_id"`
	Months          int       `json:"months"`
	ImportDir       string    `json:"import_dir,omitempty"`
	Publishing      bool      `json:"publishing"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// analysis is the engine output cached between polls.
type analysis struct {
	txns        []model.Transaction
	predictions []model.PredictionResult
	anomalies   []model.AnomalyDetection
	patterns    []model.SpendingPattern
	insights    []model.Insight
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg   Config
	store Store
	pub   Publisher
	log   *logrus.Logger
	now   func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	current     analysis
	seen        map[string]struct{}
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service. pub may be nil.
func New(cfg Config, st Store, pub Publisher, log *logrus.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Classifier == nil {
		cfg.Classifier, _ = categorize.WithDefaults(nil)
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		pub:       pub,
		log:       log,
		now:       time.Now,
		startedAt: time.Now(),
		seen:      make(map[string]struct{}),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		// Seed initial snapshot so status is useful immediately.
		s.pollOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(ctx)
			}
		}
	})

	s.log.WithFields(logrus.Fields{
		"addr":     s.cfg.Addr,
		"user_id":  s.cfg.UserID,
		"interval": s.cfg.Interval.String(),
	}).Info("daemon started")

	return g.Wait()
}

func (s *Service) pollOnce(ctx context.Context) {
	start := s.now()

	if s.cfg.ImportDir != "" {
		res, err := pipeline.Import(ctx, s.cfg.ImportDir, s.store, pipeline.ImportOptions{
			UserID:     s.cfg.UserID,
			Classifier: s.cfg.Classifier,
		})
		if err != nil {
			s.recordError(fmt.Errorf("import: %w", err))
			return
		}
		if res.ParsedFiles > 0 || res.FileErrors > 0 {
			s.log.WithFields(logrus.Fields{
				"dir":         s.cfg.ImportDir,
				"parsed":      res.ParsedFiles,
				"imported":    res.Imported,
				"invalid":     res.Invalid,
				"file_errors": res.FileErrors,
			}).Info("import")
		}
	}

	txns, err := s.store.ListTransactions(ctx, s.cfg.UserID)
	if err != nil {
		s.recordError(fmt.Errorf("loading transactions: %w", err))
		return
	}
	budgets, err := s.store.ListBudgets(ctx, s.cfg.UserID)
	if err != nil {
		s.recordError(fmt.Errorf("loading budgets: %w", err))
		return
	}
	goals, err := s.store.ListGoals(ctx, s.cfg.UserID)
	if err != nil {
		s.recordError(fmt.Errorf("loading goals: %w", err))
		return
	}

	now := s.now()
	txns = pipeline.FilterByTime(txns, pipeline.MonthsWindow(now, s.cfg.Months), time.Time{})
	a := analyze(txns, budgets, goals, now)
	snap := snapshotFromAnalysis(a, now)

	var out []Event
	var fresh []model.AnomalyDetection

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.current = a
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	// Known anomalies are rebuilt from this poll so the set tracks the window.
	known := make(map[string]struct{}, len(a.anomalies))
	for _, an := range a.anomalies {
		known[an.TransactionID] = struct{}{}
	}

	if !prevExists {
		// Anomalies present at startup are known, not new.
		s.nextEventID++
		out = append(out, Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap})
	} else {
		if delta := diffSnapshots(prev, snap); !delta.isZero() {
			s.nextEventID++
			out = append(out, Event{ID: s.nextEventID, Type: EventSpendingDelta, Timestamp: now, Snapshot: snap, Delta: delta})
		}
		for _, an := range a.anomalies {
			if _, ok := s.seen[an.TransactionID]; ok {
				continue
			}
			fresh = append(fresh, an)
			s.nextEventID++
			out = append(out, Event{ID: s.nextEventID, Type: EventAnomaly, Timestamp: now, Snapshot: snap, Anomaly: &an})
		}
	}
	s.seen = known
	s.mu.Unlock()

	for _, ev := range out {
		s.publishEvent(ev)
	}
	s.forward(ctx, fresh, now)

	s.log.WithFields(logrus.Fields{
		"transactions":  snap.Transactions,
		"anomalies":     snap.Anomalies,
		"new_anomalies": len(fresh),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	}).Debug("poll")
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = s.now()
	s.pollCount++
	s.mu.Unlock()
	s.log.WithError(err).Warn("daemon poll failed")
}

// forward sends new anomalies to the publisher. Failures are logged and the
// anomaly is not retried.
func (s *Service) forward(ctx context.Context, fresh []model.AnomalyDetection, at time.Time) {
	if s.pub == nil {
		return
	}
	for _, an := range fresh {
		alert := AnomalyAlert{UserID: s.cfg.UserID, DetectedAt: at, Anomaly: an}
		if err := s.pub.Publish(ctx, alert); err != nil {
			s.log.WithError(err).WithField("transaction_id", an.TransactionID).Error("publishing anomaly alert")
		}
	}
}

func analyze(txns []model.Transaction, budgets []model.Budget, goals []model.Goal, now time.Time) analysis {
	return analysis{
		txns:        txns,
		predictions: analytics.PredictNextPeriod(txns, ""),
		anomalies:   analytics.DetectAllAnomalies(txns),
		patterns:    analytics.AnalyzePatterns(txns),
		insights:    append(analytics.GenerateInsights(txns, budgets), analytics.GoalInsights(goals, now)...),
	}
}

func snapshotFromAnalysis(a analysis, at time.Time) Snapshot {
	snap := Snapshot{
		At:           at,
		Transactions: len(a.txns),
		ExpenseUSD:   analytics.TotalExpense(a.txns),
		IncomeUSD:    analytics.TotalIncome(a.txns),
		Categories:   len(a.patterns),
		Anomalies:    len(a.anomalies),
		Insights:     len(a.insights),
	}
	snap.NetUSD = snap.IncomeUSD - snap.ExpenseUSD
	for _, p := range a.predictions {
		snap.ForecastUSD += p.PredictedAmount
	}
	for _, t := range a.txns {
		if t.IsExpense() && t.Date.After(snap.LatestExpense) {
			snap.LatestExpense = t.Date
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Transactions: curr.Transactions - prev.Transactions,
		ExpenseUSD:   curr.ExpenseUSD - prev.ExpenseUSD,
		IncomeUSD:    curr.IncomeUSD - prev.IncomeUSD,
		Anomalies:    curr.Anomalies - prev.Anomalies,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		UserID:          s.cfg.UserID,
		Months:          s.cfg.Months,
		ImportDir:       s.cfg.ImportDir,
		Publishing:      s.pub != nil,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) currentAnalysis() analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
