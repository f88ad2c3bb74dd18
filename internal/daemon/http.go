package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/logging"
)

// CategorizeResponse is served at /v1/categorize.
type CategorizeResponse struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

// Handler returns the daemon's HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", logging.Wrap("status", s.log, s.handleStatus))
	mux.HandleFunc("GET /v1/predictions", logging.Wrap("predictions", s.log, s.handlePredictions))
	mux.HandleFunc("GET /v1/anomalies", logging.Wrap("anomalies", s.log, s.handleAnomalies))
	mux.HandleFunc("GET /v1/patterns", logging.Wrap("patterns", s.log, s.handlePatterns))
	mux.HandleFunc("GET /v1/insights", logging.Wrap("insights", s.log, s.handleInsights))
	mux.HandleFunc("GET /v1/goals", logging.Wrap("goals", s.log, s.handleGoals))
	mux.HandleFunc("GET /v1/categorize", logging.Wrap("categorize", s.log, s.handleCategorize))
	mux.HandleFunc("GET /v1/events", logging.Wrap("events", s.log, s.handleEvents))
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) error {
	return writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request, _ *logging.RequestLog) error {
	return writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handlePredictions(w http.ResponseWriter, r *http.Request, rl *logging.RequestLog) error {
	a := s.currentAnalysis()
	out := a.predictions
	if category := r.URL.Query().Get("category"); category != "" {
		rl.AddData("category", category)
		out = analytics.PredictNextPeriod(a.txns, category)
	}
	return writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Service) handleAnomalies(w http.ResponseWriter, r *http.Request, rl *logging.RequestLog) error {
	a := s.currentAnalysis()
	out := a.anomalies
	if category := r.URL.Query().Get("category"); category != "" {
		rl.AddData("category", category)
		out = analytics.DetectAnomalies(a.txns, category)
	}
	return writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Service) handleGoals(w http.ResponseWriter, r *http.Request, _ *logging.RequestLog) error {
	goals, err := s.store.ListGoals(r.Context(), s.cfg.UserID)
	if err != nil {
		_ = writeError(w, http.StatusInternalServerError, "loading goals failed")
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(goals))
}

func (s *Service) handlePatterns(w http.ResponseWriter, _ *http.Request, _ *logging.RequestLog) error {
	return writeJSON(w, http.StatusOK, nonNil(s.currentAnalysis().patterns))
}

func (s *Service) handleInsights(w http.ResponseWriter, _ *http.Request, _ *logging.RequestLog) error {
	return writeJSON(w, http.StatusOK, nonNil(s.currentAnalysis().insights))
}

func (s *Service) handleCategorize(w http.ResponseWriter, r *http.Request, _ *logging.RequestLog) error {
	q := r.URL.Query()
	title := strings.TrimSpace(q.Get("title"))
	if title == "" {
		return writeError(w, http.StatusBadRequest, "title is required")
	}

	amount := decimal.Zero
	if raw := q.Get("amount"); raw != "" {
		var err error
		if amount, err = decimal.NewFromString(raw); err != nil {
			return writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid amount %q", raw))
		}
	}

	return writeJSON(w, http.StatusOK, CategorizeResponse{
		Title:    title,
		Amount:   amount,
		Category: s.cfg.Classifier.Categorize(title, amount),
	})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request, _ *logging.RequestLog) error {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	return writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
