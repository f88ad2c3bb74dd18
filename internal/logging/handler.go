package logging

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestLog collects fields and timings for a single request.
type RequestLog struct {
	mu     sync.Mutex
	timing map[string]int64
	data   map[string]interface{}
	logger *logrus.Logger
}

// NewRequestLog returns an empty RequestLog bound to logger.
func NewRequestLog(logger *logrus.Logger) *RequestLog {
	return &RequestLog{
		timing: make(map[string]int64),
		data:   make(map[string]interface{}),
		logger: logger,
	}
}

// AddTiming starts a timer; calling the returned func records the elapsed
// milliseconds under name.
func (l *RequestLog) AddTiming(name string) func() {
	start := time.Now()
	return func() {
		elapsed := time.Since(start).Milliseconds()
		l.mu.Lock()
		defer l.mu.Unlock()
		l.timing[name] = elapsed
	}
}

// AddData attaches a field to the final log entry.
func (l *RequestLog) AddData(key string, value interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[key] = value
}

// Entry builds a logrus entry carrying every collected field.
func (l *RequestLog) Entry() *logrus.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make(logrus.Fields, len(l.data)+len(l.timing))
	for k, v := range l.data {
		fields[k] = v
	}
	for k, v := range l.timing {
		fields[k] = v
	}
	return logrus.NewEntry(l.logger).WithFields(fields)
}

// HandlerFunc is an HTTP handler that reports failure through its error.
type HandlerFunc func(http.ResponseWriter, *http.Request, *RequestLog) error

// Wrap adapts h into an http.HandlerFunc that logs start, duration and
// outcome under name. A returned error is logged, not written; h is
// responsible for the response body.
func Wrap(name string, logger *logrus.Logger, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rl := NewRequestLog(logger)
		rl.AddData("path", r.URL.Path)
		logger.Debugf("handler.%s.start", name)

		stop := rl.AddTiming("duration_ms")
		err := h(w, r, rl)
		stop()

		if err != nil {
			rl.Entry().WithError(err).Errorf("handler.%s.error", name)
			return
		}
		rl.Entry().Debugf("handler.%s.complete", name)
	}
}
