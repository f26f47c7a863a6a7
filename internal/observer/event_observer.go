package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DiagnosisEvent describes one step of an analysis workflow
type DiagnosisEvent struct {
	EventType EventType     `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id,omitempty"`
	Language  string        `json:"language,omitempty"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	ErrorKind string        `json:"error_kind,omitempty"`
	ErrorMsg  string        `json:"error_message,omitempty"`
}

// EventType identifies the workflow step
type EventType string

const (
	// AnalysisStarted when a new analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when a diagnosis was extracted and a session created
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the model call or extraction failed
	AnalysisFailed EventType = "analysis_failed"
	// ReanalysisCompleted when a language switch succeeded
	ReanalysisCompleted EventType = "reanalysis_completed"
	// ReanalysisFailed when a language switch failed (session unchanged)
	ReanalysisFailed EventType = "reanalysis_failed"
	// ImageFetchFailed when the source image could not be retrieved
	ImageFetchFailed EventType = "image_fetch_failed"
	// ReportExported when a PDF was assembled
	ReportExported EventType = "report_exported"
)

// Observer receives diagnosis events
type Observer interface {
	OnEvent(ctx context.Context, event DiagnosisEvent)
	Name() string
}

// Subject publishes diagnosis events to its observers
type Subject struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewSubject creates an empty subject
func NewSubject() *Subject {
	return &Subject{}
}

// Subscribe registers an observer
func (s *Subject) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Notify delivers the event to every observer in registration order
func (s *Subject) Notify(ctx context.Context, event DiagnosisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, o := range observers {
		o.OnEvent(ctx, event)
	}
}

// LoggingObserver logs diagnosis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a logging observer
func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// OnEvent logs the event at a level matching its outcome
func (o *LoggingObserver) OnEvent(ctx context.Context, event DiagnosisEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"session_id": event.SessionID,
		"language":   event.Language,
		"duration":   event.Duration,
		"success":    event.Success,
	}
	if event.ErrorKind != "" {
		fields["error_kind"] = event.ErrorKind
	}
	if event.ErrorMsg != "" {
		fields["error"] = event.ErrorMsg
	}

	switch event.EventType {
	case AnalysisStarted:
		o.logger.WithFields(fields).Info("Diagnosis started")
	case AnalysisCompleted, ReanalysisCompleted:
		o.logger.WithFields(fields).Info("Diagnosis completed")
	case AnalysisFailed, ReanalysisFailed, ImageFetchFailed:
		o.logger.WithFields(fields).Error("Diagnosis step failed")
	case ReportExported:
		o.logger.WithFields(fields).Info("Report exported")
	default:
		o.logger.WithFields(fields).Info("Diagnosis event")
	}
}

// Name returns the observer name
func (o *LoggingObserver) Name() string {
	return "logging_observer"
}

// CounterObserver keeps running totals of workflow outcomes
type CounterObserver struct {
	mu        sync.RWMutex
	started   int64
	completed int64
	failed    int64
	exported  int64
}

// NewCounterObserver creates a counter observer
func NewCounterObserver() *CounterObserver {
	return &CounterObserver{}
}

// OnEvent updates the counters
func (o *CounterObserver) OnEvent(ctx context.Context, event DiagnosisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch event.EventType {
	case AnalysisStarted:
		o.started++
	case AnalysisCompleted, ReanalysisCompleted:
		o.completed++
	case AnalysisFailed, ReanalysisFailed, ImageFetchFailed:
		o.failed++
	case ReportExported:
		o.exported++
	}
}

// Name returns the observer name
func (o *CounterObserver) Name() string {
	return "counter_observer"
}

// Totals reports the current counters
func (o *CounterObserver) Totals() (started, completed, failed, exported int64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.started, o.completed, o.failed, o.exported
}
