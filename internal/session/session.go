// Package session owns the mutable state of one analysis workflow: the
// current record, its language, and the source image. State is replaced
// wholesale on success and never touched on failure, so a failed
// re-analysis can never corrupt the report the user is looking at.
package session

import (
	"context"
	"sync"

	"leafscan/internal/catalog"
	"leafscan/internal/diagnosis"
	apperrors "leafscan/internal/errors"
	"leafscan/internal/vision"
)

// Session holds the (record, language, image) triple for one workflow.
// It is the single writer of that state; reads get copies.
type Session struct {
	mu       sync.Mutex
	inFlight bool

	record   *diagnosis.Record
	language catalog.Language
	image    []byte

	analyzer vision.Analyzer
}

// New creates a session around the first successful analysis
func New(record *diagnosis.Record, lang catalog.Language, image []byte, analyzer vision.Analyzer) *Session {
	return &Session{
		record:   record.Clone(),
		language: lang,
		image:    image,
		analyzer: analyzer,
	}
}

// Record returns a copy of the held record
func (s *Session) Record() *diagnosis.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// Language returns the language the held record was produced in
func (s *Session) Language() catalog.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// Reanalyze re-runs the analysis in a new language.
//
// Same language is a no-op returning the held record: a language switch is
// a new paid inference call, a non-switch must not be. On success the
// (record, language) pair is swapped atomically; on failure the session is
// left exactly as it was and the error goes back to the caller.
//
// One re-analysis may be in flight per session. A second concurrent call is
// rejected with a conflict error rather than queued.
func (s *Session) Reanalyze(ctx context.Context, lang catalog.Language) (*diagnosis.Record, error) {
	s.mu.Lock()
	if lang.Code == s.language.Code {
		rec := s.record.Clone()
		s.mu.Unlock()
		return rec, nil
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, apperrors.NewConflictError("a re-analysis is already in progress for this session")
	}
	s.inFlight = true
	image := s.image
	s.mu.Unlock()

	rec, err := s.analyzer.Analyze(ctx, image, lang)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return nil, err
	}
	s.record = rec.Clone()
	s.language = lang
	return rec, nil
}

// Image returns the stored source image. The bytes are shared, not copied;
// callers must treat them as read-only.
func (s *Session) Image() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}
