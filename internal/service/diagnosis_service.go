package service

import (
	"context"
	"time"

	"leafscan/internal/catalog"
	"leafscan/internal/diagnosis"
	apperrors "leafscan/internal/errors"
	"leafscan/internal/export"
	"leafscan/internal/observer"
	"leafscan/internal/session"
	"leafscan/internal/storage"
	"leafscan/internal/vision"
)

// DiagnosisService orchestrates one analysis workflow end to end: obtain
// the image, run the remote analysis, hold the result in a session, switch
// languages, export the report.
type DiagnosisService interface {
	// AnalyzeUpload runs an analysis over uploaded image bytes and opens a
	// session holding the result
	AnalyzeUpload(ctx context.Context, image []byte, langCode string) (string, *diagnosis.Record, error)

	// AnalyzeURL fetches the image from a URL first, then behaves like
	// AnalyzeUpload
	AnalyzeURL(ctx context.Context, imageURL, langCode string) (string, *diagnosis.Record, error)

	// Reanalyze re-runs the session's analysis in another language
	Reanalyze(ctx context.Context, sessionID, langCode string) (*diagnosis.Record, error)

	// Export assembles the caller-captured report snapshot into a PDF. It
	// reads session state only to confirm the session exists; it never
	// triggers analysis.
	Export(ctx context.Context, sessionID string, snapshot []byte) ([]byte, error)

	// Languages lists the report language catalog
	Languages() []catalog.Language
}

type diagnosisService struct {
	analyzer vision.Analyzer
	source   storage.ImageSource
	sessions *session.Store
	exporter *export.Exporter
	events   *observer.Subject
}

// NewDiagnosisService wires the workflow
func NewDiagnosisService(
	analyzer vision.Analyzer,
	source storage.ImageSource,
	sessions *session.Store,
	exporter *export.Exporter,
	events *observer.Subject,
) DiagnosisService {
	return &diagnosisService{
		analyzer: analyzer,
		source:   source,
		sessions: sessions,
		exporter: exporter,
		events:   events,
	}
}

func (s *diagnosisService) AnalyzeUpload(ctx context.Context, image []byte, langCode string) (string, *diagnosis.Record, error) {
	lang, err := s.resolveLanguage(langCode)
	if err != nil {
		return "", nil, err
	}
	if len(image) == 0 {
		return "", nil, apperrors.NewValidationError("no image supplied", nil)
	}
	return s.analyze(ctx, image, lang)
}

func (s *diagnosisService) AnalyzeURL(ctx context.Context, imageURL, langCode string) (string, *diagnosis.Record, error) {
	lang, err := s.resolveLanguage(langCode)
	if err != nil {
		return "", nil, err
	}

	image, _, err := s.source.Fetch(ctx, imageURL)
	if err != nil {
		s.events.Notify(ctx, observer.DiagnosisEvent{
			EventType: observer.ImageFetchFailed,
			Language:  lang.Code,
			ErrorMsg:  err.Error(),
		})
		return "", nil, apperrors.NewValidationError("failed to fetch image", err)
	}
	return s.analyze(ctx, image, lang)
}

func (s *diagnosisService) analyze(ctx context.Context, image []byte, lang catalog.Language) (string, *diagnosis.Record, error) {
	start := time.Now()
	s.events.Notify(ctx, observer.DiagnosisEvent{
		EventType: observer.AnalysisStarted,
		Language:  lang.Code,
	})

	rec, err := s.analyzer.Analyze(ctx, image, lang)
	if err != nil {
		s.events.Notify(ctx, observer.DiagnosisEvent{
			EventType: observer.AnalysisFailed,
			Language:  lang.Code,
			Duration:  time.Since(start),
			ErrorKind: errorKind(err),
			ErrorMsg:  err.Error(),
		})
		return "", nil, err
	}

	sess := session.New(rec, lang, image, s.analyzer)
	id := s.sessions.Put(sess)

	s.events.Notify(ctx, observer.DiagnosisEvent{
		EventType: observer.AnalysisCompleted,
		SessionID: id,
		Language:  lang.Code,
		Duration:  time.Since(start),
		Success:   true,
	})
	return id, rec, nil
}

func (s *diagnosisService) Reanalyze(ctx context.Context, sessionID, langCode string) (*diagnosis.Record, error) {
	lang, err := s.resolveLanguage(langCode)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, apperrors.NewNotFoundError("unknown session")
	}

	start := time.Now()
	rec, err := sess.Reanalyze(ctx, lang)
	if err != nil {
		s.events.Notify(ctx, observer.DiagnosisEvent{
			EventType: observer.ReanalysisFailed,
			SessionID: sessionID,
			Language:  lang.Code,
			Duration:  time.Since(start),
			ErrorKind: errorKind(err),
			ErrorMsg:  err.Error(),
		})
		return nil, err
	}

	s.events.Notify(ctx, observer.DiagnosisEvent{
		EventType: observer.ReanalysisCompleted,
		SessionID: sessionID,
		Language:  lang.Code,
		Duration:  time.Since(start),
		Success:   true,
	})
	return rec, nil
}

func (s *diagnosisService) Export(ctx context.Context, sessionID string, snapshot []byte) ([]byte, error) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return nil, apperrors.NewNotFoundError("unknown session")
	}
	if len(snapshot) == 0 {
		return nil, apperrors.NewValidationError("no snapshot supplied", nil)
	}

	pdf, err := s.exporter.Export(snapshot)
	if err != nil {
		return nil, err
	}
	s.events.Notify(ctx, observer.DiagnosisEvent{
		EventType: observer.ReportExported,
		SessionID: sessionID,
		Success:   true,
	})
	return pdf, nil
}

func (s *diagnosisService) Languages() []catalog.Language {
	return catalog.All()
}

// resolveLanguage accepts a code, a display name, or a near-miss of either;
// empty input falls back to the default report language
func (s *diagnosisService) resolveLanguage(langCode string) (catalog.Language, error) {
	if langCode == "" {
		return catalog.Default(), nil
	}
	if lang, ok := catalog.Match(langCode); ok {
		return lang, nil
	}
	return catalog.Language{}, apperrors.NewValidationError("unsupported language: "+langCode, nil)
}

func errorKind(err error) string {
	if aerr, ok := err.(*apperrors.AnalysisError); ok {
		return string(aerr.Kind)
	}
	return ""
}
