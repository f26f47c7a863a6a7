package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"leafscan/internal/catalog"
	"leafscan/internal/diagnosis"
	apperrors "leafscan/internal/errors"
	"leafscan/internal/export"
	"leafscan/internal/observer"
	"leafscan/internal/session"
)

type fakeAnalyzer struct {
	calls    int
	lastLang catalog.Language
	record   *diagnosis.Record
	err      error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, img []byte, lang catalog.Language) (*diagnosis.Record, error) {
	f.calls++
	f.lastLang = lang
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeSource struct {
	data []byte
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, "image/jpeg", nil
}

func testRecord() *diagnosis.Record {
	return &diagnosis.Record{
		DiseaseName:    "Powdery Mildew",
		ScientificName: "Erysiphe cichoracearum",
		Confidence:     78,
		Severity:       diagnosis.SeverityModerate,
		Description:    "White powdery growth on leaves.",
		Symptoms:       []string{"white powder"},
		Causes:         []string{"fungal spores"},
		Treatment:      []string{"sulfur spray"},
		Prevention:     []string{"airflow"},
		AffectedParts:  []string{"leaves"},
		SpreadRate:     diagnosis.SpreadModerate,
	}
}

func newTestService(analyzer *fakeAnalyzer, source *fakeSource) (DiagnosisService, *session.Store, *observer.CounterObserver) {
	store := session.NewStore(time.Minute)
	events := observer.NewSubject()
	counters := observer.NewCounterObserver()
	events.Subscribe(counters)
	svc := NewDiagnosisService(analyzer, source, store, export.NewExporter(), events)
	return svc, store, counters
}

func TestAnalyzeUpload_CreatesSession(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, counters := newTestService(analyzer, &fakeSource{})
	defer store.Close()

	id, rec, err := svc.AnalyzeUpload(context.Background(), []byte{0xFF, 0xD8}, "es")
	if err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}
	if id == "" {
		t.Error("no session id returned")
	}
	if rec.DiseaseName != "Powdery Mildew" {
		t.Errorf("unexpected record %+v", rec)
	}
	if analyzer.lastLang.Code != "es" {
		t.Errorf("language not resolved, analyzer saw %q", analyzer.lastLang.Code)
	}
	if _, ok := store.Get(id); !ok {
		t.Error("session not registered in store")
	}

	started, completed, failed, _ := counters.Totals()
	if started != 1 || completed != 1 || failed != 0 {
		t.Errorf("unexpected counters: started=%d completed=%d failed=%d", started, completed, failed)
	}
}

func TestAnalyzeUpload_DefaultLanguage(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, _ := newTestService(analyzer, &fakeSource{})
	defer store.Close()

	if _, _, err := svc.AnalyzeUpload(context.Background(), []byte{0xFF, 0xD8}, ""); err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}
	if analyzer.lastLang.Code != "en" {
		t.Errorf("expected default language en, analyzer saw %q", analyzer.lastLang.Code)
	}
}

func TestAnalyzeUpload_FuzzyLanguage(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, _ := newTestService(analyzer, &fakeSource{})
	defer store.Close()

	if _, _, err := svc.AnalyzeUpload(context.Background(), []byte{0xFF, 0xD8}, "spanish"); err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}
	if analyzer.lastLang.Code != "es" {
		t.Errorf("expected es, analyzer saw %q", analyzer.lastLang.Code)
	}
}

func TestAnalyzeUpload_UnsupportedLanguage(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, _ := newTestService(analyzer, &fakeSource{})
	defer store.Close()

	_, _, err := svc.AnalyzeUpload(context.Background(), []byte{0xFF, 0xD8}, "klingon")
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if analyzer.calls != 0 {
		t.Error("analyzer must not be called for an unsupported language")
	}
}

func TestAnalyzeUpload_FailureCreatesNoSession(t *testing.T) {
	analyzer := &fakeAnalyzer{err: apperrors.NewPaymentRequiredError("quota")}
	svc, store, counters := newTestService(analyzer, &fakeSource{})
	defer store.Close()

	_, _, err := svc.AnalyzeUpload(context.Background(), []byte{0xFF, 0xD8}, "en")
	if !apperrors.IsKind(err, apperrors.KindPaymentRequired) {
		t.Fatalf("expected the analyzer error back, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("failed analysis must not leave a session behind")
	}
	_, _, failed, _ := counters.Totals()
	if failed != 1 {
		t.Errorf("expected one failure event, got %d", failed)
	}
}

func TestAnalyzeURL_FetchFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, _ := newTestService(analyzer, &fakeSource{err: errors.New("dns exploded")})
	defer store.Close()

	_, _, err := svc.AnalyzeURL(context.Background(), "https://example.com/leaf.jpg", "en")
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if analyzer.calls != 0 {
		t.Error("analyzer must not run when the image fetch fails")
	}
}

func TestAnalyzeURL_Success(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, _ := newTestService(analyzer, &fakeSource{data: []byte{0xFF, 0xD8}})
	defer store.Close()

	id, _, err := svc.AnalyzeURL(context.Background(), "https://example.com/leaf.jpg", "fr")
	if err != nil {
		t.Fatalf("AnalyzeURL failed: %v", err)
	}
	if id == "" {
		t.Error("no session id returned")
	}
}

func TestReanalyze_UnknownSession(t *testing.T) {
	svc, store, _ := newTestService(&fakeAnalyzer{record: testRecord()}, &fakeSource{})
	defer store.Close()

	_, err := svc.Reanalyze(context.Background(), "missing", "es")
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestReanalyze_SwitchesLanguage(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, _ := newTestService(analyzer, &fakeSource{})
	defer store.Close()

	id, _, err := svc.AnalyzeUpload(context.Background(), []byte{0xFF, 0xD8}, "en")
	if err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}

	if _, err := svc.Reanalyze(context.Background(), id, "de"); err != nil {
		t.Fatalf("Reanalyze failed: %v", err)
	}
	if analyzer.calls != 2 {
		t.Errorf("expected two analyzer calls, got %d", analyzer.calls)
	}
	if analyzer.lastLang.Code != "de" {
		t.Errorf("analyzer saw %q", analyzer.lastLang.Code)
	}
}

func TestExport_UnknownSession(t *testing.T) {
	svc, store, _ := newTestService(&fakeAnalyzer{record: testRecord()}, &fakeSource{})
	defer store.Close()

	_, err := svc.Export(context.Background(), "missing", []byte{0x89})
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestExport_ProducesPDF(t *testing.T) {
	analyzer := &fakeAnalyzer{record: testRecord()}
	svc, store, counters := newTestService(analyzer, &fakeSource{})
	defer store.Close()

	id, _, err := svc.AnalyzeUpload(context.Background(), []byte{0xFF, 0xD8}, "en")
	if err != nil {
		t.Fatalf("AnalyzeUpload failed: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 50, 50))); err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}

	pdf, err := svc.Export(context.Background(), id, buf.Bytes())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("export did not produce a PDF")
	}

	_, _, _, exported := counters.Totals()
	if exported != 1 {
		t.Errorf("expected one export event, got %d", exported)
	}
}

func TestLanguages(t *testing.T) {
	svc, store, _ := newTestService(&fakeAnalyzer{}, &fakeSource{})
	defer store.Close()

	if langs := svc.Languages(); len(langs) == 0 {
		t.Error("no languages returned")
	}
}
