package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yrakibi/doctran/internal/journal"
	"github.com/yrakibi/doctran/internal/registry"
	"github.com/yrakibi/doctran/internal/storage"
	"github.com/yrakibi/doctran/internal/translator"
)

type fakeStore struct {
	objects map[string][]byte

	putCalls    atomic.Int32
	deleteCalls atomic.Int32
	moveCalls   atomic.Int32

	putErr    error
	deleteErr error
	moveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	f.putCalls.Add(1)
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[bucket+"/"+key] = data
	return nil
}

func (f *fakeStore) ListByPrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			keys = append(keys, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	return keys, nil
}

func (f *fakeStore) DeleteByPrefix(ctx context.Context, bucket, prefix string) (int, error) {
	f.deleteCalls.Add(1)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	deleted := 0
	for k := range f.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			delete(f.objects, k)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) Move(ctx context.Context, srcBucket, key, dstBucket string) error {
	f.moveCalls.Add(1)
	if f.moveErr != nil {
		return f.moveErr
	}
	if _, exists := f.objects[dstBucket+"/"+key]; exists {
		return storage.ErrDestinationExists
	}
	data, ok := f.objects[srcBucket+"/"+key]
	if !ok {
		return errors.New("source object not found")
	}
	f.objects[dstBucket+"/"+key] = data
	delete(f.objects, srcBucket+"/"+key)
	return nil
}

func (f *fakeStore) has(bucket, key string) bool {
	_, ok := f.objects[bucket+"/"+key]
	return ok
}

type fakeOperation struct {
	result *translator.BatchResult
	err    error
}

func (o *fakeOperation) Wait(ctx context.Context) (*translator.BatchResult, error) {
	return o.result, o.err
}

type fakeTranslator struct {
	translateCalls atomic.Int32
	batchCalls     atomic.Int32

	lastDocReq   translator.DocumentRequest
	lastBatchReq translator.BatchRequest

	translateFunc func(ctx context.Context, req translator.DocumentRequest) (*translator.DocumentResult, error)
	batchFunc     func(ctx context.Context, req translator.BatchRequest) (translator.Operation, error)
}

func (f *fakeTranslator) TranslateDocument(ctx context.Context, req translator.DocumentRequest) (*translator.DocumentResult, error) {
	f.translateCalls.Add(1)
	f.lastDocReq = req
	if f.translateFunc != nil {
		return f.translateFunc(ctx, req)
	}
	return &translator.DocumentResult{Content: []byte("translated"), MimeType: req.MimeType}, nil
}

func (f *fakeTranslator) BatchTranslateDocument(ctx context.Context, req translator.BatchRequest) (translator.Operation, error) {
	f.batchCalls.Add(1)
	f.lastBatchReq = req
	if f.batchFunc != nil {
		return f.batchFunc(ctx, req)
	}
	return &fakeOperation{result: &translator.BatchResult{TotalPages: 3, TranslatedPages: 3}}, nil
}

func (f *fakeTranslator) Close() error { return nil }

func testConfig() Config {
	return Config{
		StagingBucket: "translation_hub_tmp",
		InputBucket:   "docs_input",
		OutputBucket:  "docs_output",
		ErrorBucket:   "docs_error",
	}
}

func newTestOrchestrator(store *fakeStore, tr *fakeTranslator) *Orchestrator {
	return New(store, tr, nil, testConfig(), zerolog.Nop())
}

func TestTranslate_SameLanguage(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTranslator{}
	o := newTestOrchestrator(store, tr)

	_, err := o.Translate(context.Background(), Submission{
		FileName:       "contract.pdf",
		Content:        []byte("data"),
		SourceLanguage: "French",
		TargetLanguage: "French",
	})

	if !errors.Is(err, ErrSameLanguage) {
		t.Errorf("expected ErrSameLanguage, got %v", err)
	}
	if store.putCalls.Load() != 0 {
		t.Errorf("expected zero storage writes, got %d", store.putCalls.Load())
	}
	if tr.translateCalls.Load() != 0 {
		t.Errorf("expected zero translate calls, got %d", tr.translateCalls.Load())
	}
}

func TestTranslate_EmptyFile(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store, &fakeTranslator{})

	_, err := o.Translate(context.Background(), Submission{
		FileName:       "contract.pdf",
		SourceLanguage: "French",
		TargetLanguage: "English",
	})

	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
	if store.putCalls.Load() != 0 {
		t.Errorf("expected zero storage writes, got %d", store.putCalls.Load())
	}
}

func TestTranslate_UnknownLanguage(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store, &fakeTranslator{})

	_, err := o.Translate(context.Background(), Submission{
		FileName:       "contract.pdf",
		Content:        []byte("data"),
		SourceLanguage: "German",
		TargetLanguage: "English",
	})

	if !errors.Is(err, registry.ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
	if store.putCalls.Load() != 0 {
		t.Errorf("expected zero storage writes, got %d", store.putCalls.Load())
	}
}

func TestTranslate_UnknownExtension(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store, &fakeTranslator{})

	_, err := o.Translate(context.Background(), Submission{
		FileName:       "notes.txt",
		Content:        []byte("data"),
		SourceLanguage: "French",
		TargetLanguage: "English",
	})

	if !errors.Is(err, registry.ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
	if store.putCalls.Load() != 0 {
		t.Errorf("expected zero storage writes, got %d", store.putCalls.Load())
	}
}

func TestTranslate_Success(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTranslator{
		translateFunc: func(ctx context.Context, req translator.DocumentRequest) (*translator.DocumentResult, error) {
			return &translator.DocumentResult{Content: []byte("translated bytes"), MimeType: req.MimeType}, nil
		},
	}
	o := newTestOrchestrator(store, tr)

	res, err := o.Translate(context.Background(), Submission{
		FileName:       "contract_fr.docx",
		Content:        []byte("original bytes"),
		SourceLanguage: "French",
		TargetLanguage: "English",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.FileName != "contract_en.docx" {
		t.Errorf("output name = %q, want %q", res.FileName, "contract_en.docx")
	}
	wantMime := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	if res.MimeType != wantMime {
		t.Errorf("mime = %q, want %q", res.MimeType, wantMime)
	}
	if string(res.Content) != "translated bytes" {
		t.Errorf("unexpected content %q", res.Content)
	}
	if res.CleanupWarning != nil {
		t.Errorf("unexpected cleanup warning: %v", res.CleanupWarning)
	}

	req := tr.lastDocReq
	if req.SourceCode != "fr" || req.TargetCode != "en" {
		t.Errorf("language codes = %q -> %q, want fr -> en", req.SourceCode, req.TargetCode)
	}
	if req.InputURI != "gs://translation_hub_tmp/contract/contract_fr.docx" {
		t.Errorf("input uri = %q", req.InputURI)
	}
	if req.OutputURIPrefix != "gs://translation_hub_tmp/contract/" {
		t.Errorf("output prefix = %q", req.OutputURIPrefix)
	}

	keys, _ := store.ListByPrefix(context.Background(), "translation_hub_tmp", "contract/")
	if len(keys) != 0 {
		t.Errorf("staging prefix not empty after success: %v", keys)
	}
}

func TestTranslate_NameWithoutLanguageSuffix(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTranslator{}
	o := newTestOrchestrator(store, tr)

	res, err := o.Translate(context.Background(), Submission{
		FileName:       "report.pdf",
		Content:        []byte("pdf bytes"),
		SourceLanguage: "Spanish",
		TargetLanguage: "Italian",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FileName != "report_it.pdf" {
		t.Errorf("output name = %q, want %q", res.FileName, "report_it.pdf")
	}
	if tr.lastDocReq.InputURI != "gs://translation_hub_tmp/report/report.pdf" {
		t.Errorf("input uri = %q", tr.lastDocReq.InputURI)
	}
}

func TestTranslate_ServiceErrorStillCleansUp(t *testing.T) {
	store := newFakeStore()
	serviceErr := translator.ErrRejected
	tr := &fakeTranslator{
		translateFunc: func(ctx context.Context, req translator.DocumentRequest) (*translator.DocumentResult, error) {
			return nil, serviceErr
		},
	}
	o := newTestOrchestrator(store, tr)

	_, err := o.Translate(context.Background(), Submission{
		FileName:       "contract_fr.docx",
		Content:        []byte("original bytes"),
		SourceLanguage: "French",
		TargetLanguage: "English",
	})

	if !errors.Is(err, translator.ErrRejected) {
		t.Errorf("expected service error to surface, got %v", err)
	}
	keys, _ := store.ListByPrefix(context.Background(), "translation_hub_tmp", "contract/")
	if len(keys) != 0 {
		t.Errorf("staging prefix not empty after failed translation: %v", keys)
	}
	if store.deleteCalls.Load() != 1 {
		t.Errorf("expected 1 cleanup call, got %d", store.deleteCalls.Load())
	}
}

func TestTranslate_StagingFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("quota exceeded")
	tr := &fakeTranslator{}
	o := newTestOrchestrator(store, tr)

	_, err := o.Translate(context.Background(), Submission{
		FileName:       "contract_fr.docx",
		Content:        []byte("original bytes"),
		SourceLanguage: "French",
		TargetLanguage: "English",
	})

	if err == nil {
		t.Fatal("expected staging error")
	}
	if tr.translateCalls.Load() != 0 {
		t.Errorf("translate must not run after a staging failure, got %d calls", tr.translateCalls.Load())
	}
	// Nothing was written, so nothing to clean up.
	if store.deleteCalls.Load() != 0 {
		t.Errorf("expected no cleanup after staging failure, got %d calls", store.deleteCalls.Load())
	}
}

func TestTranslate_CleanupFailureDoesNotVoidResult(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = errors.New("permission denied")
	o := newTestOrchestrator(store, &fakeTranslator{})

	res, err := o.Translate(context.Background(), Submission{
		FileName:       "contract_fr.docx",
		Content:        []byte("original bytes"),
		SourceLanguage: "French",
		TargetLanguage: "English",
	})
	if err != nil {
		t.Fatalf("cleanup failure must not fail the job: %v", err)
	}
	if res.CleanupWarning == nil {
		t.Error("expected a cleanup warning on the result")
	}
	if len(res.Content) == 0 {
		t.Error("expected the translated content to be delivered")
	}
}

type fakeRecorder struct {
	entries []journal.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, e journal.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func TestTranslate_RecordsJournalEntry(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{}
	o := New(store, &fakeTranslator{}, rec, testConfig(), zerolog.Nop())

	_, err := o.Translate(context.Background(), Submission{
		FileName:       "contract_fr.docx",
		Content:        []byte("bytes"),
		SourceLanguage: "French",
		TargetLanguage: "English",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Status != StatusDone || e.Flow != journal.FlowInteractive {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.SourceCode != "fr" || e.TargetCode != "en" {
		t.Errorf("codes did not reach the journal: %+v", e)
	}

	_, err = o.Translate(context.Background(), Submission{
		FileName:       "contract_fr.docx",
		Content:        []byte("bytes"),
		SourceLanguage: "French",
		TargetLanguage: "French",
	})
	if !errors.Is(err, ErrSameLanguage) {
		t.Fatalf("expected ErrSameLanguage, got %v", err)
	}
	if len(rec.entries) != 2 || rec.entries[1].Status != StatusFailed || rec.entries[1].Error == "" {
		t.Errorf("failed job not recorded: %+v", rec.entries)
	}
}

func TestHandleObjectCreated_UnsupportedLanguage(t *testing.T) {
	store := newFakeStore()
	store.objects["docs_input/invoice_de.pdf"] = []byte("pdf bytes")
	tr := &fakeTranslator{}
	o := newTestOrchestrator(store, tr)

	_, err := o.HandleObjectCreated(context.Background(), ObjectCreatedEvent{
		Name:   "invoice_de.pdf",
		Bucket: "docs_input",
	})

	if !errors.Is(err, registry.ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
	if !store.has("docs_error", "invoice_de.pdf") {
		t.Error("expected input to be moved to the error bucket")
	}
	if store.has("docs_input", "invoice_de.pdf") {
		t.Error("expected input to be deleted from the input bucket")
	}
	if tr.batchCalls.Load() != 0 {
		t.Errorf("translation service must not be called, got %d calls", tr.batchCalls.Load())
	}
}

func TestHandleObjectCreated_UnsupportedExtension(t *testing.T) {
	store := newFakeStore()
	store.objects["docs_input/notes_fr.txt"] = []byte("text")
	tr := &fakeTranslator{}
	o := newTestOrchestrator(store, tr)

	_, err := o.HandleObjectCreated(context.Background(), ObjectCreatedEvent{
		Name:   "notes_fr.txt",
		Bucket: "docs_input",
	})

	if !errors.Is(err, registry.ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
	if !store.has("docs_error", "notes_fr.txt") {
		t.Error("expected input to be moved to the error bucket")
	}
	if tr.batchCalls.Load() != 0 {
		t.Errorf("translation service must not be called, got %d calls", tr.batchCalls.Load())
	}
}

func TestHandleObjectCreated_EnglishSource(t *testing.T) {
	store := newFakeStore()
	store.objects["docs_input/report_en.pdf"] = []byte("pdf bytes")
	o := newTestOrchestrator(store, &fakeTranslator{})

	_, err := o.HandleObjectCreated(context.Background(), ObjectCreatedEvent{
		Name:   "report_en.pdf",
		Bucket: "docs_input",
	})

	if !errors.Is(err, ErrSameLanguage) {
		t.Errorf("expected ErrSameLanguage, got %v", err)
	}
	if !store.has("docs_error", "report_en.pdf") {
		t.Error("expected input to be moved to the error bucket")
	}
}

func TestHandleObjectCreated_RoutingConflict(t *testing.T) {
	store := newFakeStore()
	store.objects["docs_input/invoice_de.pdf"] = []byte("pdf bytes")
	store.objects["docs_error/invoice_de.pdf"] = []byte("older copy")
	o := newTestOrchestrator(store, &fakeTranslator{})

	_, err := o.HandleObjectCreated(context.Background(), ObjectCreatedEvent{
		Name:   "invoice_de.pdf",
		Bucket: "docs_input",
	})

	if !errors.Is(err, ErrRoutingConflict) {
		t.Errorf("expected ErrRoutingConflict, got %v", err)
	}
	// The aborted move must not overwrite the existing object.
	if string(store.objects["docs_error/invoice_de.pdf"]) != "older copy" {
		t.Error("conflicting object was overwritten")
	}
	if !store.has("docs_input", "invoice_de.pdf") {
		t.Error("input must stay put when the move is aborted")
	}
}

func TestHandleObjectCreated_Success(t *testing.T) {
	store := newFakeStore()
	store.objects["docs_input/report_fr.pdf"] = []byte("pdf bytes")
	tr := &fakeTranslator{
		batchFunc: func(ctx context.Context, req translator.BatchRequest) (translator.Operation, error) {
			return &fakeOperation{result: &translator.BatchResult{TotalPages: 7, TranslatedPages: 7}}, nil
		},
	}
	o := newTestOrchestrator(store, tr)

	outcome, err := o.HandleObjectCreated(context.Background(), ObjectCreatedEvent{
		Name:   "report_fr.pdf",
		Bucket: "docs_input",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.SourceCode != "fr" {
		t.Errorf("source code = %q, want fr", outcome.SourceCode)
	}
	if outcome.TotalPages != 7 {
		t.Errorf("total pages = %d, want 7", outcome.TotalPages)
	}

	req := tr.lastBatchReq
	if req.InputURI != "gs://docs_input/report_fr.pdf" {
		t.Errorf("input uri = %q", req.InputURI)
	}
	if req.OutputURIPrefix != "gs://docs_output/report_fr/" {
		t.Errorf("output prefix = %q", req.OutputURIPrefix)
	}
	if len(req.TargetCodes) != 1 || req.TargetCodes[0] != "en" {
		t.Errorf("target codes = %v, want [en]", req.TargetCodes)
	}
	if !store.has("docs_input", "report_fr.pdf") {
		t.Error("successful batch must leave the input in place")
	}
}

func TestHandleObjectCreated_ProviderFailureDoesNotMoveInput(t *testing.T) {
	store := newFakeStore()
	store.objects["docs_input/report_fr.pdf"] = []byte("pdf bytes")
	tr := &fakeTranslator{
		batchFunc: func(ctx context.Context, req translator.BatchRequest) (translator.Operation, error) {
			return &fakeOperation{err: translator.ErrUnavailable}, nil
		},
	}
	o := newTestOrchestrator(store, tr)

	_, err := o.HandleObjectCreated(context.Background(), ObjectCreatedEvent{
		Name:   "report_fr.pdf",
		Bucket: "docs_input",
	})

	if !errors.Is(err, translator.ErrUnavailable) {
		t.Errorf("expected provider error to surface, got %v", err)
	}
	if store.moveCalls.Load() != 0 {
		t.Errorf("provider failures must not move the input, got %d move calls", store.moveCalls.Load())
	}
	if !store.has("docs_input", "report_fr.pdf") {
		t.Error("input must stay in the input bucket after a provider failure")
	}
}

func TestHandleObjectCreated_ShortStem(t *testing.T) {
	store := newFakeStore()
	store.objects["docs_input/a.pdf"] = []byte("pdf bytes")
	o := newTestOrchestrator(store, &fakeTranslator{})

	_, err := o.HandleObjectCreated(context.Background(), ObjectCreatedEvent{
		Name:   "a.pdf",
		Bucket: "docs_input",
	})

	if !errors.Is(err, registry.ErrNotSupported) {
		t.Errorf("expected ErrNotSupported for a stem too short to carry a code, got %v", err)
	}
	if !store.has("docs_error", "a.pdf") {
		t.Error("expected input to be moved to the error bucket")
	}
}
