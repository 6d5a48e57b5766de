// Package orchestrator sequences staging, translation, result delivery and
// cleanup for document translation jobs. One call owns one job from
// submission to terminal state; jobs share no in-memory state because
// staging keys are partitioned by job-scoped prefixes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yrakibi/doctran/internal/journal"
	"github.com/yrakibi/doctran/internal/registry"
	"github.com/yrakibi/doctran/internal/storage"
	"github.com/yrakibi/doctran/internal/translator"
)

// Job states. Failed is reachable from any of the others.
const (
	StatusValidating  = "validating"
	StatusStaging     = "staging"
	StatusTranslating = "translating"
	StatusDelivering  = "delivering"
	StatusDone        = "done"
	StatusFailed      = "failed"
)

var (
	ErrSameLanguage = errors.New("source and destination language cannot be the same")
	ErrEmptyFile    = errors.New("no file content submitted")

	// ErrRoutingConflict means a malformed batch input could not be moved
	// to the error location because an object with the same name is
	// already there. There is no safe fallback disposition.
	ErrRoutingConflict = errors.New("object already present in error location")
)

type Config struct {
	StagingBucket string
	InputBucket   string
	OutputBucket  string
	ErrorBucket   string
}

// Recorder persists job outcomes. Recording is best effort and never
// fails a job.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

type Orchestrator struct {
	store      storage.Store
	translator translator.DocumentTranslator
	recorder   Recorder
	cfg        Config
	logger     zerolog.Logger
}

func New(store storage.Store, tr translator.DocumentTranslator, rec Recorder, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		translator: tr,
		recorder:   rec,
		cfg:        cfg,
		logger:     logger,
	}
}

// Submission is one interactive translation request.
type Submission struct {
	FileName       string
	Content        []byte
	SourceLanguage string
	TargetLanguage string
}

// Result is the deliverable of a successful interactive job. CleanupWarning
// is set when the translated document was produced but the staged input
// could not be purged; it never voids the result.
type Result struct {
	Content        []byte
	FileName       string
	MimeType       string
	CleanupWarning error
}

// Translate runs the interactive single-document flow: validate, stage the
// file into the staging bucket, issue the synchronous translate call
// against the staged object's URI, purge the staged copy and return the
// translated bytes. The staged copy is purged on the failure path too,
// provided staging itself succeeded.
func (o *Orchestrator) Translate(ctx context.Context, sub Submission) (*Result, error) {
	job := journal.Entry{
		ID:        uuid.New().String(),
		FileName:  sub.FileName,
		Flow:      journal.FlowInteractive,
		Status:    StatusValidating,
		CreatedAt: time.Now().UTC(),
	}
	log := o.logger.With().Str("job_id", job.ID).Str("file", sub.FileName).Logger()

	// Validating: reject before any side effect.
	if len(sub.Content) == 0 {
		return nil, o.fail(ctx, job, log, ErrEmptyFile)
	}
	if sub.SourceLanguage == sub.TargetLanguage {
		return nil, o.fail(ctx, job, log, ErrSameLanguage)
	}

	srcCode, err := registry.LanguageCode(sub.SourceLanguage)
	if err != nil {
		return nil, o.fail(ctx, job, log, err)
	}
	dstCode, err := registry.LanguageCode(sub.TargetLanguage)
	if err != nil {
		return nil, o.fail(ctx, job, log, err)
	}
	job.SourceCode = srcCode
	job.TargetCode = dstCode

	ext := path.Ext(sub.FileName)
	mimeType, err := registry.MimeType(ext)
	if err != nil {
		return nil, o.fail(ctx, job, log, err)
	}

	stem := trimLanguageSuffix(strings.TrimSuffix(sub.FileName, ext))
	stagingKey := stem + "/" + sub.FileName
	stagingPrefix := stem + "/"

	// Staging. A failure here leaves nothing behind, so no cleanup.
	job.Status = StatusStaging
	log.Debug().Str("key", stagingKey).Msg("staging source document")
	if err := o.store.Put(ctx, o.cfg.StagingBucket, stagingKey, sub.Content); err != nil {
		return nil, o.fail(ctx, job, log, err)
	}

	// Translating.
	job.Status = StatusTranslating
	log.Debug().Str("source", srcCode).Str("target", dstCode).Msg("calling translation service")
	res, err := o.translator.TranslateDocument(ctx, translator.DocumentRequest{
		SourceCode:      srcCode,
		TargetCode:      dstCode,
		InputURI:        storage.ObjectURI(o.cfg.StagingBucket, stagingKey),
		OutputURIPrefix: storage.ObjectURI(o.cfg.StagingBucket, stagingPrefix),
		MimeType:        mimeType,
	})
	if err != nil {
		// Input was staged, so it must still be purged. A cleanup failure
		// here is logged but never masks the service error.
		if _, cerr := o.store.DeleteByPrefix(ctx, o.cfg.StagingBucket, stagingPrefix); cerr != nil {
			log.Warn().Err(cerr).Str("prefix", stagingPrefix).Msg("staged objects left behind after failed translation")
		}
		return nil, o.fail(ctx, job, log, err)
	}

	// Delivering: cleanup is attempted, but the result stands regardless.
	job.Status = StatusDelivering
	var warn error
	if _, cerr := o.store.DeleteByPrefix(ctx, o.cfg.StagingBucket, stagingPrefix); cerr != nil {
		warn = fmt.Errorf("cleanup of staging prefix %q: %w", stagingPrefix, cerr)
		log.Warn().Err(cerr).Str("prefix", stagingPrefix).Msg("cleanup failed after successful translation")
	}

	job.Status = StatusDone
	job.FinishedAt = time.Now().UTC()
	o.record(ctx, job, log)
	log.Info().Str("output", stem+"_"+dstCode+ext).Msg("document translated")

	return &Result{
		Content:        res.Content,
		FileName:       fmt.Sprintf("%s_%s%s", stem, dstCode, ext),
		MimeType:       mimeType,
		CleanupWarning: warn,
	}, nil
}

// trimLanguageSuffix drops a trailing _xx language tag from a file stem,
// so contract_fr becomes contract. Only supported codes are recognized.
func trimLanguageSuffix(stem string) string {
	if len(stem) > 3 && stem[len(stem)-3] == '_' && registry.SupportedCode(stem[len(stem)-2:]) {
		return stem[:len(stem)-3]
	}
	return stem
}

func (o *Orchestrator) fail(ctx context.Context, job journal.Entry, log zerolog.Logger, cause error) error {
	job.Status = StatusFailed
	job.Error = cause.Error()
	job.FinishedAt = time.Now().UTC()
	o.record(ctx, job, log)
	log.Error().Err(cause).Msg("job failed")
	return cause
}

func (o *Orchestrator) record(ctx context.Context, job journal.Entry, log zerolog.Logger) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, job); err != nil {
		log.Warn().Err(err).Msg("failed to record job in journal")
	}
}
