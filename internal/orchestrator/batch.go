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

// The batch flow always translates into English; the source language is
// inferred from the file name.
var batchTargetCodes = []string{"en"}

// ObjectCreatedEvent is a storage object-created notification. The source
// language is carried as the trailing two characters of the file stem,
// e.g. report_fr.pdf.
type ObjectCreatedEvent struct {
	Name        string    `json:"name"`
	Bucket      string    `json:"bucket"`
	ContentType string    `json:"contentType"`
	TimeCreated time.Time `json:"timeCreated"`
}

// BatchOutcome is the terminal report of a successful batch job.
type BatchOutcome struct {
	SourceCode      string   `json:"source_code"`
	TargetCodes     []string `json:"target_codes"`
	OutputPrefix    string   `json:"output_prefix"`
	TotalPages      int64    `json:"total_pages"`
	TranslatedPages int64    `json:"translated_pages"`
	FailedPages     int64    `json:"failed_pages"`
}

// HandleObjectCreated runs the event-triggered batch flow. Inputs that
// fail pre-validation (unsupported extension, unknown or same-language
// source code) are moved to the error bucket before the job fails; inputs
// that fail at the provider stay where they are, since those failures may
// be transient and operator-actionable.
func (o *Orchestrator) HandleObjectCreated(ctx context.Context, ev ObjectCreatedEvent) (*BatchOutcome, error) {
	job := journal.Entry{
		ID:        uuid.New().String(),
		FileName:  ev.Name,
		Flow:      journal.FlowBatch,
		Status:    StatusValidating,
		CreatedAt: time.Now().UTC(),
	}
	log := o.logger.With().Str("job_id", job.ID).Str("file", ev.Name).Logger()

	inputBucket := ev.Bucket
	if inputBucket == "" {
		inputBucket = o.cfg.InputBucket
	}

	ext := path.Ext(ev.Name)
	stem := strings.TrimSuffix(ev.Name, ext)

	if _, err := registry.MimeType(ext); err != nil {
		return nil, o.routeToError(ctx, job, log, inputBucket, ev.Name, err)
	}

	srcCode := inferSourceCode(stem)
	job.SourceCode = srcCode
	if !registry.SupportedCode(srcCode) {
		err := fmt.Errorf("source language %q %w: the file stem must end with one of the supported codes", srcCode, registry.ErrNotSupported)
		return nil, o.routeToError(ctx, job, log, inputBucket, ev.Name, err)
	}
	if containsCode(batchTargetCodes, srcCode) {
		return nil, o.routeToError(ctx, job, log, inputBucket, ev.Name,
			fmt.Errorf("%w: inferred source %q is a batch target", ErrSameLanguage, srcCode))
	}
	job.TargetCode = strings.Join(batchTargetCodes, ",")

	outputPrefix := storage.ObjectURI(o.cfg.OutputBucket, stem+"/")

	job.Status = StatusTranslating
	log.Info().Str("source", srcCode).Strs("targets", batchTargetCodes).Msg("starting batch translation")
	op, err := o.translator.BatchTranslateDocument(ctx, translator.BatchRequest{
		SourceCode:      srcCode,
		TargetCodes:     batchTargetCodes,
		InputURI:        storage.ObjectURI(inputBucket, ev.Name),
		OutputURIPrefix: outputPrefix,
	})
	if err != nil {
		return nil, o.fail(ctx, job, log, err)
	}

	res, err := op.Wait(ctx)
	if err != nil {
		return nil, o.fail(ctx, job, log, err)
	}

	job.Status = StatusDone
	job.TotalPages = res.TotalPages
	job.FinishedAt = time.Now().UTC()
	o.record(ctx, job, log)
	log.Info().Int64("total_pages", res.TotalPages).Str("output", outputPrefix).Msg("batch translation complete")

	return &BatchOutcome{
		SourceCode:      srcCode,
		TargetCodes:     batchTargetCodes,
		OutputPrefix:    outputPrefix,
		TotalPages:      res.TotalPages,
		TranslatedPages: res.TranslatedPages,
		FailedPages:     res.FailedPages,
	}, nil
}

// routeToError moves a permanently malformed input to the error bucket and
// fails the job with the validation cause. A conflict at the error
// location is fatal in its own right.
func (o *Orchestrator) routeToError(ctx context.Context, job journal.Entry, log zerolog.Logger, bucket, key string, cause error) error {
	if merr := o.store.Move(ctx, bucket, key, o.cfg.ErrorBucket); merr != nil {
		if errors.Is(merr, storage.ErrDestinationExists) {
			return o.fail(ctx, job, log, fmt.Errorf("%w: %s (rejected for: %v)", ErrRoutingConflict, key, cause))
		}
		return o.fail(ctx, job, log, fmt.Errorf("moving %s to error bucket (rejected for: %v): %w", key, cause, merr))
	}
	log.Info().Str("error_bucket", o.cfg.ErrorBucket).Msg("malformed input moved to error location")
	return o.fail(ctx, job, log, cause)
}

// inferSourceCode reads the language code off the end of a file stem.
func inferSourceCode(stem string) string {
	if len(stem) < 2 {
		return ""
	}
	return stem[len(stem)-2:]
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
