package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate/apiv3"
	"cloud.google.com/go/translate/apiv3/translatepb"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleTranslator talks to the Cloud Translation v3 document API.
// Credentials come from the ambient environment (Application Default
// Credentials) or from an explicit credentials file; never from literals.
type GoogleTranslator struct {
	client *translate.TranslationClient
	parent string
}

func NewGoogle(ctx context.Context, cfg Config) (*GoogleTranslator, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	opts := []option.ClientOption{}
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := translate.NewTranslationClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation client: %w", err)
	}

	return &GoogleTranslator{client: client, parent: cfg.Parent()}, nil
}

func (g *GoogleTranslator) TranslateDocument(ctx context.Context, req DocumentRequest) (*DocumentResult, error) {
	if err := checkCodes(req.SourceCode, req.TargetCode); err != nil {
		return nil, err
	}

	resp, err := g.client.TranslateDocument(ctx, &translatepb.TranslateDocumentRequest{
		Parent:             g.parent,
		SourceLanguageCode: req.SourceCode,
		TargetLanguageCode: req.TargetCode,
		DocumentInputConfig: &translatepb.DocumentInputConfig{
			Source: &translatepb.DocumentInputConfig_GcsSource{
				GcsSource: &translatepb.GcsSource{InputUri: req.InputURI},
			},
			MimeType: req.MimeType,
		},
		DocumentOutputConfig: &translatepb.DocumentOutputConfig{
			Destination: &translatepb.DocumentOutputConfig_GcsDestination{
				GcsDestination: &translatepb.GcsDestination{OutputUriPrefix: req.OutputURIPrefix},
			},
		},
	})
	if err != nil {
		return nil, normalizeError(err)
	}

	doc := resp.GetDocumentTranslation()
	if doc == nil || len(doc.GetByteStreamOutputs()) == 0 {
		return nil, fmt.Errorf("%w: response carries no document translation", ErrRejected)
	}

	mime := doc.GetMimeType()
	if mime == "" {
		mime = req.MimeType
	}

	return &DocumentResult{Content: doc.GetByteStreamOutputs()[0], MimeType: mime}, nil
}

func (g *GoogleTranslator) BatchTranslateDocument(ctx context.Context, req BatchRequest) (Operation, error) {
	if err := checkCodes(append([]string{req.SourceCode}, req.TargetCodes...)...); err != nil {
		return nil, err
	}

	op, err := g.client.BatchTranslateDocument(ctx, &translatepb.BatchTranslateDocumentRequest{
		Parent:              g.parent,
		SourceLanguageCode:  req.SourceCode,
		TargetLanguageCodes: req.TargetCodes,
		InputConfigs: []*translatepb.BatchDocumentInputConfig{{
			Source: &translatepb.BatchDocumentInputConfig_GcsSource{
				GcsSource: &translatepb.GcsSource{InputUri: req.InputURI},
			},
		}},
		OutputConfig: &translatepb.BatchDocumentOutputConfig{
			Destination: &translatepb.BatchDocumentOutputConfig_GcsDestination{
				GcsDestination: &translatepb.GcsDestination{OutputUriPrefix: req.OutputURIPrefix},
			},
		},
	})
	if err != nil {
		return nil, normalizeError(err)
	}

	return &googleOperation{op: op}, nil
}

func (g *GoogleTranslator) Close() error {
	return g.client.Close()
}

type googleOperation struct {
	op *translate.BatchTranslateDocumentOperation
}

func (o *googleOperation) Wait(ctx context.Context) (*BatchResult, error) {
	resp, err := o.op.Wait(ctx)
	if err != nil {
		return nil, normalizeError(err)
	}
	return &BatchResult{
		TotalPages:      resp.GetTotalPages(),
		TranslatedPages: resp.GetTranslatedPages(),
		FailedPages:     resp.GetFailedPages(),
	}, nil
}

// checkCodes rejects malformed language codes before they hit the wire.
func checkCodes(codes ...string) error {
	for _, code := range codes {
		if _, err := language.Parse(code); err != nil {
			return fmt.Errorf("%w: invalid language code %q", ErrInvalidLanguagePair, code)
		}
	}
	return nil
}
