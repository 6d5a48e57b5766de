package translator

import (
	"context"
	"fmt"
)

type Config struct {
	ProjectID   string `mapstructure:"project_id" json:"project_id"`
	Location    string `mapstructure:"location" json:"location"`
	Credentials string `mapstructure:"credentials" json:"credentials"`
}

// Parent returns the provider resource path requests are addressed to.
func (c Config) Parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.ProjectID, c.Location)
}

// DocumentRequest describes one synchronous document translation. The
// document itself is passed by reference as a storage URI, never inline.
type DocumentRequest struct {
	SourceCode      string
	TargetCode      string
	InputURI        string
	OutputURIPrefix string
	MimeType        string
}

// DocumentResult carries the inline translated document returned by the
// synchronous call.
type DocumentResult struct {
	Content  []byte
	MimeType string
}

// BatchRequest describes an asynchronous batch document translation.
type BatchRequest struct {
	SourceCode      string
	TargetCodes     []string
	InputURI        string
	OutputURIPrefix string
}

// BatchResult is the terminal state of a successful batch operation.
type BatchResult struct {
	TotalPages      int64
	TranslatedPages int64
	FailedPages     int64
}

// Operation is a handle on a provider-side long-running batch translation.
// Cancellation of the provider-side work is not supported; cancelling the
// Wait context only abandons the client-side wait.
type Operation interface {
	Wait(ctx context.Context) (*BatchResult, error)
}

type DocumentTranslator interface {
	TranslateDocument(ctx context.Context, req DocumentRequest) (*DocumentResult, error)
	BatchTranslateDocument(ctx context.Context, req BatchRequest) (Operation, error)
	Close() error
}
