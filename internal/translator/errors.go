package translator

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Every provider failure is normalized into one of these before it leaves
// the package. The raw provider message is kept verbatim in the wrapped
// error text for operator diagnosis.
var (
	ErrUnauthenticated     = errors.New("provider authentication failed")
	ErrInvalidLanguagePair = errors.New("provider rejected language pair")
	ErrUnsupportedFormat   = errors.New("provider rejected document format")
	ErrUnavailable         = errors.New("provider unavailable")
	ErrRejected            = errors.New("provider rejected request")
)

func normalizeError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}

	msg := st.Message()
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, msg)
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	case codes.InvalidArgument:
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "language"):
			return fmt.Errorf("%w: %s", ErrInvalidLanguagePair, msg)
		case strings.Contains(lower, "mime") || strings.Contains(lower, "format"):
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, msg)
		default:
			return fmt.Errorf("%w: %s", ErrRejected, msg)
		}
	default:
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
}
