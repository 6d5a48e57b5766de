package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/yrakibi/doctran/internal/journal"
	"github.com/yrakibi/doctran/internal/orchestrator"
	"github.com/yrakibi/doctran/internal/registry"
	"github.com/yrakibi/doctran/internal/translator"
)

type errorResponse struct {
	Error string `json:"error"`
}

type eventResponse struct {
	Status  string                     `json:"status"`
	Error   string                     `json:"error,omitempty"`
	Outcome *orchestrator.BatchOutcome `json:"outcome,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleTranslate accepts a multipart submission (file, source_language,
// target_language) and responds with the translated document as a named
// attachment.
func (s *Server) handleTranslate(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "a file is required"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("reading upload: %v", err)})
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("reading upload: %v", err)})
	}

	res, err := s.svc.Translate(c.Request().Context(), orchestrator.Submission{
		FileName:       fileHeader.Filename,
		Content:        content,
		SourceLanguage: c.FormValue("source_language"),
		TargetLanguage: c.FormValue("target_language"),
	})
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
	}

	if res.CleanupWarning != nil {
		// Already logged by the orchestrator; the deliverable stands.
		c.Response().Header().Set("Warning", `199 - "staged objects could not be cleaned up"`)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", res.FileName))
	return c.Blob(http.StatusOK, res.MimeType, res.Content)
}

// handleObjectCreated receives a storage object-created notification and
// runs the batch flow. Terminal validation failures are acknowledged with
// 200 so the push subscription does not redeliver a permanently malformed
// input; provider failures return 502 and may be redelivered.
func (s *Server) handleObjectCreated(c echo.Context) error {
	var ev orchestrator.ObjectCreatedEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("malformed event: %v", err)})
	}
	if ev.Name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "event is missing the object name"})
	}

	outcome, err := s.svc.HandleObjectCreated(c.Request().Context(), ev)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, eventResponse{Status: "done", Outcome: outcome})
	case errors.Is(err, orchestrator.ErrRoutingConflict):
		return c.JSON(http.StatusConflict, eventResponse{Status: "failed", Error: err.Error()})
	case isValidationError(err):
		return c.JSON(http.StatusOK, eventResponse{Status: "rejected", Error: err.Error()})
	default:
		return c.JSON(statusFor(err), eventResponse{Status: "failed", Error: err.Error()})
	}
}

func (s *Server) handleJobs(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		}
		limit = n
	}

	if s.jobs == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "job journal is not enabled"})
	}

	entries, err := s.jobs.Recent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func isValidationError(err error) bool {
	return errors.Is(err, registry.ErrNotSupported) ||
		errors.Is(err, orchestrator.ErrSameLanguage) ||
		errors.Is(err, orchestrator.ErrEmptyFile)
}

func statusFor(err error) int {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, translator.ErrUnauthenticated),
		errors.Is(err, translator.ErrInvalidLanguagePair),
		errors.Is(err, translator.ErrUnsupportedFormat),
		errors.Is(err, translator.ErrUnavailable),
		errors.Is(err, translator.ErrRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
