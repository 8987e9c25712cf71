package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"redline/api/internal/docx"
	"redline/api/internal/session"
	"redline/api/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// mapError translates engine sentinels and domain errors into an HTTP
// status, stable error code, and message.
func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, docx.ErrInvalidFormat):
		return http.StatusUnprocessableEntity, "INVALID_FORMAT", "File is not a valid DOCX container", nil
	case errors.Is(err, docx.ErrMissingPart):
		return http.StatusUnprocessableEntity, "INVALID_FORMAT", "Container is missing word/document.xml", nil
	case errors.Is(err, docx.ErrCorruptDocument):
		return http.StatusUnprocessableEntity, "CORRUPT_DOCUMENT", "Document XML could not be parsed", nil
	case errors.Is(err, docx.ErrEmptyDocument):
		return http.StatusUnprocessableEntity, "EMPTY_DOCUMENT", "Document body is empty", nil
	case errors.Is(err, docx.ErrUnknownParagraph):
		return http.StatusUnprocessableEntity, "UNKNOWN_PARAGRAPH", "Edit references a paragraph id not in this session", nil
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "Editing session not found or expired; re-upload the document", nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
