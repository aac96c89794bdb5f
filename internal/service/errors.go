package service

import (
	"errors"
	"strings"
)

// Error families. Every sentinel below wraps exactly one of them, which is what handlers map to a status.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("not authorized to perform this action")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrBadRequest   = errors.New("request cannot be applied")
)

var (
	ErrInvalidCredentials = kindError(ErrUnauthorized, "invalid credentials")

	ErrUserNotFound       = kindError(ErrNotFound, "user not found")
	ErrSubjectNotFound    = kindError(ErrNotFound, "subject not found")
	ErrExamPaperNotFound  = kindError(ErrNotFound, "exam paper not found")
	ErrSubmissionNotFound = kindError(ErrNotFound, "submission not found")
	ErrResultNotFound     = kindError(ErrNotFound, "result not found")

	ErrEmailExists     = kindError(ErrConflict, "email already exists")
	ErrStudentIDExists = kindError(ErrConflict, "student id already exists")
	ErrFacultyIDExists = kindError(ErrConflict, "faculty id already exists")
	ErrSubjectInUse    = kindError(ErrConflict, "subject is referenced by exam papers")

	ErrPaperLocked       = kindError(ErrBadRequest, "cannot update approved or rejected exam paper")
	ErrPaperNotOpen      = kindError(ErrBadRequest, "exam paper is not open for submissions")
	ErrAlreadySubmitted  = kindError(ErrBadRequest, "you have already submitted this exam")
	ErrInvalidTransition = kindError(ErrBadRequest, "invalid status transition")
	ErrNotEvaluated      = kindError(ErrBadRequest, "submission must be evaluated before submitting to admin")
	ErrNotForwarded      = kindError(ErrBadRequest, "submission must be submitted to admin before publishing")
)

type familyError struct {
	message string
	family  error
}

func kindError(family error, message string) error {
	return &familyError{message: message, family: family}
}

func (e *familyError) Error() string { return e.message }

func (e *familyError) Unwrap() error { return e.family }

// ValidationError reports invalid input together with per-field or per-record details.
type ValidationError struct {
	Message string
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return ErrValidation.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(message string, details map[string]interface{}) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

// fieldErrors accumulates field level problems into a ValidationError.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	details := make(map[string]interface{}, len(f))
	fields := make([]string, 0, len(f))
	for field, message := range f {
		details[field] = message
		fields = append(fields, field)
	}
	return newValidationError("invalid fields: "+strings.Join(sortedStrings(fields), ", "), details)
}
