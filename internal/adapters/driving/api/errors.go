package api

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("api: answer service is required")

// ErrMissingIngestService is returned when the ingest service is not provided.
var ErrMissingIngestService = errors.New("api: ingest service is required")

// Error is the JSON body of a failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
	Stage   string `json:"stage,omitempty"`
}

// Error implements error.
func (e Error) Error() string {
	return e.Message
}

// NewError creates an Error.
func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

// ErrBadRequest reports an undecodable body.
func ErrBadRequest() Error {
	return NewError(fiber.StatusBadRequest, "invalid JSON request")
}

// ValidationError reports request fields that failed validation.
type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

// Error implements error.
func (e ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError creates a ValidationError with status 422.
func NewValidationError(fields map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: fields,
	}
}

// ErrorHandler writes err as JSON with a status derived from its type or
// the domain sentinel it wraps.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	var apiErr Error
	if !errors.As(err, &apiErr) {
		apiErr = NewError(statusOf(err), err.Error())
		if stage, ok := domain.StageOf(err); ok {
			apiErr.Stage = stage.String()
		}
	}

	logger.Warn("%s %s failed with %d: %s", c.Method(), c.Path(), apiErr.Code, apiErr.Message)
	return c.Status(apiErr.Code).JSON(apiErr)
}

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrNoResults):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIngestInProgress),
		errors.Is(err, domain.ErrModelMismatch),
		errors.Is(err, domain.ErrDimensionMismatch):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrEmbedding):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// validationFields flattens validator output into field -> message.
func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			fields[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return fields
	}
	fields["body"] = err.Error()
	return fields
}
