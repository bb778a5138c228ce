package middleware

import (
	"errors"
	"log/slog"

	"mafiamadness/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:   fiber.StatusUnprocessableEntity,
	apperr.KindNotFound:     fiber.StatusNotFound,
	apperr.KindConflict:     fiber.StatusUnprocessableEntity,
	apperr.KindUnauthorized: fiber.StatusUnauthorized,
	apperr.KindForbidden:    fiber.StatusForbidden,
	apperr.KindBadRequest:   fiber.StatusBadRequest,
	apperr.KindInternal:     fiber.StatusInternalServerError,
}

// ErrorHandler is the fiber.Config ErrorHandler. Tagged failures map to their status;
// fiber errors keep theirs; everything else is a logged 500 with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message, Code: codeForStatus(fe.Code)})
	}

	kind := apperr.KindOf(err)
	status := kindStatus[kind]
	if kind == apperr.KindInternal {
		slog.Error("request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}

	return c.Status(status).JSON(ErrorResponse{
		Error:  apperr.MessageOf(err),
		Code:   kind.String(),
		Fields: apperr.FieldsOf(err),
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperr.KindNotFound.String()
	case fiber.StatusUnauthorized:
		return apperr.KindUnauthorized.String()
	case fiber.StatusForbidden:
		return apperr.KindForbidden.String()
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return apperr.KindBadRequest.String()
	}
	if status >= 500 {
		return apperr.KindInternal.String()
	}
	return "ERROR"
}
