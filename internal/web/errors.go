package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/sg-semilla/semilla-auth/internal/apperr"
	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
)

// ErrorHandler renders errors returned by handlers:
//   - *auth.Rejection: 401 {message}
//   - *apperr.Error: status of its kind, {message, errors}
//   - *fiber.Error: its code, {message}
//   - anything else: 500 {status, message, detail, timestamp}
//
// hideDetail blanks detail so internal error text never reaches clients.
func ErrorHandler(hideDetail bool) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var rejection *auth.Rejection
		if errors.As(err, &rejection) {
			return c.Status(fiber.StatusUnauthorized).JSON(handler.MessageResponse{Message: rejection.Message()})
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			status := appErr.Kind.Status()
			if status >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			}

			return c.Status(status).JSON(handler.ValidationResponse{Message: appErr.Message, Errors: appErr.Fields})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(handler.MessageResponse{Message: fiberErr.Message})
		}

		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("unhandled error")

		body := handler.InternalErrorResponse{
			Status:    fiber.StatusInternalServerError,
			Message:   "An internal server error occurred",
			Detail:    err.Error(),
			Timestamp: time.Now().UTC(),
		}

		if hideDetail {
			body.Detail = ""
		}

		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
}
