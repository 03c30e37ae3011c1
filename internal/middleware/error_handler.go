package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"immoci-backend/internal/pkg/response"
)

// ErrorHandler turns errors that escape the handler chain into the standard
// error envelope and logs them with the request's trace ID. Handlers map
// their own domain errors; anything reaching this point is unexpected.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("trace_id", GetTraceID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("erreur non geree")
	}

	return response.Error(c, message, code, map[string]interface{}{})
}
