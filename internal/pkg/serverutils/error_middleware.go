package serverutils

import (
	"errors"

	"focus-session-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbled up from controllers into
// the structured error envelope. Domain errors keep their code and status;
// anything else becomes a 500 without leaking internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if appErr, ok := apperror.As(err); ok {
			return ctx.Status(appErr.Status).JSON(
				ErrorResponse(appErr.Message, appErr.Code, appErr.Extra),
			)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(
				ErrorResponse(fiberErr.Message, "", nil),
			)
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(
			ErrorResponse("internal server error", "", nil),
		)
	}
}
