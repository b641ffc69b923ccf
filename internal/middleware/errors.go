package middleware

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperr.HTTPStatus(err)
}

// ErrorHandler renders every handler error as a JSON envelope. Unknown errors
// become a generic internal error; their detail is logged, never returned.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var body errorBody
		var fe *fiber.Error
		if errors.As(err, &fe) {
			body = errorBody{Kind: kindForStatus(fe.Code), Code: codeForStatus(fe.Code), Message: fe.Message}
		} else {
			e := apperr.From(err)
			if e.Kind == apperr.KindInternal && e.Err != nil {
				logger.Error("unhandled error", "path", c.Path(), "request_id", RequestIDFrom(c), "error", e.Err)
			}
			body = errorBody{Kind: e.Kind, Code: e.Code, Message: e.Message}
		}
		return c.Status(statusOf(err)).JSON(errorResponse{Error: body, RequestID: RequestIDFrom(c)})
	}
}

func kindForStatus(status int) apperr.Kind {
	switch {
	case status == fiber.StatusUnauthorized:
		return apperr.KindAuth
	case status == fiber.StatusForbidden:
		return apperr.KindPermission
	case status == fiber.StatusNotFound:
		return apperr.KindNotFound
	case status == fiber.StatusConflict:
		return apperr.KindConflict
	case status >= fiber.StatusInternalServerError:
		return apperr.KindInternal
	default:
		return apperr.KindValidation
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "route_not_found"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "http_" + strconv.Itoa(status)
	}
}
