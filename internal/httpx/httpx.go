package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/logging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Bind parses the JSON body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fiber.NewError(http.StatusBadRequest, strings.Join(msgs, "; "))
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ErrorHandler renders errors as {"error", "kind"} JSON and logs server faults.
// Domain errors are mapped through apperrors; internal faults are not echoed.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		msg := "internal error"
		kind := apperrors.Kind(err)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status, msg, kind = fe.Code, fe.Message, "request"
		} else if s := apperrors.HTTPStatus(err); s != http.StatusInternalServerError {
			status, msg = s, err.Error()
		}
		if status >= http.StatusInternalServerError {
			logging.FromContext(c.UserContext(), logger).Error("request failed",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}
		return c.Status(status).JSON(fiber.Map{"error": msg, "kind": kind})
	}
}
