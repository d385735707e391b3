package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/arkadyvz/visorbot/pkg/error"
	"github.com/arkadyvz/visorbot/pkg/utils"
)

// Recovery turns panics into JSON error responses. Typed errors keep their
// own status and code, anything else becomes a 500.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logrus.WithFields(logrus.Fields{
				"path":   ctx.Path(),
				"method": ctx.Method(),
			}).Errorf("recovered from panic: %v", rec)

			res := responseForPanic(rec)
			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}

func responseForPanic(rec any) utils.ResponseData {
	if typed, ok := rec.(pkgError.GenericError); ok {
		return utils.ResponseData{
			Status:  typed.StatusCode(),
			Code:    typed.ErrCode(),
			Message: typed.Error(),
		}
	}

	return utils.ResponseData{
		Status:  fiber.StatusInternalServerError,
		Code:    "INTERNAL_SERVER_ERROR",
		Message: fmt.Sprintf("%v", rec),
	}
}
