package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/kavelar/moviemind/pkg/error"
	"github.com/kavelar/moviemind/pkg/utils"
)

// Recovery converts handler panics into JSON error responses. Typed errors
// from pkg/error keep their status code and error code; anything else maps
// to a 500.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				logrus.Errorf("Panic recovered in middleware: %v", err)

				typedError, isTypedError := err.(pkgError.GenericError)
				if isTypedError {
					res.Status = typedError.StatusCode()
					res.Code = typedError.ErrCode()
					res.Message = typedError.Error()
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
