package response

import (
	stderrors "errors"

	"custora/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"data": data,
	})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

// Domain maps a service error to an HTTP response. Domain errors keep their
// code and message; anything else becomes an opaque 500.
func Domain(c *fiber.Ctx, err error) error {
	var de *errors.DomainError
	if stderrors.As(err, &de) {
		return c.Status(domainStatus(de)).JSON(fiber.Map{
			"error": de.Message,
			"code":  de.Code,
		})
	}
	return ServerError(c, "internal error")
}

func domainStatus(de *errors.DomainError) int {
	switch de {
	case errors.ErrWalletNotFound, errors.ErrDepositNotFound, errors.ErrWithdrawalNotFound:
		return fiber.StatusNotFound
	case errors.ErrDepositClaimed, errors.ErrWithdrawalNotPending, errors.ErrDeadlinePassed:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}
