package handlers

import (
	"errors"

	"ribscan/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.ErrBadRequest
	}
	return id, nil
}

// repoError maps the repository sentinels every mutation can surface.
// Returns false when the error is not one of them.
func repoError(c *fiber.Ctx, err error) (error, bool) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		}), true
	case errors.Is(err, repository.ErrPeriodLocked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Period is locked",
		}), true
	}
	return nil, false
}
