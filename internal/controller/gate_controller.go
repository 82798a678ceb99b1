package controller

import (
	"focus-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGateController interface {
	RegisterRoutes(r fiber.Router)
	Gate(ctx *fiber.Ctx) error
}

type gateController struct {
	service service.ISessionService
}

func NewGateController(service service.ISessionService) IGateController {
	return &gateController{service: service}
}

func (c *gateController) RegisterRoutes(r fiber.Router) {
	// Open route: the developer-assistant hook polls this before doing work.
	r.Get("/gate/v1", c.Gate)
}

func (c *gateController) Gate(ctx *fiber.Ctx) error {
	res, err := c.service.Gate(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
