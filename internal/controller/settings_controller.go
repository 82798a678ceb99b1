package controller

import (
	"focus-session-be/internal/dto"
	"focus-session-be/internal/pkg/serverutils"
	"focus-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISettingsController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
}

type settingsController struct {
	service service.ISettingsService
}

func NewSettingsController(service service.ISettingsService) ISettingsController {
	return &settingsController{service: service}
}

func (c *settingsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/settings/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Put(":key", c.Update)
}

func (c *settingsController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetAll(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Settings", res))
}

func (c *settingsController) Update(ctx *fiber.Ctx) error {
	key := ctx.Params("key")

	var req dto.UpdateSettingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.Context(), key, req.Value)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("Setting updated", res))
}
