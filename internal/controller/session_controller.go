package controller

import (
	"focus-session-be/internal/dto"
	"focus-session-be/internal/pkg/serverutils"
	"focus-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	CompleteTimer(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
	Abandon(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	QuickStart(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")

	// quick-start stays open so terminal hooks can call it without
	// credentials; it degrades gracefully instead of erroring.
	h.Get("quick-start", c.QuickStart)
	h.Post("quick-start", c.QuickStart)

	h.Use(serverutils.JwtMiddleware)
	h.Post("start", c.Start)
	h.Post("timer-complete", c.CompleteTimer)
	h.Post("end", c.End)
	h.Post("abandon", c.Abandon)
	h.Get("status", c.Status)
}

func (c *sessionController) Start(ctx *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Start(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session started", res))
}

func (c *sessionController) CompleteTimer(ctx *fiber.Ctx) error {
	var req dto.CompleteTimerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CompleteTimer(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Timer completed", res))
}

func (c *sessionController) End(ctx *fiber.Ctx) error {
	var req dto.EndSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.End(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session ended", res))
}

func (c *sessionController) Abandon(ctx *fiber.Ctx) error {
	res, err := c.service.Abandon(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session abandoned", res))
}

func (c *sessionController) Status(ctx *fiber.Ctx) error {
	res, err := c.service.Status(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Status", res))
}

func (c *sessionController) QuickStart(ctx *fiber.Ctx) error {
	var req dto.QuickStartRequest
	if ctx.Method() == fiber.MethodPost {
		// Body is optional; a bare POST quick-starts with the default label.
		_ = ctx.BodyParser(&req)
	} else {
		req.Label = ctx.Query("label")
	}

	res := c.service.QuickStart(ctx.Context(), req.Label)
	return ctx.JSON(res)
}
