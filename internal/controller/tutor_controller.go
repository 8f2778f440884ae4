package controller

import (
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type ITutorController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Ask(ctx *fiber.Ctx) error
	SwitchMode(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	ListTransitions(ctx *fiber.Ctx) error
}

type tutorController struct {
	service service.ITutorService
}

func NewTutorController(service service.ITutorService) ITutorController {
	return &tutorController{service: service}
}

func (c *tutorController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/tutor/v1")
	h.Use(auth)
	h.Post("/ask", c.Ask)
	h.Post("/mode", c.SwitchMode)
	h.Get("/sessions/:id", c.GetSession)
	h.Get("/transitions", c.ListTransitions)
}

func (c *tutorController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.NewValidation("body", "malformed JSON")
	}
	req.UserID = serverutils.UserID(ctx)

	res, err := c.service.Handle(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer query", res))
}

func (c *tutorController) SwitchMode(ctx *fiber.Ctx) error {
	var req dto.SwitchModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.NewValidation("body", "malformed JSON")
	}
	req.UserID = serverutils.UserID(ctx)

	res, err := c.service.SwitchMode(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success switch mode", res))
}

func (c *tutorController) GetSession(ctx *fiber.Ctx) error {
	userID := serverutils.UserID(ctx)

	res, err := c.service.GetSession(ctx.UserContext(), userID, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *tutorController) ListTransitions(ctx *fiber.Ctx) error {
	userID := serverutils.UserID(ctx)

	var filter dto.TransitionFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return apperror.NewValidation("query", "malformed filter")
	}

	res, err := c.service.ListTransitions(ctx.UserContext(), userID, filter)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get mode transitions", res))
}
