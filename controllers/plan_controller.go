package controller

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"caresite/confirm"
	"caresite/syncer"
	"caresite/utils"
)

type CreatePlanRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Price     string `json:"price" validate:"required,max=50"`
	Features  string `json:"features" validate:"max=1000"`
	IsPrimary bool   `json:"is_primary"`
}

type PlanController struct {
	sync   *syncer.Controller
	modal  *confirm.Modal
	logger *log.Logger
}

func NewPlanController(sync *syncer.Controller, modal *confirm.Modal, logger *log.Logger) *PlanController {
	return &PlanController{sync: sync, modal: modal, logger: logger}
}

// ListPlans serves the pricing cards from the in-memory mirror, already
// in display order (primary first, then oldest first).
func (p *PlanController) ListPlans(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(p.sync.Plans()))
}

// CreatePlan adds a pricing tier. Feature text is normalized and the
// creation time stamped inside the synchronization controller.
func (p *PlanController) CreatePlan(c *fiber.Ctx) error {
	var req CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	plan, err := p.sync.AddPlan(c.Context(), req.Name, req.Price, req.Features, req.IsPrimary)
	if err != nil {
		if errors.Is(err, syncer.ErrMissingRequiredFields) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Name and price are required", nil)
		}
		utils.LogError("plan_create", err, map[string]interface{}{"name": req.Name})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to add plan", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(plan))
}

// RequestDeletePlan queues the plan deletion behind the confirmation
// modal; nothing is deleted until the explicit confirm call.
func (p *PlanController) RequestDeletePlan(c *fiber.Ctx) error {
	id := c.Params("id")

	err := p.modal.Open(fmt.Sprintf("Delete plan %s", id), func() error {
		return p.sync.DeletePlan(context.Background(), id)
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Another confirmation is already pending", nil)
	}

	label, _ := p.modal.Pending()
	return c.JSON(fiber.Map{
		"pending_confirmation": label,
	})
}
