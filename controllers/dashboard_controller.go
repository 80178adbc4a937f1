package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"caresite/confirm"
	"caresite/syncer"
	"caresite/toast"
	"caresite/utils"
)

// DashboardController is the admin shell: it composes the collection
// mirrors, the confirmation modal and the toast notifier into the state
// the dashboard page renders from. Reaching any of its handlers means
// the session gate already passed; the unauthorized state is produced
// by the Protected middleware, and "initializing" lives client-side
// until the session check resolves.
type DashboardController struct {
	sync   *syncer.Controller
	toasts *toast.Notifier
	modal  *confirm.Modal
	logger *log.Logger
}

func NewDashboardController(sync *syncer.Controller, toasts *toast.Notifier, modal *confirm.Modal, logger *log.Logger) *DashboardController {
	return &DashboardController{sync: sync, toasts: toasts, modal: modal, logger: logger}
}

// GetDashboard returns everything the authorized dashboard renders.
func (d *DashboardController) GetDashboard(c *fiber.Ctx) error {
	pending, open := d.modal.Pending()

	payload := fiber.Map{
		"status": "authorized",
		"plans":  d.sync.Plans(),
		"media":  d.sync.Media(),
		"toasts": d.toasts.Active(),
	}
	if open {
		payload["pending_confirmation"] = pending
	}
	return c.JSON(payload)
}

// Confirm runs the queued destructive action. The modal closes whatever
// the action returns; the outcome reaches the user as a toast either
// way, so the response only distinguishes "nothing was pending".
func (d *DashboardController) Confirm(c *fiber.Ctx) error {
	if err := d.modal.Confirm(); err != nil {
		if errors.Is(err, confirm.ErrNotOpen) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "No confirmation is pending", nil)
		}
		// The action itself failed; already reported via toast.
		d.logger.Printf("confirmed action failed: %v", err)
	}
	return c.JSON(fiber.Map{"confirmed": true})
}

// Cancel closes the modal without running the queued action. The
// collections and the remote store are untouched.
func (d *DashboardController) Cancel(c *fiber.Ctx) error {
	if err := d.modal.Cancel(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "No confirmation is pending", nil)
	}
	return c.JSON(fiber.Map{"cancelled": true})
}

// ListToasts returns the currently visible toasts in insertion order.
func (d *DashboardController) ListToasts(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(d.toasts.Active()))
}

// DismissToast removes a toast before its auto-expiry.
func (d *DashboardController) DismissToast(c *fiber.Ctx) error {
	id := c.Params("id")
	if !d.toasts.Dismiss(id) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Toast not found", nil)
	}
	return c.JSON(fiber.Map{"dismissed": true})
}
