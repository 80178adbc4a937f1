package controller

import (
	"log"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"caresite/models"
	"caresite/utils"
)

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=4000"`

	// Website is the honeypot: hidden on the real form, so any value
	// here came from a bot.
	Website string `json:"website"`
}

type ContactController struct {
	db     *gorm.DB
	mailer *utils.Mailer
	logger *log.Logger
}

func NewContactController(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *ContactController {
	return &ContactController{db: db, mailer: mailer, logger: logger}
}

// Submit handles the public contact form. Honeypot hits are answered
// exactly like real submissions but nothing is stored or forwarded.
func (cc *ContactController) Submit(c *fiber.Ctx) error {
	var req ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if strings.TrimSpace(req.Website) != "" {
		utils.LogEvent("honeypot_triggered", map[string]interface{}{
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		})
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "Thanks, we'll be in touch shortly.",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "email must be a valid email", nil)
	}
	if err := checkmail.ValidateHost(req.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "email domain cannot receive mail", nil)
	}

	msg := models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	}
	if err := cc.db.Create(&msg).Error; err != nil {
		utils.LogError("contact_store", err, map[string]interface{}{"email": msg.Email})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit message", err)
	}

	if cc.mailer.Enabled() {
		if err := cc.mailer.SendContactNotification(&msg); err != nil {
			// The row is stored; a failed forward is logged, not fatal.
			utils.LogError("contact_forward", err, map[string]interface{}{"contact_id": msg.ID})
		} else if err := cc.db.Model(&msg).Update("forwarded", true).Error; err != nil {
			cc.logger.Printf("failed to mark contact %d forwarded: %v", msg.ID, err)
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Thanks, we'll be in touch shortly.",
	})
}
