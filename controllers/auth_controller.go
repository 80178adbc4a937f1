package controller

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"caresite/models"
	"caresite/utils"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	RedirectTo   string       `json:"redirect_to"`
	User         *models.User `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthController struct {
	db     *gorm.DB
	secret string
	logger *log.Logger
}

func NewAuthController(db *gorm.DB, secret string, logger *log.Logger) *AuthController {
	return &AuthController{db: db, secret: secret, logger: logger}
}

// Login signs an admin in with email and password. Failure messages are
// returned verbatim for the login form to display beneath the fields;
// success carries the dashboard path the client should redirect to.
func (a *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is not active",
		})
	}

	accessToken, refreshToken, err := utils.GenerateJWTToken(&user, a.secret)
	if err != nil {
		utils.LogError("token_generation", err, map[string]interface{}{"user_id": user.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate tokens",
		})
	}

	a.logger.Printf("admin login: %s", user.Email)

	return c.JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RedirectTo:   "/admin",
		User:         &user,
	})
}

// Logout bumps the user's token version, invalidating every token
// issued so far.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := a.db.Model(user).Update("token_version", gorm.Expr("token_version + 1")).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log out",
		})
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Session implements "get current session → optional user": it never
// fails, it just reports whether a valid session accompanies the
// request. The dashboard gate moves from initializing to authorized or
// unauthorized based on this answer.
func (a *AuthController) Session(c *fiber.Ctx) error {
	token := bearerOrCookieToken(c)
	if token == "" {
		return c.JSON(fiber.Map{"user": nil})
	}

	claims, err := utils.ParseJWTToken(token, a.secret)
	if err != nil {
		return c.JSON(fiber.Map{"user": nil})
	}

	var user models.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil {
		return c.JSON(fiber.Map{"user": nil})
	}
	if !user.IsActive || claims.TokenVersion != user.TokenVersion {
		return c.JSON(fiber.Map{"user": nil})
	}

	return c.JSON(fiber.Map{"user": &user})
}

// Refresh exchanges a refresh token for a new token pair.
func (a *AuthController) Refresh(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	claims, err := utils.ParseJWTToken(req.RefreshToken, a.secret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	var user models.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	accessToken, refreshToken, err := utils.RefreshTokens(req.RefreshToken, a.secret, &user)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RedirectTo:   "/admin",
		User:         &user,
	})
}

func bearerOrCookieToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Cookies("access_token")
}
