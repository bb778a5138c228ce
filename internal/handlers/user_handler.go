package handlers

import (
	"log/slog"

	"mafiamadness/internal/apperr"
	"mafiamadness/internal/middleware"
	"mafiamadness/internal/models"
	"mafiamadness/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for users and authentication.
type UserHandler struct {
	authService *services.AuthService
	userService *services.UserService
	authz       *middleware.Authorizer
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, userService *services.UserService, authz *middleware.Authorizer, validate *validator.Validate) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
		authz:       authz,
		validate:    validate,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	auth := middleware.AuthRequired(h.authService)

	userRoutes := router.Group("/users")
	userRoutes.Post("/signup", h.HandleSignup)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/profile", auth, h.HandleProfile)
	userRoutes.Patch("/", auth, h.HandleUpdatePassword)
	userRoutes.Delete("/:uid", auth, h.HandleDeleteUser)
}

// HandleSignup registers a new user.
func (h *UserHandler) HandleSignup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		slog.Warn("signup rejected by validation")
		return err
	}
	user, err := h.authService.RegisterUser(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// HandleLogin exchanges credentials for an access and refresh token.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}
	tokens, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// HandleGetUsers lists every user.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users})
}

// HandleProfile returns the authenticated user.
func (h *UserHandler) HandleProfile(c *fiber.Ctx) error {
	user, err := h.userService.GetUserByID(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleUpdatePassword changes a user's password.
func (h *UserHandler) HandleUpdatePassword(c *fiber.Ctx) error {
	var req models.UpdatePasswordRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}
	if !h.authz.CanActOn(c, req.UserID) {
		return apperr.Forbidden("You are not allowed to perform this action")
	}
	user, err := h.userService.UpdatePassword(c.UserContext(), req.UserID, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// HandleDeleteUser deletes a user record.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	uid := c.Params("uid")
	if !h.authz.CanActOn(c, uid) {
		return apperr.Forbidden("You are not allowed to perform this action")
	}
	if err := h.userService.DeleteUser(c.UserContext(), uid); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
