package handlers

import (
	"log/slog"

	"mafiamadness/internal/middleware"
	"mafiamadness/internal/models"
	"mafiamadness/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const gameUpdatedMessage = "Game has been successfully updated"

// GameHandler handles HTTP requests for games.
type GameHandler struct {
	service  *services.GameService
	validate *validator.Validate
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(service *services.GameService, validate *validator.Validate) *GameHandler {
	return &GameHandler{
		service:  service,
		validate: validate,
	}
}

// RegisterRoutes registers the game routes. admin guards the reconciliation route and
// normally holds the JWT and policy middleware.
func (h *GameHandler) RegisterRoutes(router fiber.Router, admin ...fiber.Handler) {
	gameRoutes := router.Group("/games")
	gameRoutes.Get("/", h.HandleGetGames)
	gameRoutes.Get("/user/:uid", h.HandleGetGamesByUser)
	gameRoutes.Get("/:gid", h.HandleGetGamePlayers)
	gameRoutes.Post("/", h.HandleCreateGame)
	gameRoutes.Post("/reconcile", append(admin, h.HandleReconcile)...)
	gameRoutes.Patch("/players", h.HandleAddPlayers)
	gameRoutes.Delete("/players", h.HandleRemovePlayers)
	gameRoutes.Delete("/:gid", h.HandleDeleteGame)
}

// HandleGetGames lists every game.
func (h *GameHandler) HandleGetGames(c *fiber.Ctx) error {
	games, err := h.service.GetAllGames(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"games": games})
}

// HandleGetGamePlayers returns the usernames of a game's players.
func (h *GameHandler) HandleGetGamePlayers(c *fiber.Ctx) error {
	players, err := h.service.GetGamePlayers(c.UserContext(), c.Params("gid"))
	if err != nil {
		return err
	}
	return c.JSON(players)
}

// HandleGetGamesByUser returns the ids of the games a user created.
func (h *GameHandler) HandleGetGamesByUser(c *fiber.Ctx) error {
	ids, err := h.service.GetGamesByUserID(c.UserContext(), c.Params("uid"))
	if err != nil {
		return err
	}
	return c.JSON(ids)
}

// HandleCreateGame creates a game and links its players and creator.
func (h *GameHandler) HandleCreateGame(c *fiber.Ctx) error {
	var req models.CreateGameRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}
	game, err := h.service.CreateGame(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

// HandleAddPlayers adds players to an existing game.
func (h *GameHandler) HandleAddPlayers(c *fiber.Ctx) error {
	var req models.GamePlayersRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.service.AddPlayers(c.UserContext(), req.GameID, req.Players); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": gameUpdatedMessage})
}

// HandleRemovePlayers removes players from an existing game.
func (h *GameHandler) HandleRemovePlayers(c *fiber.Ctx) error {
	var req models.GamePlayersRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.service.RemovePlayers(c.UserContext(), req.GameID, req.Players); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": gameUpdatedMessage})
}

// HandleDeleteGame deletes a game and its back-references.
func (h *GameHandler) HandleDeleteGame(c *fiber.Ctx) error {
	if err := h.service.DeleteGame(c.UserContext(), c.Params("gid")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Game deleted successfully"})
}

// HandleReconcile rebuilds user back-references from the games.
func (h *GameHandler) HandleReconcile(c *fiber.Ctx) error {
	report, err := h.service.Reconcile(c.UserContext())
	if err != nil {
		return err
	}
	slog.Info("reconcile requested",
		slog.String("by", middleware.CurrentUsername(c)),
		slog.Int("users_repaired", report.UsersRepaired))
	return c.JSON(report)
}
