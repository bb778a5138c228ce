package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mafiamadness/internal/apperr"
	"mafiamadness/internal/models"
	"mafiamadness/internal/repositories"
)

// EventPublisher delivers game events to interested consumers.
type EventPublisher interface {
	PublishGameEvent(ctx context.Context, event models.GameEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishGameEvent(context.Context, models.GameEvent) error { return nil }

// GameService keeps games and the users' back-references to them in step.
//
// Every mutation is a sequence of independent repository calls. A failure part way through
// returns the error and leaves earlier writes in place; Reconcile repairs the back-references.
type GameService struct {
	userRepo repositories.UserRepository
	gameRepo repositories.GameRepository
	events   EventPublisher
}

// NewGameService creates a new GameService. A nil publisher disables events.
func NewGameService(userRepo repositories.UserRepository, gameRepo repositories.GameRepository, events EventPublisher) *GameService {
	if events == nil {
		events = nopPublisher{}
	}
	return &GameService{
		userRepo: userRepo,
		gameRepo: gameRepo,
		events:   events,
	}
}

// GetAllGames returns every game.
func (s *GameService) GetAllGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during fetching all games")
	}
	slog.Debug("games listed", slog.Int("count", len(games)))
	return games, nil
}

// GetGamePlayers returns the usernames listed in a game.
func (s *GameService) GetGamePlayers(ctx context.Context, gameID string) ([]string, error) {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.Players, nil
}

// GetGamesByUserID returns the IDs of the games the user created.
func (s *GameService) GetGamesByUserID(ctx context.Context, userID string) ([]string, error) {
	user, err := s.getUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.GamesCreated, nil
}

// CreateGame stores a new game and links it to its creator and to every player that resolves
// to a registered user. Unknown usernames stay in the player list but are not linked.
func (s *GameService) CreateGame(ctx context.Context, req models.CreateGameRequest) (*models.Game, error) {
	creator, err := s.getUserByID(ctx, req.CreatorID)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		Type:      req.Type,
		CreatorID: creator.ID,
		Players:   append([]string{}, req.Players...),
	}
	if req.CreatedAt != nil {
		game.CreatedAt = *req.CreatedAt
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, apperr.Internal(err, "Error occurred during game creation")
	}
	slog.Info("game created", slog.String("game_id", game.ID), slog.String("creator", creator.Email))

	for _, username := range req.Players {
		player, err := s.userRepo.GetByUsername(ctx, username)
		if errors.Is(err, models.ErrRecordNotFound) {
			slog.Debug("player is not a registered user", slog.String("game_id", game.ID), slog.String("username", username))
			continue
		}
		if err != nil {
			return nil, apperr.Internal(err, "Error occurred during game creation")
		}
		player.GamesParticipate = append(player.GamesParticipate, game.ID)
		if err := s.userRepo.Save(ctx, player); err != nil {
			return nil, apperr.Internal(err, "Error occurred during game creation")
		}
		slog.Info("user added to game", slog.String("user_id", player.ID), slog.String("game_id", game.ID))
	}

	stored, err := s.getGame(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	// The creator may also be listed as a player; reload so that write is not overwritten.
	creator, err = s.getUserByID(ctx, creator.ID)
	if err != nil {
		return nil, err
	}
	creator.GamesCreated = append(creator.GamesCreated, game.ID)
	if err := s.userRepo.Save(ctx, creator); err != nil {
		return nil, apperr.Internal(err, "Error occurred during game creation")
	}

	stored.UpdatedAt = time.Now()
	if err := s.gameRepo.Save(ctx, stored); err != nil {
		return nil, apperr.Internal(err, "Error occurred during game creation")
	}

	s.publish(ctx, models.EventGameCreated, stored.ID, stored.Players)
	return stored, nil
}

// AddPlayers appends each username to the game and links the game to the user.
// Processing stops at the first unknown user or existing member.
func (s *GameService) AddPlayers(ctx context.Context, gameID string, usernames []string) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}

	for _, username := range usernames {
		player, err := s.getUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		if game.HasPlayer(username) {
			slog.Warn("user already participates in game", slog.String("game_id", gameID), slog.String("username", username))
			return apperr.Conflict("User %s is already in the game", username)
		}

		game.Players = append(game.Players, username)
		if err := s.gameRepo.Save(ctx, game); err != nil {
			return apperr.Internal(err, "Error occurred during adding players to game")
		}

		player.GamesParticipate = append(player.GamesParticipate, game.ID)
		if err := s.userRepo.Save(ctx, player); err != nil {
			return apperr.Internal(err, "Error occurred during adding players to game")
		}
		slog.Info("player added to game", slog.String("game_id", gameID), slog.String("username", username))
	}

	game.UpdatedAt = time.Now()
	if err := s.gameRepo.Save(ctx, game); err != nil {
		return apperr.Internal(err, "Error occurred during adding players to game")
	}

	s.publish(ctx, models.EventGamePlayersAdded, game.ID, usernames)
	return nil
}

// RemovePlayers is the inverse of AddPlayers. A user whose back-reference is already
// missing is tolerated; only the game's player list is authoritative for membership.
func (s *GameService) RemovePlayers(ctx context.Context, gameID string, usernames []string) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}

	for _, username := range usernames {
		player, err := s.getUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		if !game.HasPlayer(username) {
			slog.Warn("user is not a player of game", slog.String("game_id", gameID), slog.String("username", username))
			return apperr.Conflict("User %s is not in the game", username)
		}

		game.Players = removeAll(game.Players, username)
		if err := s.gameRepo.Save(ctx, game); err != nil {
			return apperr.Internal(err, "Error occurred during removing players from game")
		}

		if i := indexOf(player.GamesParticipate, game.ID); i >= 0 {
			player.GamesParticipate = append(player.GamesParticipate[:i], player.GamesParticipate[i+1:]...)
			if err := s.userRepo.Save(ctx, player); err != nil {
				return apperr.Internal(err, "Error occurred during removing players from game")
			}
		}
		slog.Info("player removed from game", slog.String("game_id", gameID), slog.String("username", username))
	}

	game.UpdatedAt = time.Now()
	if err := s.gameRepo.Save(ctx, game); err != nil {
		return apperr.Internal(err, "Error occurred during removing players from game")
	}

	s.publish(ctx, models.EventGamePlayersRemoved, game.ID, usernames)
	return nil
}

// DeleteGame strips the game from every user that references it and then deletes it.
// Both lookups scan the whole user collection.
func (s *GameService) DeleteGame(ctx context.Context, gameID string) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}

	for _, rel := range []models.GameRelation{models.RelationParticipate, models.RelationCreated} {
		users, err := s.userRepo.FindByGame(ctx, game.ID, rel)
		if err != nil {
			return apperr.Internal(err, "Could not delete the game, please try again.")
		}
		for i := range users {
			u := &users[i]
			if rel == models.RelationCreated {
				u.GamesCreated = removeAll(u.GamesCreated, game.ID)
			} else {
				u.GamesParticipate = removeAll(u.GamesParticipate, game.ID)
			}
			if err := s.userRepo.Save(ctx, u); err != nil {
				return apperr.Internal(err, "Could not delete the game, please try again.")
			}
		}
	}

	if err := s.gameRepo.Delete(ctx, game.ID); err != nil {
		return apperr.Internal(err, "Could not delete the game, please try again.")
	}
	slog.Info("game deleted", slog.String("game_id", game.ID))

	s.publish(ctx, models.EventGameDeleted, game.ID, game.Players)
	return nil
}

// Reconcile rebuilds every user's back-references from the games' player lists and creators.
// IDs still backed by a game keep their position, stale or repeated IDs are dropped and
// missing IDs are appended in game order. Users that are already consistent are not written.
func (s *GameService) Reconcile(ctx context.Context) (*models.ReconcileReport, error) {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during reconciliation")
	}
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during reconciliation")
	}

	participate := make(map[string][]string)
	created := make(map[string][]string)
	for _, g := range games {
		for _, username := range g.Players {
			participate[username] = append(participate[username], g.ID)
		}
		created[g.CreatorID] = append(created[g.CreatorID], g.ID)
	}

	report := &models.ReconcileReport{GamesScanned: len(games), UsersScanned: len(users)}
	for i := range users {
		u := &users[i]
		gp, changedP := reconcileIDs(u.GamesParticipate, participate[u.Username])
		gc, changedC := reconcileIDs(u.GamesCreated, created[u.ID])
		if !changedP && !changedC {
			continue
		}
		u.GamesParticipate, u.GamesCreated = gp, gc
		if err := s.userRepo.Save(ctx, u); err != nil {
			return report, apperr.Internal(err, "Error occurred during reconciliation")
		}
		report.UsersRepaired++
		slog.Info("user back-references repaired", slog.String("user_id", u.ID))
	}

	slog.Info("reconciliation finished",
		slog.Int("games", report.GamesScanned),
		slog.Int("users", report.UsersScanned),
		slog.Int("repaired", report.UsersRepaired))
	return report, nil
}

func (s *GameService) publish(ctx context.Context, event, gameID string, players []string) {
	err := s.events.PublishGameEvent(ctx, models.GameEvent{
		Event:      event,
		GameID:     gameID,
		Players:    append([]string{}, players...),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to publish game event",
			slog.String("event", event),
			slog.String("game_id", gameID),
			slog.String("error", err.Error()))
	}
}

func (s *GameService) getGame(ctx context.Context, id string) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, apperr.NotFound("Game with id %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during fetching game %s", id)
	}
	return game, nil
}

func (s *GameService) getUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, apperr.NotFound("User with id %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during fetching user %s", id)
	}
	return user, nil
}

func (s *GameService) getUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, apperr.NotFound("User with username %s not found", username)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during fetching user %s", username)
	}
	return user, nil
}

// reconcileIDs returns current filtered to the ids in expected, followed by the expected
// ids it lacked. The bool reports whether the result differs from current.
func reconcileIDs(current, expected []string) ([]string, bool) {
	want := make(map[string]bool, len(expected))
	for _, id := range expected {
		want[id] = true
	}

	out := make([]string, 0, len(expected))
	seen := make(map[string]bool, len(expected))
	for _, id := range current {
		if want[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for _, id := range expected {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}

	if len(out) != len(current) {
		return out, true
	}
	for i := range out {
		if out[i] != current[i] {
			return out, true
		}
	}
	return out, false
}

func removeAll(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
