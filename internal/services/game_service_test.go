package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mafiamadness/internal/apperr"
	"mafiamadness/internal/models"
	"mafiamadness/internal/repositories"
	"mafiamadness/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type gameFixture struct {
	users     *repositories.MockUserRepository
	games     *repositories.MockGameRepository
	publisher *recordingPublisher
	service   *services.GameService
}

func newGameFixture(t *testing.T, usernames ...string) *gameFixture {
	t.Helper()
	f := &gameFixture{
		users:     repositories.NewMockUserRepository(),
		games:     repositories.NewMockGameRepository(),
		publisher: &recordingPublisher{},
	}
	f.service = services.NewGameService(f.users, f.games, f.publisher)
	for _, name := range usernames {
		f.addUser(t, name)
	}
	return f
}

func (f *gameFixture) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Role:     models.DefaultRole,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *gameFixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

func (f *gameFixture) game(t *testing.T, id string) *models.Game {
	t.Helper()
	g, err := f.games.GetByID(context.Background(), id)
	require.NoError(t, err)
	return g
}

// assertConsistent checks that back-references match the games exactly.
func (f *gameFixture) assertConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	games, err := f.games.GetAll(ctx)
	require.NoError(t, err)
	users, err := f.users.GetAll(ctx)
	require.NoError(t, err)

	for _, u := range users {
		var participate, created []string
		for _, g := range games {
			if g.HasPlayer(u.Username) {
				participate = append(participate, g.ID)
			}
			if g.CreatorID == u.ID {
				created = append(created, g.ID)
			}
		}
		assert.ElementsMatch(t, participate, u.GamesParticipate, "games_participate of %s", u.Username)
		assert.ElementsMatch(t, created, u.GamesCreated, "games_created of %s", u.Username)
	}
}

func (f *gameFixture) createGame(t *testing.T, creator *models.User, players ...string) *models.Game {
	t.Helper()
	game, err := f.service.CreateGame(context.Background(), models.CreateGameRequest{
		Players:   players,
		Type:      "Mafia",
		CreatorID: creator.ID,
	})
	require.NoError(t, err)
	return game
}

func TestGameService_CreateAndAddScenario(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture(t, "bob")
	alice := f.addUser(t, "alice")

	game, err := f.service.CreateGame(ctx, models.CreateGameRequest{
		Players:   []string{"bob"},
		Type:      "Chess",
		CreatorID: alice.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, game.Players)
	assert.Equal(t, "Chess", game.Type)
	assert.Equal(t, alice.ID, game.CreatorID)

	assert.Equal(t, []string{game.ID}, f.user(t, "alice").GamesCreated)
	assert.Equal(t, []string{game.ID}, f.user(t, "bob").GamesParticipate)

	err = f.service.AddPlayers(ctx, game.ID, []string{"carol"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "User with username carol not found", apperr.MessageOf(err))
	assert.Equal(t, []string{"bob"}, f.game(t, game.ID).Players)

	assert.Equal(t, []string{models.EventGameCreated}, f.publisher.names())
}

func TestGameService_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown creator", func(t *testing.T) {
		f := newGameFixture(t, "bob")
		_, err := f.service.CreateGame(ctx, models.CreateGameRequest{
			Players:   []string{"bob"},
			Type:      "Mafia",
			CreatorID: "nobody",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, "User with id nobody not found", apperr.MessageOf(err))

		games, err := f.games.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, games)
		assert.Empty(t, f.user(t, "bob").GamesParticipate)
	})

	t.Run("unregistered players are kept but not linked", func(t *testing.T) {
		f := newGameFixture(t, "bob")
		alice := f.addUser(t, "alice")

		game := f.createGame(t, alice, "ghost", "bob")
		assert.Equal(t, []string{"ghost", "bob"}, game.Players)
		assert.Equal(t, []string{game.ID}, f.user(t, "bob").GamesParticipate)
	})

	t.Run("creator listed as player", func(t *testing.T) {
		f := newGameFixture(t)
		alice := f.addUser(t, "alice")

		game := f.createGame(t, alice, "alice")
		got := f.user(t, "alice")
		assert.Equal(t, []string{game.ID}, got.GamesParticipate)
		assert.Equal(t, []string{game.ID}, got.GamesCreated)
	})

	t.Run("supplied created_at is kept", func(t *testing.T) {
		f := newGameFixture(t)
		alice := f.addUser(t, "alice")
		createdAt := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

		game, err := f.service.CreateGame(ctx, models.CreateGameRequest{
			Players:   []string{"alice"},
			Type:      "Mafia",
			CreatorID: alice.ID,
			CreatedAt: &createdAt,
		})
		require.NoError(t, err)
		assert.True(t, game.CreatedAt.Equal(createdAt))
		assert.True(t, game.UpdatedAt.After(createdAt))
	})
}

func TestGameService_AddPlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("links every player", func(t *testing.T) {
		f := newGameFixture(t, "bob", "carol", "dave")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob")

		require.NoError(t, f.service.AddPlayers(ctx, game.ID, []string{"carol", "dave"}))
		assert.Equal(t, []string{"bob", "carol", "dave"}, f.game(t, game.ID).Players)
		assert.Equal(t, []string{game.ID}, f.user(t, "carol").GamesParticipate)
		assert.Equal(t, []string{game.ID}, f.user(t, "dave").GamesParticipate)
		f.assertConsistent(t)

		assert.Equal(t, []string{models.EventGameCreated, models.EventGamePlayersAdded}, f.publisher.names())
	})

	t.Run("existing member conflicts", func(t *testing.T) {
		f := newGameFixture(t, "bob")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob")

		err := f.service.AddPlayers(ctx, game.ID, []string{"bob"})
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, "User bob is already in the game", apperr.MessageOf(err))
		assert.Equal(t, []string{"bob"}, f.game(t, game.ID).Players)
		assert.Equal(t, []string{game.ID}, f.user(t, "bob").GamesParticipate)
	})

	t.Run("unknown game", func(t *testing.T) {
		f := newGameFixture(t, "bob")
		err := f.service.AddPlayers(ctx, "missing", []string{"bob"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, "Game with id missing not found", apperr.MessageOf(err))
	})

	t.Run("earlier players stay committed", func(t *testing.T) {
		f := newGameFixture(t, "bob", "dave")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob")

		err := f.service.AddPlayers(ctx, game.ID, []string{"dave", "carol"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, []string{"bob", "dave"}, f.game(t, game.ID).Players)
		assert.Equal(t, []string{game.ID}, f.user(t, "dave").GamesParticipate)
	})
}

func TestGameService_RemovePlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("unlinks players", func(t *testing.T) {
		f := newGameFixture(t, "bob", "carol")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob", "carol")

		require.NoError(t, f.service.RemovePlayers(ctx, game.ID, []string{"bob"}))
		assert.Equal(t, []string{"carol"}, f.game(t, game.ID).Players)
		assert.Empty(t, f.user(t, "bob").GamesParticipate)
		f.assertConsistent(t)
	})

	t.Run("non member conflicts", func(t *testing.T) {
		f := newGameFixture(t, "bob", "carol")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob")

		err := f.service.RemovePlayers(ctx, game.ID, []string{"carol"})
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, "User carol is not in the game", apperr.MessageOf(err))
		assert.Equal(t, []string{"bob"}, f.game(t, game.ID).Players)
	})

	t.Run("missing back-reference is tolerated", func(t *testing.T) {
		f := newGameFixture(t, "bob")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob")

		bob := f.user(t, "bob")
		bob.GamesParticipate = []string{}
		require.NoError(t, f.users.Save(ctx, bob))

		require.NoError(t, f.service.RemovePlayers(ctx, game.ID, []string{"bob"}))
		assert.Empty(t, f.game(t, game.ID).Players)
	})

	t.Run("only the first back-reference is removed", func(t *testing.T) {
		f := newGameFixture(t, "bob")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob")

		bob := f.user(t, "bob")
		bob.GamesParticipate = []string{game.ID, "other", game.ID}
		require.NoError(t, f.users.Save(ctx, bob))

		require.NoError(t, f.service.RemovePlayers(ctx, game.ID, []string{"bob"}))
		assert.Equal(t, []string{"other", game.ID}, f.user(t, "bob").GamesParticipate)
	})

	t.Run("unknown game", func(t *testing.T) {
		f := newGameFixture(t, "bob")
		err := f.service.RemovePlayers(ctx, "missing", []string{"bob"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, "Game with id missing not found", apperr.MessageOf(err))
	})

	t.Run("earlier removals stay committed", func(t *testing.T) {
		f := newGameFixture(t, "bob", "carol")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob", "carol")

		err := f.service.RemovePlayers(ctx, game.ID, []string{"bob", "zed", "carol"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, "User with username zed not found", apperr.MessageOf(err))
		assert.Equal(t, []string{"carol"}, f.game(t, game.ID).Players)
		assert.Empty(t, f.user(t, "bob").GamesParticipate)
		assert.Equal(t, []string{game.ID}, f.user(t, "carol").GamesParticipate)
		f.assertConsistent(t)
		assert.Equal(t, []string{models.EventGameCreated}, f.publisher.names())
	})
}

func TestGameService_DeleteGame(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture(t, "bob", "carol")
	alice := f.addUser(t, "alice")
	doomed := f.createGame(t, alice, "bob", "carol", "alice")
	kept := f.createGame(t, alice, "bob")

	require.NoError(t, f.service.DeleteGame(ctx, doomed.ID))

	_, err := f.games.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	users, err := f.users.GetAll(ctx)
	require.NoError(t, err)
	for _, u := range users {
		assert.NotContains(t, u.GamesParticipate, doomed.ID)
		assert.NotContains(t, u.GamesCreated, doomed.ID)
	}
	assert.Equal(t, []string{kept.ID}, f.user(t, "bob").GamesParticipate)
	assert.Equal(t, []string{kept.ID}, f.user(t, "alice").GamesCreated)
	f.assertConsistent(t)

	err = f.service.DeleteGame(ctx, doomed.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGameService_Reads(t *testing.T) {
	ctx := context.Background()
	f := newGameFixture(t, "bob")
	alice := f.addUser(t, "alice")
	game := f.createGame(t, alice, "bob")

	players, err := f.service.GetGamePlayers(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, players)

	again, err := f.service.GetGamePlayers(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, players, again)

	created, err := f.service.GetGamesByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{game.ID}, created)

	before := f.game(t, game.ID)
	_, err = f.service.GetGamesByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, before, f.game(t, game.ID))

	all, err := f.service.GetAllGames(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.service.GetGamePlayers(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = f.service.GetGamesByUserID(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGameService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent store is untouched", func(t *testing.T) {
		f := newGameFixture(t, "bob", "carol")
		alice := f.addUser(t, "alice")
		first := f.createGame(t, alice, "bob")
		f.createGame(t, alice, "carol")
		require.NoError(t, f.service.AddPlayers(ctx, first.ID, []string{"carol"}))

		report, err := f.service.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, &models.ReconcileReport{GamesScanned: 2, UsersScanned: 3, UsersRepaired: 0}, report)
	})

	t.Run("repairs partial writes", func(t *testing.T) {
		f := newGameFixture(t, "bob", "carol")
		alice := f.addUser(t, "alice")
		game := f.createGame(t, alice, "bob")

		// Simulate an add-players call that stopped after saving the game.
		g := f.game(t, game.ID)
		g.Players = append(g.Players, "carol")
		require.NoError(t, f.games.Save(ctx, g))

		// And a delete that never reached bob.
		bob := f.user(t, "bob")
		bob.GamesParticipate = append(bob.GamesParticipate, "deleted-game", game.ID)
		require.NoError(t, f.users.Save(ctx, bob))

		report, err := f.service.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.UsersRepaired)
		assert.Equal(t, []string{game.ID}, f.user(t, "bob").GamesParticipate)
		assert.Equal(t, []string{game.ID}, f.user(t, "carol").GamesParticipate)
		f.assertConsistent(t)

		report, err = f.service.Reconcile(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.UsersRepaired)
	})
}

func TestGameService_PublishFailureIsNotSurfaced(t *testing.T) {
	f := newGameFixture(t, "bob")
	f.publisher.err = errors.New("broker down")
	alice := f.addUser(t, "alice")

	game := f.createGame(t, alice, "bob")
	assert.NotEmpty(t, game.ID)
	assert.Equal(t, []string{models.EventGameCreated}, f.publisher.names())
}

func TestGameService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection refused")

	t.Run("create game insert fails", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		gameRepo := new(MockGameRepository)
		service := services.NewGameService(userRepo, gameRepo, nil)

		userRepo.On("GetByID", mock.Anything, "u1").Return(&models.User{ID: "u1", Username: "alice"}, nil).Once()
		gameRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Game")).Return(storeErr).Once()

		_, err := service.CreateGame(ctx, models.CreateGameRequest{Players: []string{"bob"}, Type: "Mafia", CreatorID: "u1"})
		require.Error(t, err)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		assert.ErrorIs(t, err, storeErr)
		userRepo.AssertExpectations(t)
		gameRepo.AssertExpectations(t)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("add players user save fails after game save", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		gameRepo := new(MockGameRepository)
		service := services.NewGameService(userRepo, gameRepo, nil)

		game := &models.Game{ID: "g1", Players: []string{"bob"}}
		gameRepo.On("GetByID", mock.Anything, "g1").Return(game, nil).Once()
		userRepo.On("GetByUsername", mock.Anything, "carol").Return(&models.User{ID: "u3", Username: "carol"}, nil).Once()
		gameRepo.On("Save", mock.Anything, game).Return(nil).Once()
		userRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.User")).Return(storeErr).Once()

		err := service.AddPlayers(ctx, "g1", []string{"carol"})
		require.Error(t, err)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		// The game write is not compensated.
		gameRepo.AssertNumberOfCalls(t, "Save", 1)
		userRepo.AssertExpectations(t)
		gameRepo.AssertExpectations(t)
	})

	t.Run("remove players user save fails after game save", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		gameRepo := new(MockGameRepository)
		service := services.NewGameService(userRepo, gameRepo, nil)

		game := &models.Game{ID: "g1", Players: []string{"bob", "carol"}}
		gameRepo.On("GetByID", mock.Anything, "g1").Return(game, nil).Once()
		userRepo.On("GetByUsername", mock.Anything, "bob").Return(&models.User{ID: "u2", Username: "bob", GamesParticipate: []string{"g1"}}, nil).Once()
		gameRepo.On("Save", mock.Anything, game).Return(nil).Once()
		userRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.User")).Return(storeErr).Once()

		err := service.RemovePlayers(ctx, "g1", []string{"bob"})
		require.Error(t, err)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		assert.ErrorIs(t, err, storeErr)
		// bob is already gone from the game; the back-reference is left dangling.
		assert.Equal(t, []string{"carol"}, game.Players)
		gameRepo.AssertNumberOfCalls(t, "Save", 1)
		userRepo.AssertExpectations(t)
		gameRepo.AssertExpectations(t)
	})

	t.Run("delete game scan fails before any write", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		gameRepo := new(MockGameRepository)
		service := services.NewGameService(userRepo, gameRepo, nil)

		gameRepo.On("GetByID", mock.Anything, "g1").Return(&models.Game{ID: "g1"}, nil).Once()
		userRepo.On("FindByGame", mock.Anything, "g1", models.RelationParticipate).Return(nil, storeErr).Once()

		err := service.DeleteGame(ctx, "g1")
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		gameRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
