package repositories

import (
	"context"
	"testing"
	"time"

	"mafiamadness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runUserRepositoryContract exercises behavior every UserRepository backend must share.
func runUserRepositoryContract(t *testing.T, repo UserRepository) {
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Username: "alice", Email: "alice@example.com", Password: "hash", Role: models.DefaultRole}
	bob := &models.User{Name: "Bob", Username: "bob", Email: "bob@example.com", Password: "hash", Role: models.DefaultRole}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))
	require.NotEmpty(t, alice.ID)
	require.NotEqual(t, alice.ID, bob.ID)

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "hash", got.Password)
		assert.NotNil(t, got.GamesParticipate)
		assert.Empty(t, got.GamesParticipate)
		assert.NotNil(t, got.GamesCreated)
	})

	t.Run("GetByUsernameAndEmail", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)

		got, err = repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		_, err = repo.GetByUsername(ctx, "carol")
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
		_, err = repo.GetByEmail(ctx, "carol@example.com")
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		dup := &models.User{Name: "Other", Username: "alice", Email: "other@example.com", Password: "hash"}
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, models.ErrDuplicateRecord)
	})

	t.Run("SaveAndFindByGame", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		got.GamesParticipate = append(got.GamesParticipate, "game-1", "game-2")
		got.GamesCreated = append(got.GamesCreated, "game-2")
		require.NoError(t, repo.Save(ctx, got))

		reloaded, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"game-1", "game-2"}, reloaded.GamesParticipate)
		assert.Equal(t, []string{"game-2"}, reloaded.GamesCreated)

		participants, err := repo.FindByGame(ctx, "game-1", models.RelationParticipate)
		require.NoError(t, err)
		require.Len(t, participants, 1)
		assert.Equal(t, alice.ID, participants[0].ID)

		creators, err := repo.FindByGame(ctx, "game-1", models.RelationCreated)
		require.NoError(t, err)
		assert.Empty(t, creators)

		creators, err = repo.FindByGame(ctx, "game-2", models.RelationCreated)
		require.NoError(t, err)
		assert.Len(t, creators, 1)
	})

	t.Run("ReturnedRecordsAreCopies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotEmpty(t, got.GamesParticipate)
		got.GamesParticipate[0] = "tampered"

		reloaded, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "tampered", reloaded.GamesParticipate[0])
	})

	t.Run("SaveMissing", func(t *testing.T) {
		err := repo.Save(ctx, &models.User{ID: "missing-id", Username: "ghost", Email: "ghost@example.com"})
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})

	t.Run("GetAll", func(t *testing.T) {
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, bob.ID))
		_, err := repo.GetByID(ctx, bob.ID)
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, bob.ID), models.ErrRecordNotFound)

		_, err = repo.GetByUsername(ctx, "bob")
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})
}

// runGameRepositoryContract exercises behavior every GameRepository backend must share.
func runGameRepositoryContract(t *testing.T, repo GameRepository) {
	ctx := context.Background()

	createdAt := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	chess := &models.Game{Type: "Chess", CreatorID: "creator-1", Players: []string{"bob"}, CreatedAt: createdAt}
	mafia := &models.Game{Type: "Mafia", CreatorID: "creator-1", Players: []string{}}
	require.NoError(t, repo.Create(ctx, chess))
	require.NoError(t, repo.Create(ctx, mafia))
	require.NotEmpty(t, chess.ID)
	require.NotEqual(t, chess.ID, mafia.ID)

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, chess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Chess", got.Type)
		assert.Equal(t, "creator-1", got.CreatorID)
		assert.Equal(t, []string{"bob"}, got.Players)
		assert.WithinDuration(t, createdAt, got.CreatedAt, time.Second)
		assert.False(t, got.UpdatedAt.IsZero())

		empty, err := repo.GetByID(ctx, mafia.ID)
		require.NoError(t, err)
		assert.NotNil(t, empty.Players)
		assert.False(t, empty.CreatedAt.IsZero())
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing-id")
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})

	t.Run("Save", func(t *testing.T) {
		got, err := repo.GetByID(ctx, chess.ID)
		require.NoError(t, err)
		got.Players = append(got.Players, "carol")
		require.NoError(t, repo.Save(ctx, got))

		reloaded, err := repo.GetByID(ctx, chess.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "carol"}, reloaded.Players)

		err = repo.Save(ctx, &models.Game{ID: "missing-id", Type: "Chess"})
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})

	t.Run("GetAll", func(t *testing.T) {
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, mafia.ID))
		_, err := repo.GetByID(ctx, mafia.ID)
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, mafia.ID), models.ErrRecordNotFound)
	})
}
