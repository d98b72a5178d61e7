package repositories

import (
	"context"
	"testing"

	"github.com/spotzerodev/hunter-bot/hunterbot/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.InitializeSchema(context.Background()))
	return db
}

func TestLinkRepository_CreateOrGet(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository(testDB(t).BunDB())

	link, err := repo.CreateOrGet(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "100", link.DiscordID)
	assert.False(t, link.Linked())

	// Second call returns the same row instead of erroring.
	again, err := repo.CreateOrGet(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, link.ID, again.ID)
}

func TestLinkRepository_SetSteamID(t *testing.T) {
	ctx := context.Background()

	t.Run("binds id and stamps linked_at", func(t *testing.T) {
		repo := NewLinkRepository(testDB(t).BunDB())
		_, err := repo.CreateOrGet(ctx, "100")
		require.NoError(t, err)

		require.NoError(t, repo.SetSteamID(ctx, "100", "76561198000000001"))

		link, err := repo.GetByDiscordID(ctx, "100")
		require.NoError(t, err)
		assert.True(t, link.Linked())
		assert.Equal(t, "76561198000000001", *link.SteamID)
		assert.NotNil(t, link.LinkedAt)
	})

	t.Run("same id twice for the same user is a no-op", func(t *testing.T) {
		repo := NewLinkRepository(testDB(t).BunDB())
		_, err := repo.CreateOrGet(ctx, "100")
		require.NoError(t, err)

		require.NoError(t, repo.SetSteamID(ctx, "100", "76561198000000001"))
		require.NoError(t, repo.SetSteamID(ctx, "100", "76561198000000001"))
	})

	t.Run("rebinding a linked user fails", func(t *testing.T) {
		repo := NewLinkRepository(testDB(t).BunDB())
		_, err := repo.CreateOrGet(ctx, "100")
		require.NoError(t, err)

		require.NoError(t, repo.SetSteamID(ctx, "100", "76561198000000001"))
		err = repo.SetSteamID(ctx, "100", "76561198000000002")
		assert.ErrorIs(t, err, ErrAlreadyLinked)

		link, err := repo.GetByDiscordID(ctx, "100")
		require.NoError(t, err)
		assert.Equal(t, "76561198000000001", *link.SteamID)
	})

	t.Run("one steam id cannot serve two users", func(t *testing.T) {
		repo := NewLinkRepository(testDB(t).BunDB())
		_, err := repo.CreateOrGet(ctx, "100")
		require.NoError(t, err)
		_, err = repo.CreateOrGet(ctx, "200")
		require.NoError(t, err)

		require.NoError(t, repo.SetSteamID(ctx, "100", "76561198000000001"))
		err = repo.SetSteamID(ctx, "200", "76561198000000001")
		assert.ErrorIs(t, err, ErrSteamIDTaken)

		// The loser stays unlinked.
		link, err := repo.GetByDiscordID(ctx, "200")
		require.NoError(t, err)
		assert.False(t, link.Linked())
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := NewLinkRepository(testDB(t).BunDB())
		err := repo.SetSteamID(ctx, "999", "76561198000000001")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})
}

func TestLinkRepository_ClearSteamID(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository(testDB(t).BunDB())

	_, err := repo.CreateOrGet(ctx, "100")
	require.NoError(t, err)
	require.NoError(t, repo.SetSteamID(ctx, "100", "76561198000000001"))
	require.NoError(t, repo.ClearSteamID(ctx, "100"))

	link, err := repo.GetByDiscordID(ctx, "100")
	require.NoError(t, err)
	assert.False(t, link.Linked())
	assert.Nil(t, link.LinkedAt)

	// The freed id can be claimed by someone else now.
	_, err = repo.CreateOrGet(ctx, "200")
	require.NoError(t, err)
	assert.NoError(t, repo.SetSteamID(ctx, "200", "76561198000000001"))
}

func TestLinkRepository_Counts(t *testing.T) {
	ctx := context.Background()
	repo := NewLinkRepository(testDB(t).BunDB())

	for i, id := range []string{"100", "200", "300"} {
		_, err := repo.CreateOrGet(ctx, id)
		require.NoError(t, err)
		if i < 2 {
			require.NoError(t, repo.SetSteamID(ctx, id, "7656119800000000"+id[:1]))
		}
	}

	count, err := repo.CountLinked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	linked, err := repo.GetLinked(ctx)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}

func TestLinkRepository_GetByDiscordID_NotFound(t *testing.T) {
	repo := NewLinkRepository(testDB(t).BunDB())
	_, err := repo.GetByDiscordID(context.Background(), "999")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}
