package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/unlock"
	"github.com/cory-johannsen/choiceman/internal/storage/redis"
)

type trackAll struct{ bases []string }

func (t trackAll) IsTracked(base string) bool {
	for _, b := range t.bases {
		if b == base {
			return true
		}
	}
	return false
}
func (t trackAll) AllBases() []string { return t.bases }

func newRepo(t *testing.T, account string) (*miniredis.Miniredis, *redis.UnlockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, redis.Ping(context.Background(), client, time.Second))
	repo, err := redis.NewUnlockRepository(client, "test", account)
	require.NoError(t, err)
	return mr, repo
}

func TestNewClient_RequiresAddr(t *testing.T) {
	_, err := redis.NewClient(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewUnlockRepository_RejectsEmptyAccount(t *testing.T) {
	_, err := redis.NewUnlockRepository(nil, "test", "")
	assert.ErrorIs(t, err, redis.ErrEmptyAccount)
}

func TestUnlockRepository_LoadNeverSaved(t *testing.T) {
	_, repo := newRepo(t, "alice")
	st, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st.Unlocked)
	assert.Nil(t, st.Obtained)
}

func TestUnlockRepository_SaveLoad(t *testing.T) {
	mr, repo := newRepo(t, "alice")
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, unlock.State{Unlocked: []string{"Water rune", "Bronze axe"}}))
	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Water rune", "Bronze axe"}, st.Unlocked)
	assert.Equal(t, []string{}, st.Obtained)

	got, err := mr.List("test:alice:unlocked")
	require.NoError(t, err)
	assert.Equal(t, []string{"Water rune", "Bronze axe"}, got)
	assert.True(t, mr.Exists("test:alice:saved"))

	require.NoError(t, repo.Save(ctx, unlock.State{Unlocked: []string{"Tuna"}, Obtained: []string{"Tuna"}}))
	st, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tuna"}, st.Unlocked)
	assert.Equal(t, []string{"Tuna"}, st.Obtained)
}

func TestUnlockRepository_ServerDown(t *testing.T) {
	mr, repo := newRepo(t, "alice")
	mr.Close()
	_, err := repo.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, repo.Save(context.Background(), unlock.State{}))
}

func TestListAccounts(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	ctx := context.Background()
	for _, acct := range []string{"carol", "alice", "bob"} {
		repo, err := redis.NewUnlockRepository(client, "", acct)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, unlock.State{}))
	}
	accounts, err := redis.ListAccounts(ctx, client, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, accounts)
}

func TestStoreOverRedis(t *testing.T) {
	_, repo := newRepo(t, "alice")
	ctx := context.Background()
	idx := trackAll{bases: []string{"Tuna", "Cabbage"}}

	s := unlock.NewStore(idx, repo, zap.NewNop())
	_, err := s.Unlock(ctx, "Cabbage")
	require.NoError(t, err)
	s.MarkObtainedIfFirst(ctx, "Tuna")

	reloaded := unlock.NewStore(idx, repo, zap.NewNop())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []string{"Cabbage"}, reloaded.UnlockedList())
	assert.Equal(t, []string{"Tuna"}, reloaded.ObtainedList())
}

func TestProperty_RoundTrip(t *testing.T) {
	_, repo := newRepo(t, "prop")
	ctx := context.Background()
	rapid.Check(t, func(rt *rapid.T) {
		gen := rapid.SliceOfDistinct(rapid.StringMatching(`[A-Z][a-z]{2,10}`), func(s string) string { return s })
		want := unlock.State{Unlocked: gen.Draw(rt, "unlocked"), Obtained: gen.Draw(rt, "obtained")}
		require.NoError(rt, repo.Save(ctx, want))
		got, err := repo.Load(ctx)
		require.NoError(rt, err)
		assert.Equal(rt, append([]string{}, want.Unlocked...), got.Unlocked)
		assert.Equal(rt, append([]string{}, want.Obtained...), got.Obtained)
	})
}
