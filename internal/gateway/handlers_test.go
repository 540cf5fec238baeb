package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gamerelay/internal/model"
	"example.com/gamerelay/internal/store"
	"example.com/gamerelay/internal/testutil"
)

var testNow = time.UnixMilli(1_700_000_000_000)

type handlerFixture struct {
	stores  *store.Stores
	durable *store.Memory
	router  *Router
	srv     *ConnectedServer
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	_, client := testutil.Redis(t)
	durable := store.NewMemory()
	stores := store.New(client, durable, 0)

	h := NewEventHandler(stores, testutil.NopLogger())
	h.now = func() time.Time { return testNow }

	return &handlerFixture{
		stores:  stores,
		durable: durable,
		router:  NewRouter(h),
		srv:     newConnectedServer("srv1", nil, testNow),
	}
}

func (f *handlerFixture) route(t *testing.T, event string, data map[string]any) {
	t.Helper()
	require.NoError(t, f.router.Route(context.Background(), f.srv, event, data))
}

func TestEventHandler_MatchLifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	for _, p := range []*model.Player{model.NewPlayer("p1", "Steve"), model.NewPlayer("p2", "Alex")} {
		require.NoError(t, f.stores.Players.Set(ctx, p.ID, p, true))
	}

	f.route(t, "MatchLoad", map[string]any{"matchId": "m1", "map": "Harb"})
	f.route(t, "MatchStart", map[string]any{"matchId": "m1"})
	f.route(t, "PlayerJoin", map[string]any{"matchId": "m1", "playerId": "p1"})
	f.route(t, "PlayerJoin", map[string]any{"matchId": "m1", "playerId": "p2"})
	f.route(t, "PlayerDeath", map[string]any{"victim": "p2", "attacker": "p1", "matchId": "m1"})

	m, err := f.stores.Matches.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "srv1", m.ServerID)
	assert.Equal(t, testNow.UnixMilli(), m.StartedAt)
	assert.Equal(t, []string{"p1", "p2"}, m.Participants)
	assert.Equal(t, 1, m.Kills)

	// not yet durable
	_, err = f.durable.Find(ctx, store.TableMatches, "m1")
	require.ErrorIs(t, err, store.ErrNotFound)

	f.route(t, "MatchEnd", map[string]any{"matchId": "m1", "winners": []any{"p1"}})

	stored, err := store.NewCollection[*model.Match](store.TableMatches, f.durable).Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, testNow.UnixMilli(), stored.EndedAt)
	assert.Equal(t, "p1", stored.Winner)

	players := store.NewCollection[*model.Player](store.TablePlayers, f.durable)
	p1, err := players.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.PlayerStats{Kills: 1, Wins: 1, MatchesPlayed: 1}, p1.Stats)
	p2, err := players.Find(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, model.PlayerStats{Deaths: 1, Losses: 1, MatchesPlayed: 1}, p2.Stats)
}

func TestEventHandler_PlayerLeavePersistsStats(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.stores.Players.Set(ctx, "p1", model.NewPlayer("p1", "Steve"), true))
	f.route(t, "MatchLoad", map[string]any{"matchId": "m1"})
	f.route(t, "PlayerJoin", map[string]any{"matchId": "m1", "playerId": "p1"})
	f.route(t, "PlayerDeath", map[string]any{"victim": "p1"})

	players := store.NewCollection[*model.Player](store.TablePlayers, f.durable)
	before, err := players.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, before.Stats.Deaths, "deaths stay cache-only until the player leaves")

	f.route(t, "PlayerLeave", map[string]any{"matchId": "m1", "playerId": "p1"})

	after, err := players.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.Stats.Deaths)

	m, err := f.stores.Matches.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, m.Participants)
}

func TestEventHandler_UnknownPlayersAreSkipped(t *testing.T) {
	f := newHandlerFixture(t)
	f.route(t, "PlayerDeath", map[string]any{"victim": "nobody", "attacker": "ghost"})
	f.route(t, "PlayerLeave", map[string]any{"playerId": "nobody"})
}

func TestEventHandler_UnknownMatchesAreSkipped(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	events := []struct {
		name    string
		payload map[string]any
	}{
		{"MatchStart", map[string]any{"matchId": "gone"}},
		{"PlayerJoin", map[string]any{"matchId": "gone", "playerId": "p1"}},
		{"PlayerLeave", map[string]any{"matchId": "gone", "playerId": "p1"}},
		{"PlayerDeath", map[string]any{"matchId": "gone", "victim": "p1"}},
		{"MatchEnd", map[string]any{"matchId": "gone", "winners": []any{"p1"}}},
	}
	for _, ev := range events {
		require.NoError(t, f.router.Route(ctx, f.srv, ev.name, ev.payload), ev.name)
	}

	_, err := f.stores.Matches.Get(ctx, "gone")
	require.ErrorIs(t, err, store.ErrNotFound, "skipped events do not create the match")
}

func TestEventHandler_Errors(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	err := f.router.Route(ctx, f.srv, "MatchStart", map[string]any{})
	require.ErrorIs(t, err, errMissingField)

	err = f.router.Route(ctx, f.srv, "MatchLoad", map[string]any{})
	require.ErrorIs(t, err, errMissingField)

	err = f.router.Route(ctx, f.srv, "PlayerDeath", map[string]any{})
	require.ErrorIs(t, err, errMissingField)
}
