package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"example.com/gamerelay/internal/model"
	"example.com/gamerelay/internal/store"
)

var errMissingField = errors.New("missing required field")

// EventHandler applies game-server events to the entity stores. Match and
// player updates stay in the cache until the match ends or the player leaves.
type EventHandler struct {
	stores *store.Stores
	log    *slog.Logger
	now    func() time.Time
}

func NewEventHandler(stores *store.Stores, log *slog.Logger) *EventHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventHandler{stores: stores, log: log, now: time.Now}
}

var _ Handler = (*EventHandler)(nil)

func (h *EventHandler) OnMatchLoad(ctx context.Context, srv *ConnectedServer, d MatchLoadData) error {
	if d.MatchID == "" {
		return fmt.Errorf("matchId: %w", errMissingField)
	}
	m := &model.Match{
		ID:           d.MatchID,
		ServerID:     srv.ID(),
		Map:          d.Map,
		LoadedAt:     h.now().UnixMilli(),
		Participants: []string{},
	}
	return h.stores.Matches.Set(ctx, m.ID, m, false)
}

func (h *EventHandler) OnMatchStart(ctx context.Context, srv *ConnectedServer, d MatchStartData) error {
	return h.updateMatch(ctx, d.MatchID, false, func(m *model.Match) error {
		m.StartedAt = h.now().UnixMilli()
		return nil
	})
}

func (h *EventHandler) OnMatchEnd(ctx context.Context, srv *ConnectedServer, d MatchEndData) error {
	var participants []string
	err := h.updateMatch(ctx, d.MatchID, true, func(m *model.Match) error {
		m.EndedAt = h.now().UnixMilli()
		if len(d.Winners) > 0 {
			m.Winner = d.Winners[0]
		}
		participants = slices.Clone(m.Participants)
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range participants {
		err := h.updatePlayer(ctx, id, true, func(p *model.Player) {
			p.Stats.MatchesPlayed++
			switch {
			case len(d.Winners) == 0:
			case slices.Contains(d.Winners, id):
				p.Stats.Wins++
			default:
				p.Stats.Losses++
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *EventHandler) OnPlayerJoin(ctx context.Context, srv *ConnectedServer, d PlayerJoinData) error {
	if d.PlayerID == "" {
		return fmt.Errorf("playerId: %w", errMissingField)
	}
	return h.updateMatch(ctx, d.MatchID, false, func(m *model.Match) error {
		m.Join(d.PlayerID)
		return nil
	})
}

// OnPlayerLeave also flushes the player's cache-only stats to durable storage.
func (h *EventHandler) OnPlayerLeave(ctx context.Context, srv *ConnectedServer, d PlayerLeaveData) error {
	if d.PlayerID == "" {
		return fmt.Errorf("playerId: %w", errMissingField)
	}
	if d.MatchID != "" {
		err := h.updateMatch(ctx, d.MatchID, false, func(m *model.Match) error {
			m.Leave(d.PlayerID)
			return nil
		})
		if err != nil {
			return err
		}
	}

	err := h.stores.Players.Persist(ctx, d.PlayerID)
	if errors.Is(err, store.ErrNotFound) {
		h.log.Debug("leaving player has no record", "player", d.PlayerID)
		return nil
	}
	return err
}

func (h *EventHandler) OnPlayerDeath(ctx context.Context, srv *ConnectedServer, d PlayerDeathData) error {
	if d.Victim == "" {
		return fmt.Errorf("victim: %w", errMissingField)
	}
	if err := h.updatePlayer(ctx, d.Victim, false, func(p *model.Player) { p.Stats.Deaths++ }); err != nil {
		return err
	}
	if d.Attacker != "" && d.Attacker != d.Victim {
		if err := h.updatePlayer(ctx, d.Attacker, false, func(p *model.Player) { p.Stats.Kills++ }); err != nil {
			return err
		}
	}
	if d.MatchID == "" {
		return nil
	}
	return h.updateMatch(ctx, d.MatchID, false, func(m *model.Match) error {
		m.Kills++
		return nil
	})
}

func (h *EventHandler) OnPlayerChat(ctx context.Context, srv *ConnectedServer, d PlayerChatData) error {
	h.log.Info("chat",
		slog.String("server", srv.ID()),
		slog.String("player", d.PlayerID),
		slog.String("channel", d.Channel),
		slog.String("message", d.Message))
	return nil
}

// updateMatch skips matches without a record, like updatePlayer: the load
// may predate this process or the entry may have expired.
func (h *EventHandler) updateMatch(ctx context.Context, id string, persist bool, fn func(*model.Match) error) error {
	if id == "" {
		return fmt.Errorf("matchId: %w", errMissingField)
	}
	m, err := h.stores.Matches.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.log.Warn("event for unknown match", "match", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("match %q: %w", id, err)
	}
	if err := fn(m); err != nil {
		return err
	}
	return h.stores.Matches.Set(ctx, m.ID, m, persist)
}

// updatePlayer skips players without a record: a server can report a player
// before the login call has reached us.
func (h *EventHandler) updatePlayer(ctx context.Context, id string, persist bool, fn func(*model.Player)) error {
	p, err := h.stores.Players.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.log.Debug("event for unknown player", "player", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("player %q: %w", id, err)
	}
	fn(p)
	return h.stores.Players.Set(ctx, p.ID, p, persist)
}
