package httpapi

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"example.com/gamerelay/internal/model"
	"example.com/gamerelay/internal/store"
)

type PlayerHandler struct {
	stores *store.Stores
	log    *slog.Logger
	now    func() time.Time
}

func NewPlayerHandler(stores *store.Stores, log *slog.Logger) *PlayerHandler {
	return &PlayerHandler{stores: stores, log: log, now: time.Now}
}

type LoginRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	IP         string `json:"ip"`
}

type LoginResponse struct {
	Player        *model.Player       `json:"player"`
	ActiveSession *model.Session      `json:"activeSession"`
	Punishments   []*model.Punishment `json:"punishments"`
}

type LogoutRequest struct {
	PlayerID string `json:"playerId"`
	Playtime int64  `json:"playtime"`
}

type SetActiveTagRequest struct {
	ActiveTagID *string `json:"activeTagId"`
}

type IssuePunishmentRequest struct {
	Reason    string                 `json:"reason"`
	Offence   int                    `json:"offence"`
	Action    model.PunishmentAction `json:"action"`
	Note      string                 `json:"note"`
	Punisher  *model.SimplePlayer    `json:"punisher"`
	TargetIPs []string               `json:"targetIps"`
	Silent    bool                   `json:"silent"`
}

func (r LoginRequest) validate() error {
	return errors.Join(
		checkRequired("playerId", r.PlayerID),
		checkPlayerName("playerName", r.PlayerName),
		checkIPv4("ip", r.IP),
	)
}

// Login records a player joining a game server. A first join creates the
// player; a returning player is renamed, gains the new address and any
// default ranks, and is checked against active bans. Banned players get no
// session.
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	if err := req.validate(); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}

	ctx := r.Context()
	now := h.now().UnixMilli()
	ip := hashIP(req.IP)
	session := &model.Session{ID: uuid.NewString(), PlayerID: req.PlayerID, CreatedAt: now}

	defaults, err := h.defaultRankIDs(ctx)
	if err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}

	p, err := h.stores.Players.Get(ctx, req.PlayerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		p = model.NewPlayer(req.PlayerID, req.PlayerName)
		p.AddIP(ip)
		p.FirstJoinedAt = now
		p.LastJoinedAt = now
		p.MergeRanks(defaults)

		if err := h.stores.Players.Set(ctx, p.ID, p, true); err != nil {
			writeStoreError(w, h.log, "player", err)
			return
		}
		if err := h.stores.Sessions.Save(ctx, session); err != nil {
			writeStoreError(w, h.log, "session", err)
			return
		}
		writeJSON(w, http.StatusCreated, LoginResponse{Player: p, ActiveSession: session, Punishments: []*model.Punishment{}})
		return
	case err != nil:
		writeStoreError(w, h.log, "player", err)
		return
	}

	if err := h.endActiveSessions(ctx, p.ID, now); err != nil {
		writeStoreError(w, h.log, "session", err)
		return
	}
	p.Rename(req.PlayerName)
	p.AddIP(ip)
	p.MergeRanks(defaults)

	punishments, err := h.activePunishments(ctx, p.ID, now)
	if err != nil {
		writeStoreError(w, h.log, "punishment", err)
		return
	}
	ipBans, err := h.activeIPBans(ctx, ip, now)
	if err != nil {
		writeStoreError(w, h.log, "punishment", err)
		return
	}
	banned := len(ipBans) > 0 || slices.ContainsFunc(punishments, func(p *model.Punishment) bool { return p.Action.IsBan() })
	for _, b := range ipBans {
		if !slices.ContainsFunc(punishments, func(p *model.Punishment) bool { return p.ID == b.ID }) {
			punishments = append(punishments, b)
		}
	}

	resp := LoginResponse{Player: p, Punishments: punishments}
	if !banned {
		p.LastJoinedAt = now
		if err := h.stores.Sessions.Save(ctx, session); err != nil {
			writeStoreError(w, h.log, "session", err)
			return
		}
		resp.ActiveSession = session
	} else {
		h.log.Info("banned player attempted to join", "player", p.ID)
	}

	if err := h.stores.Players.Set(ctx, p.ID, p, true); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout ends the player's active session and adds the reported playtime.
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	if err := errors.Join(checkRequired("playerId", req.PlayerID), nonNegative("playtime", req.Playtime)); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}

	ctx := r.Context()
	p, err := h.stores.Players.Get(ctx, req.PlayerID)
	if err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	sessions, err := h.stores.Sessions.List(ctx, store.Where("playerId", p.ID), store.Where("endedAt", "0"))
	if err != nil {
		writeStoreError(w, h.log, "session", err)
		return
	}
	if len(sessions) == 0 {
		writeStoreError(w, h.log, "session", model.ErrSessionInactive)
		return
	}

	active := sessions[0]
	active.EndedAt = h.now().UnixMilli()
	p.Stats.ServerPlaytime += req.Playtime

	if err := h.stores.Sessions.Save(ctx, active); err != nil {
		writeStoreError(w, h.log, "session", err)
		return
	}
	if err := h.stores.Players.Set(ctx, p.ID, p, true); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.stores.Players.Get(r.Context(), mux.Vars(r)["playerId"])
	if err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlayerHandler) IssuePunishment(w http.ResponseWriter, r *http.Request) {
	var req IssuePunishmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	if err := checkRequired("reason", req.Reason); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	if !req.Action.Kind.Valid() {
		writeStoreError(w, h.log, "player", invalid("action.kind", req.Action.Kind))
		return
	}
	for _, ip := range req.TargetIPs {
		if err := checkRequired("targetIps", ip); err != nil {
			writeStoreError(w, h.log, "player", err)
			return
		}
	}

	ctx := r.Context()
	target, err := h.stores.Players.Get(ctx, mux.Vars(r)["playerId"])
	if err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}

	pun := &model.Punishment{
		ID:        uuid.NewString(),
		Reason:    req.Reason,
		IssuedAt:  h.now().UnixMilli(),
		Offence:   req.Offence,
		Action:    req.Action,
		Note:      req.Note,
		Punisher:  req.Punisher,
		Target:    target.Simple(),
		TargetIPs: req.TargetIPs,
		Silent:    req.Silent,
	}
	if pun.TargetIPs == nil {
		pun.TargetIPs = []string{}
	}
	if err := h.stores.Punishments.Save(ctx, pun); err != nil {
		writeStoreError(w, h.log, "punishment", err)
		return
	}
	writeJSON(w, http.StatusCreated, pun)
}

func (h *PlayerHandler) ListPunishments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.stores.Players.Get(ctx, mux.Vars(r)["playerId"])
	if err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	out, err := h.punishmentsOf(ctx, p.ID)
	if err != nil {
		writeStoreError(w, h.log, "punishment", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PlayerHandler) SetActiveTag(w http.ResponseWriter, r *http.Request) {
	var req SetActiveTagRequest
	if err := decodeBody(r, &req); err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	h.updatePlayer(w, r, func(p *model.Player) (bool, error) {
		if req.ActiveTagID == nil && p.ActiveTagID == nil {
			return false, nil
		}
		if req.ActiveTagID != nil && p.ActiveTagID != nil && *req.ActiveTagID == *p.ActiveTagID {
			return false, nil
		}
		return true, p.SetActiveTag(req.ActiveTagID)
	})
}

func (h *PlayerHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	h.withTag(w, r, (*model.Player).AddTag)
}

func (h *PlayerHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	h.withTag(w, r, (*model.Player).RemoveTag)
}

func (h *PlayerHandler) AddRank(w http.ResponseWriter, r *http.Request) {
	h.withRank(w, r, (*model.Player).AddRank)
}

func (h *PlayerHandler) RemoveRank(w http.ResponseWriter, r *http.Request) {
	h.withRank(w, r, (*model.Player).RemoveRank)
}

func (h *PlayerHandler) withTag(w http.ResponseWriter, r *http.Request, apply func(*model.Player, string) error) {
	tag, err := h.stores.Tags.Get(r.Context(), mux.Vars(r)["tagId"])
	if err != nil {
		writeStoreError(w, h.log, "tag", err)
		return
	}
	h.updatePlayer(w, r, func(p *model.Player) (bool, error) {
		return true, apply(p, tag.ID)
	})
}

func (h *PlayerHandler) withRank(w http.ResponseWriter, r *http.Request, apply func(*model.Player, string) error) {
	rank, err := h.stores.Ranks.Get(r.Context(), mux.Vars(r)["rankId"])
	if err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}
	h.updatePlayer(w, r, func(p *model.Player) (bool, error) {
		return true, apply(p, rank.ID)
	})
}

// updatePlayer loads the path's player, applies fn and persists the result
// when fn reports a change.
func (h *PlayerHandler) updatePlayer(w http.ResponseWriter, r *http.Request, fn func(*model.Player) (bool, error)) {
	ctx := r.Context()
	p, err := h.stores.Players.Get(ctx, mux.Vars(r)["playerId"])
	if err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	changed, err := fn(p)
	if err != nil {
		writeStoreError(w, h.log, "player", err)
		return
	}
	if changed {
		if err := h.stores.Players.Set(ctx, p.ID, p, true); err != nil {
			writeStoreError(w, h.log, "player", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlayerHandler) defaultRankIDs(ctx context.Context) ([]string, error) {
	ranks, err := h.stores.Ranks.Query(ctx, store.Where("applyOnJoin", "true"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ranks))
	for _, rk := range ranks {
		ids = append(ids, rk.ID)
	}
	return ids, nil
}

// endActiveSessions closes sessions left open by a missed logout.
func (h *PlayerHandler) endActiveSessions(ctx context.Context, playerID string, now int64) error {
	stale, err := h.stores.Sessions.List(ctx, store.Where("playerId", playerID), store.Where("endedAt", "0"))
	if err != nil {
		return err
	}
	for _, s := range stale {
		s.EndedAt = now
		if err := h.stores.Sessions.Save(ctx, s); err != nil {
			return err
		}
	}
	if len(stale) > 0 {
		h.log.Warn("ended stale sessions", "player", playerID, "count", len(stale))
	}
	return nil
}

func (h *PlayerHandler) punishmentsOf(ctx context.Context, playerID string) ([]*model.Punishment, error) {
	out, err := h.stores.Punishments.List(ctx, store.Where("target.id", playerID))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b *model.Punishment) int { return cmp.Compare(a.IssuedAt, b.IssuedAt) })
	if out == nil {
		out = []*model.Punishment{}
	}
	return out, nil
}

func (h *PlayerHandler) activePunishments(ctx context.Context, playerID string, now int64) ([]*model.Punishment, error) {
	all, err := h.punishmentsOf(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p *model.Punishment) bool { return !p.ActiveAt(now) }), nil
}

func (h *PlayerHandler) activeIPBans(ctx context.Context, ipHash string, now int64) ([]*model.Punishment, error) {
	bans, err := h.stores.Punishments.List(ctx, store.Where("action.kind", string(model.PunishmentIPBan)))
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(bans, func(p *model.Punishment) bool {
		return !p.ActiveAt(now) || !slices.Contains(p.TargetIPs, ipHash)
	}), nil
}

func nonNegative(field string, v int64) error {
	if v < 0 {
		return invalid(field, strconv.FormatInt(v, 10))
	}
	return nil
}
