package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"example.com/gamerelay/internal/gateway"
	"example.com/gamerelay/internal/model"
	"example.com/gamerelay/internal/store"
)

type CreateRankRequest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Priority    int      `json:"priority"`
	Prefix      string   `json:"prefix"`
	Permissions []string `json:"permissions"`
	Staff       bool     `json:"staff"`
	ApplyOnJoin bool     `json:"applyOnJoin"`
}

type CreateTagRequest struct {
	Name    string `json:"name"`
	Display string `json:"display"`
}

// CatalogHandler serves ranks, tags and matches.
type CatalogHandler struct {
	stores *store.Stores
	log    *slog.Logger
	now    func() time.Time
}

func NewCatalogHandler(stores *store.Stores, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{stores: stores, log: log, now: time.Now}
}

func (h *CatalogHandler) CreateRank(w http.ResponseWriter, r *http.Request) {
	var req CreateRankRequest
	if err := decodeBody(r, &req); err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := checkRequired("name", req.Name); err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}

	ctx := r.Context()
	switch _, err := h.stores.Ranks.Get(ctx, req.Name); {
	case err == nil:
		writeStoreError(w, h.log, "rank", model.ErrNameTaken)
		return
	case !errors.Is(err, store.ErrNotFound):
		writeStoreError(w, h.log, "rank", err)
		return
	}

	rank := &model.Rank{
		ID:          uuid.NewString(),
		DisplayName: req.DisplayName,
		Priority:    req.Priority,
		Prefix:      req.Prefix,
		Permissions: req.Permissions,
		Staff:       req.Staff,
		ApplyOnJoin: req.ApplyOnJoin,
		CreatedAt:   h.now().UnixMilli(),
	}
	if rank.Permissions == nil {
		rank.Permissions = []string{}
	}
	rank.Rename(req.Name)

	if err := h.stores.Ranks.Set(ctx, rank.ID, rank, true); err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}
	writeJSON(w, http.StatusCreated, rank)
}

func (h *CatalogHandler) ListRanks(w http.ResponseWriter, r *http.Request) {
	ranks, err := h.stores.Ranks.Query(r.Context())
	if err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}
	if ranks == nil {
		ranks = []*model.Rank{}
	}
	writeJSON(w, http.StatusOK, ranks)
}

func (h *CatalogHandler) GetRank(w http.ResponseWriter, r *http.Request) {
	rank, err := h.stores.Ranks.Get(r.Context(), mux.Vars(r)["rankId"])
	if err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}

func (h *CatalogHandler) DeleteRank(w http.ResponseWriter, r *http.Request) {
	if err := h.stores.Ranks.Delete(r.Context(), mux.Vars(r)["rankId"]); err != nil {
		writeStoreError(w, h.log, "rank", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := decodeBody(r, &req); err != nil {
		writeStoreError(w, h.log, "tag", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := errors.Join(checkRequired("name", req.Name), checkRequired("display", req.Display)); err != nil {
		writeStoreError(w, h.log, "tag", err)
		return
	}

	ctx := r.Context()
	switch _, err := h.stores.Tags.Get(ctx, req.Name); {
	case err == nil:
		writeStoreError(w, h.log, "tag", model.ErrNameTaken)
		return
	case !errors.Is(err, store.ErrNotFound):
		writeStoreError(w, h.log, "tag", err)
		return
	}

	tag := &model.Tag{ID: uuid.NewString(), Display: req.Display, CreatedAt: h.now().UnixMilli()}
	tag.Rename(req.Name)
	if err := h.stores.Tags.Set(ctx, tag.ID, tag, true); err != nil {
		writeStoreError(w, h.log, "tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (h *CatalogHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.stores.Tags.Get(r.Context(), mux.Vars(r)["tagId"])
	if err != nil {
		writeStoreError(w, h.log, "tag", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (h *CatalogHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.stores.Matches.Get(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeStoreError(w, h.log, "match", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ServersHandler lists the game servers connected to the gateway.
func ServersHandler(reg *gateway.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reg.Servers())
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
