package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"example.com/gamerelay/internal/auth"
	"example.com/gamerelay/internal/gateway"
	"example.com/gamerelay/internal/store"
)

type RouterConfig struct {
	Logger *slog.Logger
	Auth   *auth.Service
	Stores *store.Stores

	// Gateway is mounted at GatewayPath outside the admin middleware, since
	// the WebSocket upgrade needs the raw ResponseWriter.
	Gateway     *gateway.Gateway
	GatewayPath string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	players := NewPlayerHandler(cfg.Stores, cfg.Logger)
	catalog := NewCatalogHandler(cfg.Stores, cfg.Logger)

	if cfg.Gateway != nil {
		path := cfg.GatewayPath
		if path == "" {
			path = gateway.DefaultPath
		}
		r.Handle(path, cfg.Gateway)
	}

	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(RecoveryMiddleware(cfg.Logger))
	protected.Use(LoggingMiddleware(cfg.Logger))
	protected.Use(AuthMiddleware(cfg.Auth))

	if cfg.Gateway != nil {
		protected.HandleFunc("/api/servers", ServersHandler(cfg.Gateway.Registry())).Methods(http.MethodGet)
	}

	mc := protected.PathPrefix("/mc").Subrouter()

	mc.HandleFunc("/players/login", players.Login).Methods(http.MethodPost)
	mc.HandleFunc("/players/logout", players.Logout).Methods(http.MethodPost)
	mc.HandleFunc("/players/{playerId}", players.Get).Methods(http.MethodGet)
	mc.HandleFunc("/players/{playerId}/punishments", players.IssuePunishment).Methods(http.MethodPost)
	mc.HandleFunc("/players/{playerId}/punishments", players.ListPunishments).Methods(http.MethodGet)
	mc.HandleFunc("/players/{playerId}/active_tag", players.SetActiveTag).Methods(http.MethodPut)
	mc.HandleFunc("/players/{playerId}/tags/{tagId}", players.AddTag).Methods(http.MethodPut)
	mc.HandleFunc("/players/{playerId}/tags/{tagId}", players.RemoveTag).Methods(http.MethodDelete)
	mc.HandleFunc("/players/{playerId}/ranks/{rankId}", players.AddRank).Methods(http.MethodPut)
	mc.HandleFunc("/players/{playerId}/ranks/{rankId}", players.RemoveRank).Methods(http.MethodDelete)

	mc.HandleFunc("/ranks", catalog.CreateRank).Methods(http.MethodPost)
	mc.HandleFunc("/ranks", catalog.ListRanks).Methods(http.MethodGet)
	mc.HandleFunc("/ranks/{rankId}", catalog.GetRank).Methods(http.MethodGet)
	mc.HandleFunc("/ranks/{rankId}", catalog.DeleteRank).Methods(http.MethodDelete)

	mc.HandleFunc("/tags", catalog.CreateTag).Methods(http.MethodPost)
	mc.HandleFunc("/tags/{tagId}", catalog.GetTag).Methods(http.MethodGet)

	mc.HandleFunc("/matches/{matchId}", catalog.GetMatch).Methods(http.MethodGet)

	return r
}
