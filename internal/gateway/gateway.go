package gateway

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultPath is where game servers open their stream.
const DefaultPath = "/minecraft"

type Config struct {
	// Token is the shared secret every game server presents.
	Token string
	// ReadLimit caps a single compressed frame; zero keeps gorilla's default.
	ReadLimit int64
}

// Gateway accepts one WebSocket stream per game server and runs a session
// for each on the request goroutine.
type Gateway struct {
	token     []byte
	readLimit int64
	registry  *Registry
	router    *Router
	log       *slog.Logger
	upgrader  websocket.Upgrader
	now       func() time.Time

	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
}

func New(cfg Config, registry *Registry, router *Router, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		token:     []byte(cfg.Token),
		readLimit: cfg.ReadLimit,
		registry:  registry,
		router:    router,
		log:       log.With("component", "gateway"),
		upgrader: websocket.Upgrader{
			// Game servers are not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

func (g *Gateway) Registry() *Registry { return g.registry }

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.enter() {
		http.Error(w, "gateway shutting down", http.StatusServiceUnavailable)
		return
	}
	defer g.sessions.Done()

	s := &session{
		g:     g,
		state: StateConnecting,
		log:   g.log.With("remote", r.RemoteAddr),
	}
	s.serve(w, r)
}

// enter counts a new session unless Shutdown has started.
func (g *Gateway) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closing {
		return false
	}
	g.sessions.Add(1)
	return true
}

func (g *Gateway) authorized(token string) bool {
	return len(g.token) > 0 && subtle.ConstantTimeCompare([]byte(token), g.token) == 1
}

// Shutdown refuses new streams with 503, closes every open one and waits
// for the sessions to finish their cleanup, or for ctx to end.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()

	g.registry.CloseAll("server shutting down")

	done := make(chan struct{})
	go func() {
		g.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
