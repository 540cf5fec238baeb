package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// State is a session's position in its lifecycle. Closed is terminal; a
// reconnect gets a new session.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type session struct {
	g      *Gateway
	state  State
	log    *slog.Logger
	server *ConnectedServer
}

func (s *session) transition(to State) {
	s.log.Debug("session state", "from", s.state, "to", to)
	s.state = to
}

func (s *session) serve(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	token := r.URL.Query().Get("token")

	s.transition(StateAuthenticating)
	if id == "" || token == "" || !s.g.authorized(token) {
		s.log.Warn("unauthorized gateway connection", "server", id)
		s.transition(StateClosed)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s.log = s.log.With("server", id)

	ws, err := s.g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Warn("websocket upgrade failed", "err", err)
		s.transition(StateClosed)
		return
	}
	if s.g.readLimit > 0 {
		ws.SetReadLimit(s.g.readLimit)
	}

	srv, err := s.g.registry.TryRegister(id, ws)
	if err != nil {
		s.log.Warn("server attempting to connect twice, closing new connection")
		_ = closeTransport(ws, websocket.ClosePolicyViolation,
			fmt.Sprintf("Server with ID '%s' is already connected", id))
		s.transition(StateClosed)
		return
	}
	s.server = srv

	defer func() {
		s.g.registry.Release(srv)
		_ = ws.Close()
		s.transition(StateClosed)
		s.log.Info("server disconnected from gateway",
			slog.Duration("connected_for", time.Since(srv.ConnectedAt())))
	}()

	s.transition(StateActive)
	s.log.Info("server connected to gateway")

	if err := s.readLoop(r.Context(), ws); err != nil {
		s.log.Error("closing gateway connection", "err", err)
		code := websocket.CloseInternalServerErr
		var de *DecodeError
		if errors.As(err, &de) {
			code = websocket.CloseUnsupportedData
		}
		_ = srv.Close(code, err.Error())
	}
}

// readLoop handles frames strictly in arrival order. It returns nil when the
// peer goes away and the failing error otherwise.
func (s *session) readLoop(ctx context.Context, ws Transport) error {
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			s.transition(StateClosing)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("gateway connection lost", "err", err)
			}
			return nil
		}
		if mt != websocket.BinaryMessage {
			continue
		}

		frame, err := Decode(data)
		if err == nil {
			err = s.g.router.Route(ctx, s.server, frame.Event, frame.Data)
		}
		if err != nil {
			s.transition(StateClosing)
			return err
		}
		s.log.Debug("event handled", "event", frame.Event)
		s.server.Touch(s.g.now())
	}
}
