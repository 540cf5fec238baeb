package gateway

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Handler has one method per EventType. Adding an event kind means adding a
// method here, so every implementation must handle it.
type Handler interface {
	OnMatchLoad(ctx context.Context, srv *ConnectedServer, d MatchLoadData) error
	OnMatchStart(ctx context.Context, srv *ConnectedServer, d MatchStartData) error
	OnMatchEnd(ctx context.Context, srv *ConnectedServer, d MatchEndData) error
	OnPlayerJoin(ctx context.Context, srv *ConnectedServer, d PlayerJoinData) error
	OnPlayerLeave(ctx context.Context, srv *ConnectedServer, d PlayerLeaveData) error
	OnPlayerDeath(ctx context.Context, srv *ConnectedServer, d PlayerDeathData) error
	OnPlayerChat(ctx context.Context, srv *ConnectedServer, d PlayerChatData) error
}

// Router resolves event names and calls the matching Handler method
// synchronously. Handler errors are returned, not logged.
type Router struct {
	h Handler
}

func NewRouter(h Handler) *Router {
	return &Router{h: h}
}

func (r *Router) Route(ctx context.Context, srv *ConnectedServer, event string, payload map[string]any) error {
	t, err := ParseEventType(event)
	if err != nil {
		return err
	}

	switch t {
	case MatchLoad:
		return dispatch(ctx, srv, t, payload, r.h.OnMatchLoad)
	case MatchStart:
		return dispatch(ctx, srv, t, payload, r.h.OnMatchStart)
	case MatchEnd:
		return dispatch(ctx, srv, t, payload, r.h.OnMatchEnd)
	case PlayerJoin:
		return dispatch(ctx, srv, t, payload, r.h.OnPlayerJoin)
	case PlayerLeave:
		return dispatch(ctx, srv, t, payload, r.h.OnPlayerLeave)
	case PlayerDeath:
		return dispatch(ctx, srv, t, payload, r.h.OnPlayerDeath)
	case PlayerChat:
		return dispatch(ctx, srv, t, payload, r.h.OnPlayerChat)
	}
	return fmt.Errorf("event %s: no handler", t)
}

func dispatch[D any](
	ctx context.Context,
	srv *ConnectedServer,
	t EventType,
	payload map[string]any,
	fn func(context.Context, *ConnectedServer, D) error,
) error {
	var d D
	if err := decodePayload(payload, &d); err != nil {
		return decodeError(ErrMalformedPayload, t.String(), err)
	}
	if err := fn(ctx, srv, d); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	return nil
}

func decodePayload(payload map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(payload)
}
