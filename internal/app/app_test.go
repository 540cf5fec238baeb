package app

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gamerelay/internal/config"
	"example.com/gamerelay/internal/testutil"
)

func testConfig(t *testing.T, redisAddr string) config.Config {
	t.Helper()
	t.Setenv("GATEWAY_TOKEN", "gw")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("REDIS_URL", "redis://"+redisAddr)

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.HTTP.Addr = l.Addr().String()
	require.NoError(t, l.Close())
	cfg.HTTP.ShutdownTimeout = 2 * time.Second
	return cfg
}

func TestNew_RedisUnreachable(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := testConfig(t, mini.Addr())
	mini.Close()

	_, err := New(context.Background(), cfg, testutil.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := testConfig(t, mini.Addr())

	a, err := New(context.Background(), cfg, testutil.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.HTTP.Addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ClosesGameServerStreamsOnShutdown(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := testConfig(t, mini.Addr())

	a, err := New(context.Background(), cfg, testutil.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := "ws://" + cfg.HTTP.Addr + cfg.Gateway.Path + "?id=srv1&token=gw"
	var ws *websocket.Conn
	require.Eventually(t, func() bool {
		ws, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer ws.Close()
	require.Eventually(t, func() bool { return a.gw.Registry().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = ws.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, websocket.CloseGoingAway, ce.Code)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, a.gw.Registry().Len())
}
