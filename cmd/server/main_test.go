package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gamerelay/internal/auth"
)

func TestTokenCmd(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "gw")
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "ops", "--ttl", "5m"})
	require.NoError(t, root.Execute())

	claims, err := auth.NewService([]byte("cli-secret"), time.Minute).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestMigrateCmd_RequiresPostgres(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "gw")
	t.Setenv("STORAGE_BACKEND", "memory")

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	root.SetErr(&bytes.Buffer{})
	require.Error(t, root.Execute())
}
