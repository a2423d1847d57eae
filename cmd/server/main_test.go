package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivefund/ledger/internal/auth"
	"github.com/hivefund/ledger/internal/config"
	"github.com/hivefund/ledger/pkg/api"
	"github.com/hivefund/ledger/pkg/api/apiconnect"
)

const testSecret = "test-secret"

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	t.Setenv("HIVEFUND_AUTH_JWT_SECRET", testSecret)
	t.Setenv("HIVEFUND_DATABASE_PATH", filepath.Join(t.TempDir(), "ledger.db"))
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestTokenCommand(t *testing.T) {
	testConfig(t)

	token := strings.TrimSpace(runCmd(t, "token", "--donor", "donor-1", "--name", "Alice"))

	claims, err := auth.NewJWTManager(testSecret, time.Hour).Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "donor-1", claims.DonorID)
	assert.Equal(t, "Alice", claims.DisplayName)
}

func TestMigrateAndSweepCommands(t *testing.T) {
	testConfig(t)

	runCmd(t, "migrate")
	assert.Equal(t, "expired 0 match pool(s)\n", runCmd(t, "sweep"))
}

func TestRoutes(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	server := httptest.NewServer(a.routes())
	defer server.Close()

	health, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	// Auth is required by default.
	leaderboard := apiconnect.NewLeaderboardServiceClient(http.DefaultClient, server.URL)
	_, err = leaderboard.GetLeaderboard(context.Background(), connect.NewRequest(&api.GetLeaderboardRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	token := strings.TrimSpace(runCmd(t, "token", "--donor", "donor-1"))
	req := connect.NewRequest(&api.GetLeaderboardRequest{Timeframe: "daily"})
	req.Header().Set("Authorization", "Bearer "+token)
	resp, err := leaderboard.GetLeaderboard(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Entries)

	m, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer m.Body.Close()
	body, err := io.ReadAll(m.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hivefund_ledger_leaderboard_queries_total{timeframe="daily"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServeShutsDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = freePort(t)
	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func freePort(t *testing.T) int {
	t.Helper()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	return server.Listener.Addr().(*net.TCPAddr).Port
}
