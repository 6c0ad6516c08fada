package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/residentbot/core/bootstrap"
	coreconfig "github.com/m3rciful/residentbot/core/config"
)

func TestRunRequiresServe(t *testing.T) {
	assert.Error(t, Run(Options{}))
}

func TestRunStopsOnConfigError(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	built := false
	err := Run(Options{
		LoadConfig: func(string) (*coreconfig.Config, error) {
			return nil, coreconfig.ErrConfiguration
		},
		Bootstrap: func(context.Context, *coreconfig.Config) (*bootstrap.App, error) {
			built = true
			return nil, nil
		},
		Serve: func(context.Context, *bootstrap.App) error { return nil },
	})
	assert.ErrorIs(t, err, coreconfig.ErrConfiguration)
	assert.False(t, built)
}

func TestRunPassesAppToServe(t *testing.T) {
	t.Setenv("RB_CONFIG", "custom.yaml")
	var (
		gotPath  string
		served   *bootstrap.App
		shutdown bool
	)
	app := &bootstrap.App{}
	err := Run(Options{
		ConfigEnvVar: "RB_CONFIG",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			gotPath = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(context.Context, *coreconfig.Config) (*bootstrap.App, error) {
			return app, nil
		},
		ShutdownLogger: func() error { shutdown = true; return nil },
		Serve: func(_ context.Context, a *bootstrap.App) error {
			served = a
			return errors.New("stopped")
		},
	})
	assert.EqualError(t, err, "stopped")
	assert.Equal(t, "custom.yaml", gotPath)
	assert.Same(t, app, served)
	assert.True(t, shutdown)
}

func TestServeUntilDoneShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, srv) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
