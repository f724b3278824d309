package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Houeta/price-radar/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		env      string
		enabled  slog.Level
		disabled slog.Level
	}{
		{env: envLocal, enabled: slog.LevelDebug},
		{env: envDev, enabled: slog.LevelInfo, disabled: slog.LevelDebug},
		{env: envProd, enabled: slog.LevelWarn, disabled: slog.LevelInfo},
		{env: "staging", enabled: slog.LevelError, disabled: slog.LevelWarn},
	}

	for _, tc := range testCases {
		t.Run(tc.env, func(t *testing.T) {
			logger := setupLogger(tc.env)

			require.NotNil(t, logger)
			assert.True(t, logger.Enabled(ctx, tc.enabled))
			if tc.env != envLocal {
				assert.False(t, logger.Enabled(ctx, tc.disabled))
			}
		})
	}
}

func TestFetcherOptions(t *testing.T) {
	cfg := &config.Config{
		Fetch: config.Fetch{RPS: 5, Burst: 10},
	}

	opts := fetcherOptions(cfg)
	assert.Nil(t, opts.Proxy)
	assert.InDelta(t, 5.0, opts.RPS, 1e-9)

	cfg.Proxy = config.Proxy{Host: "brd.superproxy.io", Port: 22225, Username: "user", Password: "pw"}
	opts = fetcherOptions(cfg)
	require.NotNil(t, opts.Proxy)
	assert.Equal(t, "user", opts.Proxy.Username)
	assert.Equal(t, 22225, opts.Proxy.Port)
}

func TestDropTime(t *testing.T) {
	assert.True(t, dropTime(nil, slog.String(slog.TimeKey, "now")).Equal(slog.Attr{}))
	assert.Equal(t, "msg", dropTime(nil, slog.String(slog.MessageKey, "msg")).Value.String())
}
