package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JodusNodus/apartment-eagle/internal/config"
	"github.com/JodusNodus/apartment-eagle/internal/notify"
	"github.com/JodusNodus/apartment-eagle/internal/store"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"run", "watch", "serve", "seen"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "apartment-eagle", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestInitStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := initStore(ctx, config.StoreConfig{Driver: "json", Path: filepath.Join(dir, "urls.json")})
	require.NoError(t, err)
	assert.IsType(t, &store.JSONStore{}, st)

	st, err = initStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "sub", "eagle.db")})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, st)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Close())

	_, err = initStore(ctx, config.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)

	_, err = initStore(ctx, config.StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}

func TestBuildNotifier(t *testing.T) {
	n := buildNotifier(&config.Config{
		Email:   config.EmailConfig{Enabled: true},
		Webhook: config.WebhookConfig{URL: "https://hooks.example.com/x"},
	})
	multi, ok := n.(notify.Multi)
	require.True(t, ok)
	require.Len(t, multi, 2)
	assert.Equal(t, "email", multi[0].Name())
	assert.Equal(t, "webhook", multi[1].Name())

	assert.Nil(t, buildNotifier(&config.Config{}))
}

func TestScheduleBounds(t *testing.T) {
	cfg = &config.Config{Schedule: config.ScheduleConfig{IntervalMinutes: 30, MaxIntervalMinutes: 45}}
	lo, hi := scheduleBounds()
	assert.Equal(t, 30*time.Minute, lo)
	assert.Equal(t, 45*time.Minute, hi)

	cfg = &config.Config{}
	lo, _ = scheduleBounds()
	assert.Equal(t, 30*time.Minute, lo)
}
