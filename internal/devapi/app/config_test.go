package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	for _, k := range []string{"DEVAPI_STATIC_OTP", "DEVAPI_SEED", "PORT", "DEVAPI_OTP_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Port)
	require.True(t, cfg.Seed)
	require.Equal(t, 10*time.Minute, cfg.CodeTTL)

	t.Setenv("DEVAPI_STATIC_OTP", "123456")
	t.Setenv("DEVAPI_SEED", "false")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "123456", cfg.StaticOTP)
	require.False(t, cfg.Seed)

	t.Setenv("DEVAPI_STATIC_OTP", "12ab")
	_, err = LoadConfig("")
	require.Error(t, err)
}

func TestNewServesSeededData(t *testing.T) {
	application, err := New(Config{StaticOTP: "123456", Seed: true, LogLevel: "error", Env: "test"})
	require.NoError(t, err)
	require.NotNil(t, application.Handler())

	_, err = application.store.UserByEmail("a@b.com")
	require.NoError(t, err)
}
