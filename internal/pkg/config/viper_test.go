package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
modules:
  verification:
    otp:
      expiration_minutes: 5
      length: 6
    rate_limit:
      threshold: 3
      window_minutes: 60
    channels: "email, sms,"
secretbox:
  key: "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="
tags: "a:1,b:2"
`

func TestNewViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.GetMinute("modules.verification.otp.expiration_minutes"))
	assert.Equal(t, time.Hour, cfg.GetMinute("modules.verification.rate_limit.window_minutes"))
	assert.Equal(t, 3, cfg.GetInt("modules.verification.rate_limit.threshold"))
	assert.Equal(t, []string{"email", "sms"}, cfg.GetArray("modules.verification.channels"))
	assert.Len(t, cfg.GetBinary("secretbox.key"), 32)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, cfg.GetMap("tags"))
	assert.Nil(t, cfg.GetArray("missing"))
	assert.NoError(t, cfg.Close())
}

func TestNewViperFromBytes_EnvOverride(t *testing.T) {
	t.Setenv("APP_MODULES_VERIFICATION_RATE_LIMIT_THRESHOLD", "10")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.GetInt("modules.verification.rate_limit.threshold"))
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sample))
	assert.Error(t, err)
}
