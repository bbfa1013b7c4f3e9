package app

import (
	"os"
	"testing"

	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedConfig(t *testing.T) {
	data, err := os.ReadFile("../../config/config.yaml")
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", data)
	require.NoError(t, err)

	assert.NotEqual(t, messaging.DriverMemory, cfg.GetString("messaging.driver"))
	assert.Equal(t, rbac.DefaultTable, cfg.GetString("rbac.table"))
	assert.Equal(t, rbac.DefaultChannel, cfg.GetString("rbac.channel"))
	assert.Len(t, cfg.GetMap("secretbox.keys"), 1)
}
