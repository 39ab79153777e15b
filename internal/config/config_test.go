package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gallery.db", cfg.Database.Path)
	assert.Equal(t, "admin123", cfg.Admin.Password)
	assert.Equal(t, "data/db_backup.json", cfg.Backup.Path)
	assert.Equal(t, "github", cfg.Remote.Provider)
	assert.Equal(t, "main", cfg.Remote.Branch)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 800, cfg.Images.MaxDimension)
	assert.Equal(t, 85, cfg.Images.JPEGQuality)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("REMOTE_PROVIDER", "S3")
	t.Setenv("REMOTE_TIMEOUT", "5s")
	t.Setenv("REMOTE_MAX_RETRIES", "7")
	t.Setenv("BACKUP_SYNC_ON_BOOT", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Remote.Provider)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 7, cfg.Remote.MaxRetries)
	assert.False(t, cfg.Backup.SyncOnBoot)
}

func TestLoad_InvalidProvider(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REMOTE_PROVIDER", "ftp")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMOTE_PROVIDER")
}

func TestValidate_JPEGQuality(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("IMAGE_JPEG_QUALITY", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAGE_JPEG_QUALITY")
}

func TestGetEnvAsDuration_Invalid(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("SOME_DURATION", time.Minute))
}
