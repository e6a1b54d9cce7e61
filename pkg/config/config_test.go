package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	v := viper.New()
	require.NoError(t, Init(v, ""))

	c, err := Get(v)
	require.NoError(t, err)
	assert.Equal(t, "./data", c.Input.Dir)
	assert.Equal(t, 100, c.Background.History)
	assert.Equal(t, 6.0, c.Background.VarThreshold)
	assert.True(t, c.Background.DetectShadows)
	assert.Equal(t, 2.0, c.Blob.MinArea)
	assert.Equal(t, 5.0, c.Blob.Padding)
	assert.True(t, c.Output.Overlays)
	assert.False(t, c.Storage.Publish)
	assert.GreaterOrEqual(t, c.Workers, 1)

	pc := c.ProcessorConfig()
	assert.Equal(t, float32(128), pc.Blob.BinaryThreshold)
	assert.Equal(t, "s3", pc.Storage.Scheme)
}

func TestFileOverridesDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
input:
  dir: /mnt/frames
workers: 3
blob:
  padding: 8
storage:
  scheme: gs
  bucket: court-data
  prefix: season1
output:
  masks: true
`), 0644))

	v := viper.New()
	require.NoError(t, Init(v, file))
	c, err := Get(v)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/frames", c.Input.Dir)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, 8.0, c.Blob.Padding)
	assert.Equal(t, 2.0, c.Blob.MinArea)

	opts := c.RunOptions(nil)
	assert.Equal(t, "/mnt/frames", opts.InputDir)
	assert.True(t, opts.Discover.Masks)
	assert.Equal(t, "season1", opts.Prefix)
	assert.Equal(t, "gs://court-data/season1/a/b.jpg", opts.Processor.Storage.URI("a/b.jpg"))
	assert.Equal(t, "gs", c.StorageConfig().Scheme)
}

func TestExplicitMissingFileFails(t *testing.T) {
	v := viper.New()
	assert.Error(t, Init(v, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("BALLANNOTATE_HTTP_PORT", "9999")

	v := viper.New()
	require.NoError(t, Init(v, writeEmptyConfig(t)))
	c, err := Get(v)
	require.NoError(t, err)
	assert.Equal(t, "9999", c.HTTP.Port)
}

func writeEmptyConfig(t *testing.T) string {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log:\n  level: debug\n"), 0644))
	return file
}
