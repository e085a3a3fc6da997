package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphoseg/pkg/predictive"
	"morphoseg/pkg/structel"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	p, err := cfg.PredictiveParams()
	require.NoError(t, err)
	assert.Equal(t, structel.Eight, p.Connectivity)
	assert.Equal(t, predictive.DefaultParams().BlockSize, p.BlockSize)
	assert.Equal(t, 9, p.Element.Len())
}

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "morphoseg.yaml")

	cfg := DefaultConfig()
	cfg.Segmentation.Connectivity = 4
	cfg.Segmentation.GradientElement = "disk"
	cfg.Segmentation.GradientRadius = 2
	cfg.Predictive.BlockSize = 16
	cfg.Predictive.BlockThreshold = 0
	cfg.Predictive.CoverPartialBlocks = true
	cfg.Segmentation.SmoothSigma = 1.5
	cfg.Predictive.TrackDistance = 8
	cfg.Output.SaveChangeMasks = true
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	p, err := loaded.PredictiveParams()
	require.NoError(t, err)
	assert.Equal(t, structel.Four, p.Connectivity)
	assert.True(t, p.CoverPartialBlocks)
	assert.Equal(t, 13, p.Element.Len())

	smoother, err := loaded.Smoother()
	require.NoError(t, err)
	assert.Equal(t, 1.5, smoother.Sigma)
	tracker, err := loaded.Tracker()
	require.NoError(t, err)
	assert.Equal(t, 8.0, tracker.MaxDistance)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("predictive:\n  blockSize: 4\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Predictive.BlockSize)
	assert.Equal(t, DefaultConfig().Predictive.BlockThreshold, cfg.Predictive.BlockThreshold)
	assert.Equal(t, "square", cfg.Segmentation.GradientElement)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"connectivity", "segmentation:\n  connectivity: 6\n"},
		{"element", "segmentation:\n  gradientElement: hexagon\n"},
		{"radius", "segmentation:\n  gradientRadius: 0\n"},
		{"block size", "predictive:\n  blockSize: 0\n"},
		{"threshold", "predictive:\n  blockThreshold: -2\n"},
		{"output", "output:\n  dir: \"\"\n"},
		{"sigma", "segmentation:\n  smoothSigma: -1\n"},
		{"track distance", "predictive:\n  trackDistance: -3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := LoadConfig(path)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}

	path := filepath.Join(t.TempDir(), "garbled.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segmentation: [1, 2"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "blockThreshold:")
	assert.Contains(t, string(data), "gradientElement: square")
}
