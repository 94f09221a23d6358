package store

import (
	"os"
	"path/filepath"
	"testing"

	"fundamentals-ranker/internal/research/fundamentals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "universe:\n  static: [AAPL, MSFT]\n"))
	require.NoError(t, err)

	assert.Equal(t, DataSourceLive, c.DataSource)
	assert.Equal(t, []string{"AAPL", "MSFT"}, c.Universe.Static)
	assert.Equal(t, []fundamentals.Granularity{fundamentals.Annual, fundamentals.Quarterly}, c.Granularities())
	assert.Equal(t, 4, c.Engine.WindowSize)
	assert.Equal(t, 50.0, c.Engine.TrendDivisor)
	assert.True(t, c.HoldingsEnabled())
	assert.Equal(t, "NASDAQ_100_Annual_Analysis.xlsx", c.OutputPath(fundamentals.Annual))

	ec := c.EngineConfig(fundamentals.Quarterly)
	assert.Equal(t, fundamentals.Quarterly, ec.Granularity)
	assert.Equal(t, 4, ec.Workers)
}

func TestLoadConfig_Full(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, `
data_source: mock
engine:
  granularities: [quarterly]
  window_size: 6
  trend_divisor: 25
  workers: 8
holdings:
  enabled: false
output:
  dir: out
  quarterly: q.csv
`))
	require.NoError(t, err)
	assert.Equal(t, DataSourceMock, c.DataSource)
	assert.Equal(t, []fundamentals.Granularity{fundamentals.Quarterly}, c.Granularities())
	assert.False(t, c.HoldingsEnabled())
	assert.Equal(t, filepath.Join("out", "q.csv"), c.OutputPath(fundamentals.Quarterly))
	assert.Equal(t, 6, c.EngineConfig(fundamentals.Quarterly).WindowSize)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RANKER_WORKERS", "12")
	t.Setenv("RANKER_DATA_SOURCE", "mock")

	c, err := LoadConfig(writeConfig(t, "engine:\n  workers: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, c.Engine.Workers)
	assert.Equal(t, DataSourceMock, c.DataSource)

	t.Setenv("RANKER_WORKERS", "many")
	_, err = LoadConfig(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"data source", "data_source: STATIC\n"},
		{"granularity", "engine:\n  granularities: [monthly]\n"},
		{"window", "engine:\n  window_size: 1\n"},
		{"divisor", "engine:\n  trend_divisor: -5\n"},
		{"workers", "engine:\n  workers: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Empty(t, c.Universe.Static)
	assert.Equal(t, 10, c.Output.Top)
}
