package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"choromap/internal/measure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "MEASURES_SOURCE", "DEFAULT_MEASURE", "SEARCH_DEBOUNCE_MS", "SEARCH_LIMIT", "TLS_ENABLE"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, MeasuresFromCSV, c.MeasuresSource)
	assert.Equal(t, measure.ForgottenVoters, c.DefaultMeasure)
	assert.Equal(t, 80*time.Millisecond, c.SearchDebounce)
	assert.Equal(t, 50, c.SearchLimit)
	assert.False(t, c.TLSEnable)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE", "/v1/")
	t.Setenv("MEASURES_SOURCE", "Postgres")
	t.Setenv("DEFAULT_MEASURE", "pessimism")
	t.Setenv("SEARCH_DEBOUNCE_MS", "120")
	t.Setenv("SEARCH_LIMIT", "abc")
	c := Load()
	assert.Equal(t, "/v1", c.APIBase)
	assert.Equal(t, MeasuresFromPostgres, c.MeasuresSource)
	assert.Equal(t, measure.Pessimism, c.DefaultMeasure)
	assert.Equal(t, 120*time.Millisecond, c.SearchDebounce)
	assert.Equal(t, 50, c.SearchLimit)
}

func TestLoadInvalidMeasureFallsBack(t *testing.T) {
	t.Setenv("DEFAULT_MEASURE", "turnout")
	assert.Equal(t, measure.Keys[0], Load().DefaultMeasure)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHOROMAP_TEST_ADDR=:9999\n"), 0o644))
	t.Setenv("CHOROMAP_TEST_ADDR", "")
	os.Unsetenv("CHOROMAP_TEST_ADDR")
	LoadEnv()
	assert.Equal(t, ":9999", os.Getenv("CHOROMAP_TEST_ADDR"))
}
