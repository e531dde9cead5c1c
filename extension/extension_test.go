package extension

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/grove"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/store/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{MutationRetries: 7})

	assert.Equal(t, "/commerce", cfg.BasePath)
	assert.Equal(t, 7, cfg.MutationRetries)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout)
}

func TestMergeConfigurations(t *testing.T) {
	yamlCfg := Config{
		BasePath:      "/shop",
		PluginTimeout: time.Second,
	}
	programmatic := Config{
		BasePath:         "/ignored",
		DisableMigrate:   true,
		DisableAutoApply: true,
		MutationRetries:  9,
		GroveDriver:      DriverSQLite,
	}

	cfg := mergeConfigurations(yamlCfg, programmatic)

	assert.Equal(t, "/shop", cfg.BasePath)
	assert.True(t, cfg.DisableMigrate)
	assert.True(t, cfg.DisableAutoApply)
	assert.False(t, cfg.DisableRoutes)
	assert.Equal(t, 9, cfg.MutationRetries)
	assert.Equal(t, time.Second, cfg.PluginTimeout)
	assert.Equal(t, DriverSQLite, cfg.GroveDriver)
}

func TestBuildWithMemoryStore(t *testing.T) {
	e := New(WithStore(memory.New()), WithBasePath("/shop"))
	e.config = mergeWithDefaults(e.config)

	require.NoError(t, e.build())
	require.NotNil(t, e.Engine())
	require.NotNil(t, e.Handler())

	require.NoError(t, e.Engine().Start(context.Background()))
	require.NoError(t, e.Health(context.Background()))

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shop/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, e.Engine().Stop())
	assert.ErrorIs(t, e.Health(context.Background()), commerce.ErrStoreClosed)
}

func TestBuildWithoutRoutes(t *testing.T) {
	e := New(WithDisableRoutes())
	e.config = mergeWithDefaults(e.config)

	require.NoError(t, e.build())
	assert.Nil(t, e.Handler())
	assert.NotNil(t, e.store)
}

func TestResolveStoreRejectsUnknownDriver(t *testing.T) {
	e := New(WithGroveDB(&grove.DB{}, "oracle"))

	_, err := e.resolveStore()
	assert.ErrorContains(t, err, "unsupported grove driver")
}

func TestStartBeforeRegister(t *testing.T) {
	e := New()
	assert.Error(t, e.Start(context.Background()))
	err := e.Health(context.Background())
	assert.ErrorIs(t, err, commerce.ErrStoreNotReady)
	assert.True(t, commerce.IsRetryable(err))
}
