package main

import (
	"context"
	"testing"

	"github.com/phrazzld/taskr-api/internal/config"
	"github.com/phrazzld/taskr-api/internal/platform/logger"
	"github.com/phrazzld/taskr-api/internal/platform/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupPersistence_Memory(t *testing.T) {
	t.Parallel()
	log, logBuf := logger.GetTestLogger(t)
	cfg := testConfig()
	cfg.Database.SeedUsers = []string{"Ada Lovelace", "Grace Brewster Hopper"}

	p, err := setupPersistence(context.Background(), cfg, log)

	require.NoError(t, err)
	assert.Nil(t, p.db)
	assert.IsType(t, &memory.Backend{}, p.transactor)

	seeded := logger.FindLogEntries(t, logBuf, map[string]interface{}{"msg": "seeded user"})
	require.Len(t, seeded, 2)
	assert.Equal(t, "Grace", seeded[1]["first_name"])
	assert.Equal(t, "Brewster Hopper", seeded[1]["last_name"])
}

func TestSetupPersistence_Errors(t *testing.T) {
	t.Parallel()
	log, _ := logger.GetTestLogger(t)

	cfg := testConfig()
	cfg.Database.Driver = "sqlite"
	_, err := setupPersistence(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "unsupported database driver")

	cfg = testConfig()
	cfg.Database.SeedUsers = []string{"   "}
	_, err = setupPersistence(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "invalid seed user")
}

func TestSetupCache(t *testing.T) {
	t.Parallel()
	log, _ := logger.GetTestLogger(t)

	cfg := testConfig().Cache
	c, closer, err := setupCache(context.Background(), cfg, log)
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Nil(t, closer)

	cfg.Driver = "memcached"
	_, _, err = setupCache(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "unsupported cache driver")
}

func TestHandleMigrations_RequiresPostgres(t *testing.T) {
	t.Parallel()
	log, _ := logger.GetTestLogger(t)

	err := handleMigrations(context.Background(), testConfig(), "up", log)

	assert.ErrorContains(t, err, "migrations require the postgres database driver")
}

func TestNewApplication_RejectsShortSecret(t *testing.T) {
	t.Parallel()
	log, _ := logger.GetTestLogger(t)
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	app, err := newApplication(context.Background(), cfg, log)

	assert.Nil(t, app)
	assert.ErrorContains(t, err, "failed to initialize JWT service")
}

func TestPrintToken_RejectsBadUserID(t *testing.T) {
	t.Parallel()
	cfg := config.AuthConfig{JWTSecret: testJWTSecret, TokenLifetimeMinutes: 5}

	err := printToken(context.Background(), cfg, "nobody", "USER")

	assert.ErrorContains(t, err, "invalid user ID")
}
